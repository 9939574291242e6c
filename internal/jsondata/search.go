package jsondata

import (
	"strconv"
	"strings"
)

// Search bounds. Deeply nested structures are cut off at a small depth
// ceiling, and anonymous sequences are sampled rather than fully visited
// to avoid blow-up on large arrays. Sequences reached through a known
// collection key are the expected payload and are visited in full.
const (
	// DefaultMaxDepth is the default recursion ceiling for searches.
	DefaultMaxDepth = 3
	// sequenceSample is how many elements of an anonymous sequence are visited.
	sequenceSample = 5
	// MinIdentifierLength is the minimum length of an offer identifier.
	MinIdentifierLength = 10
)

// identifierKeys are lowercased mapping keys whose string values are
// treated as offer identifiers.
var identifierKeys = map[string]struct{}{
	"id":       {},
	"offerid":  {},
	"offer_id": {},
	"publicid": {},
}

// collectionKeys are lowercased mapping keys that conventionally hold the
// item payload of a response.
var collectionKeys = map[string]struct{}{
	"offers":   {},
	"products": {},
	"items":    {},
	"data":     {},
	"results":  {},
}

// IsIdentifier reports whether s has the shape of an offer identifier:
// at least MinIdentifierLength characters from [A-Za-z0-9_-].
func IsIdentifier(s string) bool {
	if len(s) < MinIdentifierLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

// Match is a located value together with the path it was found at.
type Match struct {
	// Path is a dotted key path, with [i] markers for sequence elements.
	Path string
	// Value is the located value.
	Value any

	// parent is the mapping the value was found in.
	parent any
}

// FindIdentifiers recursively collects offer identifiers from a decoded
// JSON value: string values of identifier-named keys that pass
// IsIdentifier. Results are deduplicated and returned in discovery order.
// Malformed or unexpected input yields an empty slice, never an error.
func FindIdentifiers(v any, maxDepth int) []string {
	seen := make(map[string]struct{})
	var ids []string

	walk(v, "", 0, maxDepth, func(key string, m Match) bool {
		if _, ok := identifierKeys[key]; !ok {
			return false
		}
		s, ok := m.Value.(string)
		if !ok || !IsIdentifier(s) {
			return false
		}
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			ids = append(ids, s)
		}
		return false // keep searching
	})

	return ids
}

// FindObjectByID locates the first mapping whose "id" value equals id.
// Used to scope field extraction to the object describing one specific
// offer within a page blob.
func FindObjectByID(v any, id string, maxDepth int) (map[string]any, bool) {
	var found map[string]any

	walk(v, "", 0, maxDepth, func(key string, m Match) bool {
		if key != "id" {
			return false
		}
		s, ok := m.Value.(string)
		if !ok || s != id {
			return false
		}
		if obj, isMap := m.parent.(map[string]any); isMap {
			found = obj
			return true
		}
		return false
	})

	return found, found != nil
}

// FindRole recursively locates the first value matching the given semantic
// role anywhere in the tree, honoring the role's synonym ranking within
// each visited mapping.
func FindRole(v any, role Role, maxDepth int) (Match, bool) {
	var found Match
	ok := false

	walkMaps(v, "", 0, maxDepth, func(path string, obj map[string]any) bool {
		if m, has := RoleValue(obj, role); has {
			m.Path = joinPath(path, m.Path)
			found = m
			ok = true
			return true
		}
		return false
	})

	return found, ok
}

// visitFn receives the lowercased key and the match for every scalar or
// composite value visited. Returning true stops the walk.
type visitFn func(key string, m Match) bool

// walk traverses a decoded JSON tree breadth-unbounded but depth-bounded,
// calling visit for every key/value pair in every visited mapping.
func walk(v any, path string, depth, maxDepth int, visit visitFn) bool {
	if depth > maxDepth {
		return false
	}

	switch node := v.(type) {
	case map[string]any:
		for key, value := range node {
			m := Match{Path: joinPath(path, key), Value: value, parent: node}
			if visit(strings.ToLower(key), m) {
				return true
			}
			limit := -1
			if _, isCollection := collectionKeys[strings.ToLower(key)]; !isCollection {
				limit = sequenceSample
			}
			if walkChild(value, m.Path, depth+1, maxDepth, limit, visit) {
				return true
			}
		}
	case []any:
		return walkChild(node, path, depth, maxDepth, sequenceSample, visit)
	}

	return false
}

// walkChild recurses into a nested value. For sequences, limit caps how
// many elements are visited; a negative limit visits all of them.
func walkChild(v any, path string, depth, maxDepth int, limit int, visit visitFn) bool {
	switch node := v.(type) {
	case map[string]any:
		return walk(node, path, depth, maxDepth, visit)
	case []any:
		if depth > maxDepth {
			return false
		}
		for i, item := range node {
			if limit >= 0 && i >= limit {
				break
			}
			elemPath := path + "[" + strconv.Itoa(i) + "]"
			if walkChild(item, elemPath, depth+1, maxDepth, -1, visit) {
				return true
			}
		}
	}
	return false
}

// walkMaps visits every mapping in the tree, in the same bounded order as
// walk. Returning true from visit stops the traversal.
func walkMaps(v any, path string, depth, maxDepth int, visit func(path string, obj map[string]any) bool) bool {
	if depth > maxDepth {
		return false
	}

	switch node := v.(type) {
	case map[string]any:
		if visit(path, node) {
			return true
		}
		for key, value := range node {
			limit := sequenceSample
			if _, isCollection := collectionKeys[strings.ToLower(key)]; isCollection {
				limit = -1
			}
			childPath := joinPath(path, key)
			if seq, isSeq := value.([]any); isSeq {
				for i, item := range seq {
					if limit >= 0 && i >= limit {
						break
					}
					elemPath := childPath + "[" + strconv.Itoa(i) + "]"
					if walkMaps(item, elemPath, depth+1, maxDepth, visit) {
						return true
					}
				}
				continue
			}
			if walkMaps(value, childPath, depth+1, maxDepth, visit) {
				return true
			}
		}
	case []any:
		for i, item := range node {
			if i >= sequenceSample {
				break
			}
			elemPath := path + "[" + strconv.Itoa(i) + "]"
			if walkMaps(item, elemPath, depth+1, maxDepth, visit) {
				return true
			}
		}
	}

	return false
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	if key == "" {
		return base
	}
	return base + "." + key
}
