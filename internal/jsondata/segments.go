// Package jsondata extracts loosely structured JSON data from free-form
// text. Flyer pages embed their state as several concatenated JSON object
// literals inside generic container elements; this package splits such
// blobs into individually parseable segments and searches the decoded
// values for fields of interest without assuming any schema.
package jsondata

// ExtractSegments splits content into substrings with balanced braces.
// A segment starts at a '{' encountered at depth zero and ends at the
// matching '}'. Characters outside any brace span are discarded. Segments
// never overlap and are returned in order of appearance.
//
// The scan is not quote-aware: a literal brace inside a JSON string value
// shifts segment boundaries. Such segments fail to parse downstream and
// are handled by the regex fallback instead, so the scan itself never
// reports an error.
func ExtractSegments(content string) []string {
	var segments []string
	depth := 0
	start := 0

	for pos := 0; pos < len(content); pos++ {
		switch content[pos] {
		case '{':
			if depth == 0 {
				start = pos
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				segments = append(segments, content[start:pos+1])
			}
		}
	}

	return segments
}
