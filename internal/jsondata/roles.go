package jsondata

// Role names a semantic field extracted from schema-less offer data.
type Role string

// Semantic roles recognized by the search.
const (
	RoleName            Role = "name"
	RoleDescription     Role = "description"
	RolePrice           Role = "price"
	RoleMembershipPrice Role = "membership_price"
	RoleOriginalPrice   Role = "original_price"
	RoleCurrency        Role = "currency"
	RoleUnitPrice       Role = "unit_price"
	RoleBaseUnit        Role = "base_unit"
	RoleUnitSymbol      Role = "unit_symbol"
	RoleImage           Role = "image"
	RoleImageLarge      Role = "image_large"
	RoleValidFrom       Role = "valid_from"
	RoleValidUntil      Role = "valid_until"
	RoleBusinessName    Role = "business_name"
)

// roleSynonyms ranks the candidate key names per role. Keys are probed in
// order; the first present non-empty value wins. Names follow what the
// target site's data blobs actually use.
var roleSynonyms = map[Role][]string{
	RoleName:            {"name", "title", "productName", "heading"},
	RoleDescription:     {"description", "productDescription", "subtitle"},
	RolePrice:           {"price", "currentPrice", "salePrice"},
	RoleMembershipPrice: {"membershipPrice", "memberPrice"},
	RoleOriginalPrice:   {"originalPrice", "regularPrice", "beforePrice"},
	RoleCurrency:        {"currency", "currencyCode", "priceCurrency"},
	RoleUnitPrice:       {"unitPrice", "comparisonPrice"},
	RoleBaseUnit:        {"baseUnit", "comparisonUnit"},
	RoleUnitSymbol:      {"unitSymbol", "unit"},
	RoleImage:           {"image", "imageUrl", "thumbnail"},
	RoleImageLarge:      {"imageLarge", "imageLargeUrl", "zoomImage"},
	RoleValidFrom:       {"validFrom", "startDate", "runFromDate"},
	RoleValidUntil:      {"validUntil", "endDate", "expiryDate", "runTillDate"},
	RoleBusinessName:    {"business", "retailer", "store", "businessName"},
}

// RoleValue probes one mapping for the given role, trying the ranked
// synonyms in order. A business value that is itself an object falls back
// to the object's own name field.
func RoleValue(obj map[string]any, role Role) (Match, bool) {
	for _, key := range roleSynonyms[role] {
		value, present := obj[key]
		if !present || value == nil {
			continue
		}
		if s, isString := value.(string); isString && s == "" {
			continue
		}
		// {"business": {"name": "..."}} style nesting
		if nested, isMap := value.(map[string]any); isMap {
			if inner, ok := RoleValue(nested, RoleName); ok {
				inner.Path = key + "." + inner.Path
				return inner, true
			}
			continue
		}
		return Match{Path: key, Value: value, parent: obj}, true
	}
	return Match{}, false
}

// Text returns the match value as a string when it is one.
func (m Match) Text() (string, bool) {
	s, ok := m.Value.(string)
	return s, ok
}

// Number returns the match value as a float64. JSON numbers decode to
// float64; numeric strings are not coerced here, that is the price
// normalizer's job.
func (m Match) Number() (float64, bool) {
	f, ok := m.Value.(float64)
	return f, ok
}
