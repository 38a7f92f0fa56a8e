package domain

// LookupKind names a catalog reference table.
type LookupKind string

const (
	LookupBrand       LookupKind = "brand"
	LookupCategory    LookupKind = "category"
	LookupGender      LookupKind = "gender"
	LookupType        LookupKind = "type"
	LookupReleaseForm LookupKind = "release_form"
)

// LookupKinds lists every supported lookup kind.
var LookupKinds = []LookupKind{LookupBrand, LookupCategory, LookupGender, LookupType, LookupReleaseForm}

// IsValid reports whether k is a known kind.
func (k LookupKind) IsValid() bool {
	for _, known := range LookupKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Lookup is a named catalog reference value such as a brand or a category.
type Lookup struct {
	ID   int64      `json:"id"`
	Kind LookupKind `json:"kind"`
	Name string     `json:"name"`
}
