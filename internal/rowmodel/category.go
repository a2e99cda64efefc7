package rowmodel

import "strings"

// Category selects the UI filter behavior matching a column's remote
// type tag.
type Category int

const (
	// CategoryDefault applies to columns with no type-specific filter
	// (booleans included).
	CategoryDefault Category = iota
	CategoryNumeric
	CategoryTemporal
	CategoryText
)

func (c Category) String() string {
	switch c {
	case CategoryNumeric:
		return "numeric"
	case CategoryTemporal:
		return "temporal"
	case CategoryText:
		return "text"
	default:
		return "default"
	}
}

// CategoryOf maps a remote column type tag onto its filter category.
// Integer, floating and decimal families are numeric; date, time and
// instant families are temporal; string and character families are
// text; everything else falls back to the default category.
func CategoryOf(colType string) Category {
	switch strings.ToLower(colType) {
	case "int", "long", "short", "byte", "float", "double", "decimal", "bigdecimal", "biginteger":
		return CategoryNumeric
	case "instant", "datetime", "zoneddatetime", "localdate", "localtime", "timestamp":
		return CategoryTemporal
	case "string", "char", "charsequence":
		return CategoryText
	default:
		return CategoryDefault
	}
}
