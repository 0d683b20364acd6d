package dataset

import (
	"strings"
)

// MissingTokens are raw text cells treated as missing when a column is
// built from text input.
var MissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None"}

// IsMissingToken reports whether s denotes a missing value.
func IsMissingToken(s string) bool {
	s = strings.TrimSpace(s)
	for _, tok := range MissingTokens {
		if s == tok {
			return true
		}
	}
	return false
}

// InferColumn builds a column from raw text cells. The kind is Numeric when
// every non-missing cell parses as a number, Boolean when every non-missing
// cell is true or false, and Categorical otherwise. A column with no
// non-missing cell is Numeric.
func InferColumn(name string, raw []string) *Column {
	numeric, boolean := true, true
	for _, s := range raw {
		if IsMissingToken(s) {
			continue
		}
		if _, ok := ToFloat(s); !ok {
			numeric = false
		}
		if _, ok := parseBool(s); !ok {
			boolean = false
		}
		if !numeric && !boolean {
			break
		}
	}

	values := make([]any, len(raw))
	kind := Categorical
	switch {
	case numeric:
		kind = Numeric
	case boolean:
		kind = Boolean
	}
	for i, s := range raw {
		if IsMissingToken(s) {
			continue
		}
		switch kind {
		case Numeric:
			values[i], _ = ToFloat(s)
		case Boolean:
			values[i], _ = parseBool(s)
		default:
			values[i] = s
		}
	}
	return &Column{Name: name, Kind: kind, Values: values}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
