package enums

import "fmt"

// DietaryType classifies a menu item for visitor-facing filtering.
type DietaryType string

const (
	DietaryTypeVeg    DietaryType = "veg"
	DietaryTypeNonVeg DietaryType = "non_veg"
	DietaryTypeVegan  DietaryType = "vegan"
	DietaryTypeNone   DietaryType = "none"
)

var validDietaryTypes = []DietaryType{
	DietaryTypeVeg,
	DietaryTypeNonVeg,
	DietaryTypeVegan,
	DietaryTypeNone,
}

// IsValid reports whether the value is a known DietaryType.
func (d DietaryType) IsValid() bool {
	for _, candidate := range validDietaryTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDietaryType converts raw input into a DietaryType.
func ParseDietaryType(value string) (DietaryType, error) {
	for _, candidate := range validDietaryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dietary type %q", value)
}
