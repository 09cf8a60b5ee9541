package catalog

import "strings"

// Category groups notification types for bulk opt-in and opt-out.
type Category string

const (
	CategoryTask          Category = "task"
	CategoryNote          Category = "note"
	CategorySystem        Category = "system"
	CategoryPasswordReset Category = "password_reset"
	CategorySecurity      Category = "security"
	CategoryDigest        Category = "digest"
	CategoryMarketing     Category = "marketing"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryTask,
		CategoryNote,
		CategorySystem,
		CategoryPasswordReset,
		CategorySecurity,
		CategoryDigest,
		CategoryMarketing,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

var prefixCategories = []struct {
	prefix   string
	category Category
}{
	{"task.", CategoryTask},
	{"note.", CategoryNote},
	{"security.", CategorySecurity},
	{"system.", CategorySystem},
	{"digest.", CategoryDigest},
	{"marketing.", CategoryMarketing},
}

// categoryByPrefix guesses the category of a type missing from the catalog.
func categoryByPrefix(key string) Category {
	for _, p := range prefixCategories {
		if strings.HasPrefix(key, p.prefix) {
			return p.category
		}
	}
	return CategorySystem
}
