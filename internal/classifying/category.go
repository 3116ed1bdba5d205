package classifying

import "fmt"

// Category is one of the fixed product categories a product can be filed under
type Category string

const (
	HomeDecor      Category = "Home & Decor"
	Kitchen        Category = "Kitchen"
	BeautyWellness Category = "Beauty & Wellness"
	SportsLeisure  Category = "Sports & Leisure"
	Baby           Category = "Baby"
	AutoMoto       Category = "Auto & Moto"
	DIYTools       Category = "DIY & Tools"
	Miscellaneous  Category = "Miscellaneous"
)

// Categories lists every category in display order
var Categories = []Category{
	HomeDecor,
	Kitchen,
	BeautyWellness,
	SportsLeisure,
	Baby,
	AutoMoto,
	DIYTools,
	Miscellaneous,
}

// categoryHints are shown to the model next to each label
var categoryHints = map[Category]string{
	HomeDecor:      "Home and decoration, furniture, textiles",
	Kitchen:        "Kitchenware, food prep, appliances",
	BeautyWellness: "Cosmetics, health, personal care",
	SportsLeisure:  "Gym equipment, outdoor hobbies, gaming",
	Baby:           "Baby clothes, toys, nursery items",
	AutoMoto:       "Car parts, accessories, helmets",
	DIYTools:       "Tools, home repair, construction",
	Miscellaneous:  "Everything else that doesn't fit clearly",
}

// ParseCategory returns the category with the given label
func ParseCategory(label string) (Category, error) {
	c := Category(label)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", label)
	}
	return c, nil
}

// Valid reports whether c is one of the fixed categories
func (c Category) Valid() bool {
	switch c {
	case HomeDecor, Kitchen, BeautyWellness, SportsLeisure, Baby, AutoMoto, DIYTools, Miscellaneous:
		return true
	}
	return false
}

// Icon returns the emoji shown next to the category
func (c Category) Icon() string {
	switch c {
	case HomeDecor:
		return "🏠"
	case Kitchen:
		return "🍳"
	case BeautyWellness:
		return "💄"
	case SportsLeisure:
		return "⚽"
	case Baby:
		return "🍼"
	case AutoMoto:
		return "🚗"
	case DIYTools:
		return "🛠️"
	case Miscellaneous:
		return "📦"
	default:
		return "❓"
	}
}

// Hint describes what belongs in the category
func (c Category) Hint() string {
	return categoryHints[c]
}

func (c Category) String() string {
	return string(c)
}

// labels returns the category labels as plain strings, for schemas
func labels() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = string(c)
	}
	return out
}
