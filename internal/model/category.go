package model

// Category groups listings for browsing.
type Category string

// Categories.
const (
	CategoryTextbooks   Category = "textbooks"
	CategoryElectronics Category = "electronics"
	CategorySports      Category = "sports"
	CategoryFurniture   Category = "furniture"
	CategoryAppliances  Category = "appliances"
	CategoryUniforms    Category = "uniforms-outfits"
	CategoryStationery  Category = "stationery"
	CategoryOthers      Category = "others"
)

// Categories lists every category known to the client.
var Categories = []Category{
	CategoryTextbooks,
	CategoryElectronics,
	CategorySports,
	CategoryFurniture,
	CategoryAppliances,
	CategoryUniforms,
	CategoryStationery,
	CategoryOthers,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// Label returns the display name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryTextbooks:
		return "Textbooks"
	case CategoryElectronics:
		return "Electronics"
	case CategorySports:
		return "Sports"
	case CategoryFurniture:
		return "Household"
	case CategoryAppliances:
		return "Appliances"
	case CategoryUniforms:
		return "Uniforms/Outfits"
	case CategoryStationery:
		return "Stationery"
	case CategoryOthers:
		return "Other"
	}
	return string(c)
}

// categoryWireIDs is the backend's category_id table.
//
// WIRE COMPATIBILITY: these ids are the 1-based positions of the category
// navigation list the backend was built against (textbooks, electronics,
// furniture, uniforms-outfits, sports, others). They are NOT derived from
// the order of Categories above. Appliances and stationery have no backend
// id. Changing any number here breaks compatibility with existing listings;
// confirm with the backend before editing.
var categoryWireIDs = map[Category]int{
	CategoryTextbooks:   1,
	CategoryElectronics: 2,
	CategoryFurniture:   3,
	CategoryUniforms:    4,
	CategorySports:      5,
	CategoryOthers:      6,
}

// CategoryWireID returns the backend id of c. The second result is false
// when c has no backend id; callers send 0 in that case.
func CategoryWireID(c Category) (int, bool) {
	id, ok := categoryWireIDs[c]
	return id, ok
}

// CategoryFromWireID maps a backend id to a category. Unknown ids map to
// CategoryOthers with ok == false.
func CategoryFromWireID(id int) (Category, bool) {
	for c, v := range categoryWireIDs {
		if v == id {
			return c, true
		}
	}
	return CategoryOthers, false
}
