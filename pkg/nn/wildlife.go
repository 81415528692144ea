package nn

// Category IDs used by MegaDetector-family wildlife models.
// Note that these are 1-based; 0 is reserved for "empty" and never
// appears in a detection.
const (
	WildlifeAnimal  = 1
	WildlifePerson  = 2
	WildlifeVehicle = 3
)

// Wildlife classes, indexed by category ID - 1
var WildlifeClasses = []string{
	"animal",
	"person",
	"vehicle",
}

// WildlifeCategories returns the category ID -> label mapping for the given
// class list, in the 1-based convention above.
func WildlifeCategories(classes []string) map[int]string {
	categories := map[int]string{}
	for i, class := range classes {
		categories[i+1] = class
	}
	return categories
}

// ClassLabel returns the human readable label for a category ID, or "unknown"
func ClassLabel(classes []string, id int) string {
	if id >= 1 && id <= len(classes) && classes[id-1] != "" {
		return classes[id-1]
	}
	return "unknown"
}
