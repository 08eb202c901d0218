package diagnosis

import "fmt"

// Category is one of the five fixed operational risk dimensions.
// The iota order is the canonical order used for display and tie-breaks.
type Category int

const (
	Inventory Category = iota
	Skills
	Cost
	Planning
	Data
)

// NumCategories is the fixed number of categories in every result.
const NumCategories = 5

// Categories lists every category in canonical order.
var Categories = [NumCategories]Category{Inventory, Skills, Cost, Planning, Data}

var categoryKeys = [NumCategories]string{"inventory", "skills", "cost", "planning", "data"}

var categoryLabels = [NumCategories]string{
	"Inventory & Logistics",
	"Skills & Succession",
	"Cost Awareness & Culture",
	"Planning & Variability Response",
	"Data & Digitalization",
}

// logKeys are the column names used when a result is flattened into a log row.
var logKeys = [NumCategories]string{"inv_avg", "skills_avg", "cost_avg", "plan_avg", "dx_avg"}

func (c Category) valid() bool { return c >= 0 && int(c) < NumCategories }

// Key is the stable machine identifier, e.g. "inventory".
func (c Category) Key() string {
	if !c.valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryKeys[c]
}

// Label is the human-readable name, e.g. "Inventory & Logistics".
func (c Category) Label() string {
	if !c.valid() {
		return c.Key()
	}
	return categoryLabels[c]
}

// LogKey is the column name for this category's mean in a log row.
func (c Category) LogKey() string {
	if !c.valid() {
		return c.Key()
	}
	return logKeys[c]
}

func (c Category) String() string { return c.Label() }

func (c Category) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
	return []byte(categoryKeys[c]), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	for i, k := range categoryKeys {
		if k == string(b) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", string(b))
}
