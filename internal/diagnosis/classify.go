package diagnosis

// Signal is the traffic-light risk level derived from the overall mean.
type Signal string

const (
	SignalBlue   Signal = "blue"
	SignalYellow Signal = "yellow"
	SignalRed    Signal = "red"
)

// Label is the display form, e.g. "Blue signal".
func (s Signal) Label() string {
	switch s {
	case SignalBlue:
		return "Blue signal"
	case SignalYellow:
		return "Yellow signal"
	case SignalRed:
		return "Red signal"
	default:
		return string(s)
	}
}

// Archetype summarizes the dominant risk pattern of a submission.
type Archetype string

const (
	ArchetypeInventoryStagnation Archetype = "Inventory-Stagnation type"
	ArchetypeExpertDependency    Archetype = "Expert-Dependency type"
	ArchetypeCostBlackbox        Archetype = "Cost-Blackbox type"
	ArchetypeVariabilityFragile  Archetype = "Variability-Fragile type"
	ArchetypeDataDisconnect      Archetype = "Data-Disconnect type"
	ArchetypeBalanced            Archetype = "Balanced/Mature type"
)

// Thresholds. Lower bounds are inclusive.
const (
	blueThreshold     = 4.0
	yellowThreshold   = 2.6
	balancedThreshold = 4.0
)

// riskArchetypes maps the weakest category to its archetype.
var riskArchetypes = [NumCategories]Archetype{
	Inventory: ArchetypeInventoryStagnation,
	Skills:    ArchetypeExpertDependency,
	Cost:      ArchetypeCostBlackbox,
	Planning:  ArchetypeVariabilityFragile,
	Data:      ArchetypeDataDisconnect,
}

var defaultTexts = map[Archetype]string{
	ArchetypeInventoryStagnation: "Excess inventory and stalled work-in-process are likely tying up cash. Shift the focus from production volume to designing the flow.",
	ArchetypeExpertDependency:    "Skills have become a black box held by individuals, and the risk of a sharp drop when veterans leave is high. Taking stock of skills and designing for multi-skilled workers is urgent.",
	ArchetypeCostBlackbox:        "Cost awareness and cost visibility are weak, so profit quietly erodes. Roll out visible cost management all the way to the shop floor.",
	ArchetypeVariabilityFragile:  "Order swings and urgent jobs hit hard, leading straight to delivery trouble and overtime. Rather than eliminating variability, design buffers that let it flow.",
	ArchetypeDataDisconnect:      "Progress and results are not visible, so decisions tend to lag. Start with visibility and connect shop-floor data to management.",
	ArchetypeBalanced:            "Risks are well spread and the mechanisms are maturing. The next step is data use that generates profit and continued lead-time reduction.",
}

// DefaultText is the fixed narrative for an archetype.
func (a Archetype) DefaultText() string {
	return defaultTexts[a]
}

// Archetypes lists all six archetypes, risk types in canonical category order
// followed by the balanced type.
func Archetypes() []Archetype {
	out := make([]Archetype, 0, NumCategories+1)
	out = append(out, riskArchetypes[:]...)
	return append(out, ArchetypeBalanced)
}

// ClassifySignal maps the overall mean to a signal.
func ClassifySignal(overall float64) Signal {
	switch {
	case overall >= blueThreshold:
		return SignalBlue
	case overall >= yellowThreshold:
		return SignalYellow
	default:
		return SignalRed
	}
}

// Weakest returns the category with the lowest mean. Ties go to the category
// that comes first in canonical order.
func Weakest(m Means) Category {
	worst := Categories[0]
	for _, c := range Categories[1:] {
		if m[c] < m[worst] {
			worst = c
		}
	}
	return worst
}

// ClassifyArchetype returns the balanced archetype when every category mean
// is at least 4.0, otherwise the archetype of the weakest category.
func ClassifyArchetype(m Means) Archetype {
	balanced := true
	for _, v := range m {
		if v < balancedThreshold {
			balanced = false
			break
		}
	}
	if balanced {
		return ArchetypeBalanced
	}
	return riskArchetypes[Weakest(m)]
}

// Classify derives both the signal and the archetype from the category means.
func Classify(m Means) (Signal, Archetype) {
	return ClassifySignal(m.Overall()), ClassifyArchetype(m)
}
