package diagnosis

// Scale is the answer format of a question.
type Scale string

const (
	ThreeWay  Scale = "three_way"
	FivePoint Scale = "five_point"
)

// Three-way answer values.
const (
	Yes     = "yes"
	Partial = "partial"
	No      = "no"
)

// Option is one selectable answer, with the wire value and a display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var threeWayOptions = []Option{
	{Value: Yes, Label: "Yes"},
	{Value: Partial, Label: "Partially"},
	{Value: No, Label: "No"},
}

var fivePointOptions = []Option{
	{Value: "5", Label: "5 (very much)"},
	{Value: "4", Label: "4"},
	{Value: "3", Label: "3"},
	{Value: "2", Label: "2"},
	{Value: "1", Label: "1 (not at all)"},
}

// Question is one fixed item of the questionnaire.
type Question struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Scale    Scale    `json:"scale"`
	// Inverted marks questions where an affirmative answer means higher risk.
	Inverted bool `json:"inverted"`
	// Default is the preselected option shown by the form.
	Default string   `json:"default"`
	Options []Option `json:"options"`
}

// NumQuestions is the fixed questionnaire length; two per category.
const NumQuestions = 2 * NumCategories

// Questions is the questionnaire in presentation order. Questions 2k and
// 2k+1 belong to Categories[k].
var Questions = [NumQuestions]Question{
	{ID: "q1", Category: Inventory, Scale: ThreeWay, Default: Partial,
		Text: "Do you manage finished-goods and work-in-process inventory against numeric targets?"},
	{ID: "q2", Category: Inventory, Scale: ThreeWay, Default: Partial,
		Text: "Is there a clearly responsible department (or KPI) for inventory reduction?"},
	{ID: "q3", Category: Skills, Scale: ThreeWay, Inverted: true, Default: No,
		Text: "Are 30% or more of critical tasks ones that only veteran staff can perform? (Yes means higher risk)"},
	{ID: "q4", Category: Skills, Scale: ThreeWay, Default: Partial,
		Text: "Do you have a system for keeping work standards and manuals continuously updated?"},
	{ID: "q5", Category: Cost, Scale: ThreeWay, Default: Partial,
		Text: "Do you track improvement proposals and cost-reduction targets numerically?"},
	{ID: "q6", Category: Cost, Scale: FivePoint, Default: "3",
		Text: "Do shop-floor leaders act with a sense of cost?"},
	{ID: "q7", Category: Planning, Scale: ThreeWay, Default: Partial,
		Text: "Are there standard rules for handling order fluctuations and urgent requests?"},
	{ID: "q8", Category: Planning, Scale: ThreeWay, Default: Partial,
		Text: "Do you regularly review your lead-time reduction efforts?"},
	{ID: "q9", Category: Data, Scale: ThreeWay, Default: No,
		Text: "Can you see shop-floor progress and production results in real time?"},
	{ID: "q10", Category: Data, Scale: ThreeWay, Default: Partial,
		Text: "Do management and shop-floor meetings run on data?"},
}

func init() {
	for i := range Questions {
		if Questions[i].Scale == FivePoint {
			Questions[i].Options = fivePointOptions
		} else {
			Questions[i].Options = threeWayOptions
		}
	}
}

// QuestionByID looks up a question by id.
func QuestionByID(id string) (Question, bool) {
	for _, q := range Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
