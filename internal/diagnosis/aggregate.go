package diagnosis

// CategoryScore is the mean of one category's two normalized answers.
type CategoryScore struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Mean     float64  `json:"mean"`
}

// Means holds the five category means indexed by Category.
type Means [NumCategories]float64

// Aggregate turns the ten normalized scores, in questionnaire order, into the
// five category means and the overall mean. The overall mean averages the
// category means so every category weighs the same. Nothing is rounded here.
func Aggregate(scores [NumQuestions]int) (Means, float64) {
	var means Means
	for _, c := range Categories {
		a, b := scores[2*int(c)], scores[2*int(c)+1]
		means[c] = float64(a+b) / 2
	}
	return means, means.Overall()
}

// Overall is the simple mean of the five category means.
func (m Means) Overall() float64 {
	var sum float64
	for _, v := range m {
		sum += v
	}
	return sum / NumCategories
}

// Scores expands the means into CategoryScore records in canonical order.
func (m Means) Scores() []CategoryScore {
	out := make([]CategoryScore, 0, NumCategories)
	for _, c := range Categories {
		out = append(out, CategoryScore{Category: c, Label: c.Label(), Mean: m[c]})
	}
	return out
}
