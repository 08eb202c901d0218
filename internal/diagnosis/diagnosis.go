// Package diagnosis scores the ten-question self-assessment, aggregates it into
// five category means and classifies the result into a signal and archetype.
//
// Everything here is pure: no I/O, no clock, no shared state.
package diagnosis

import (
	"fmt"
	"sort"
	"time"
)

// Answers maps question id ("q1".."q10") to the raw selected value.
type Answers map[string]string

// Contact holds the optional, unvalidated respondent fields.
type Contact struct {
	Company string `json:"company"`
	Email   string `json:"email"`
}

// Result is the outcome of one submission. It is built once by Diagnose and
// not modified afterwards.
type Result struct {
	Categories  []CategoryScore `json:"categories"`
	Overall     float64         `json:"overall"`
	Signal      Signal          `json:"signal"`
	Archetype   Archetype       `json:"archetype"`
	Company     string          `json:"company"`
	Email       string          `json:"email"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// Means returns the category means indexed by Category.
func (r Result) Means() Means {
	var m Means
	for _, cs := range r.Categories {
		if cs.Category.valid() {
			m[cs.Category] = cs.Mean
		}
	}
	return m
}

// Weakest returns the n lowest-scoring categories, lowest first. Ties keep
// canonical order.
func (r Result) Weakest(n int) []CategoryScore {
	sorted := make([]CategoryScore, len(r.Categories))
	copy(sorted, r.Categories)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Mean < sorted[j].Mean })
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Diagnose runs normalization, aggregation and classification over one
// submission. submittedAt is supplied by the caller so the pipeline stays
// deterministic.
func Diagnose(answers Answers, contact Contact, submittedAt time.Time, n Normalizer) (Result, error) {
	for id, v := range answers {
		if _, ok := QuestionByID(id); !ok {
			return Result{}, &InvalidAnswerError{QuestionID: id, Value: v}
		}
	}

	var scores [NumQuestions]int
	for i, q := range Questions {
		s, err := n.Score(q, answers[q.ID])
		if err != nil {
			return Result{}, fmt.Errorf("score %s: %w", q.ID, err)
		}
		scores[i] = s
	}

	means, overall := Aggregate(scores)
	signal, archetype := Classify(means)

	return Result{
		Categories:  means.Scores(),
		Overall:     overall,
		Signal:      signal,
		Archetype:   archetype,
		Company:     contact.Company,
		Email:       contact.Email,
		SubmittedAt: submittedAt,
	}, nil
}
