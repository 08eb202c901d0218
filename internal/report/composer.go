// Package report assembles the render model for a diagnosis and renders it
// as a PDF document.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/shindan/internal/diagnosis"
)

const (
	Title              = "3-Minute Free Diagnosis Report"
	companyPlaceholder = "(not provided)"
	anonymousFilename  = "anonymous"
	displayTimeLayout  = "2006-01-02 15:04"
	filenameTimeLayout = "20060102_1504"
	ctaHeading         = "Next step: 90-minute spot diagnosis"
)

// Options are the deployment constants the composer needs.
type Options struct {
	Location *time.Location
	CTAURL   string
}

// Row is one line of the score table.
type Row struct {
	Category diagnosis.Category `json:"category"`
	Label    string             `json:"label"`
	Score    float64            `json:"score"`
	Display  string             `json:"display"`
}

// CallToAction is the closing link, also encoded as a QR code in the PDF.
type CallToAction struct {
	Heading string `json:"heading"`
	URL     string `json:"url"`
}

// Model is the rendering-agnostic report.
type Model struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	Timestamp string `json:"timestamp"`
	Signal    string `json:"signal"`
	Archetype string `json:"archetype"`
	Narrative string `json:"narrative"`
	// Table keeps canonical category order.
	Table []Row `json:"table"`
	// Chart is the same rows sorted ascending by score.
	Chart    []Row        `json:"chart"`
	CTA      CallToAction `json:"cta"`
	Filename string       `json:"filename"`
}

// Compose builds the model. override replaces the archetype's default text
// when it is non-empty.
func Compose(res diagnosis.Result, override string, opts Options) Model {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	at := res.SubmittedAt.In(loc)

	company := res.Company
	if strings.TrimSpace(company) == "" {
		company = companyPlaceholder
	}

	narrative := override
	if strings.TrimSpace(narrative) == "" {
		narrative = res.Archetype.DefaultText()
	}

	table := make([]Row, 0, len(res.Categories))
	for _, cs := range res.Categories {
		table = append(table, Row{
			Category: cs.Category,
			Label:    cs.Label,
			Score:    cs.Mean,
			Display:  fmt.Sprintf("%.2f", cs.Mean),
		})
	}
	chart := make([]Row, len(table))
	copy(chart, table)
	sort.SliceStable(chart, func(i, j int) bool { return chart[i].Score < chart[j].Score })

	return Model{
		Title:     Title,
		Company:   company,
		Timestamp: at.Format(displayTimeLayout),
		Signal:    res.Signal.Label(),
		Archetype: string(res.Archetype),
		Narrative: narrative,
		Table:     table,
		Chart:     chart,
		CTA:       CallToAction{Heading: ctaHeading, URL: opts.CTAURL},
		Filename:  Filename(res.Company, at),
	}
}

// Filename is the download name for a report: VC_diagnosis_<company>_<time>.pdf.
func Filename(company string, at time.Time) string {
	name := sanitizeFilename(company)
	if name == "" {
		name = anonymousFilename
	}
	return fmt.Sprintf("VC_diagnosis_%s_%s.pdf", name, at.Format(filenameTimeLayout))
}

func sanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		case r == ' ':
			return '_'
		}
		return r
	}, s)
}
