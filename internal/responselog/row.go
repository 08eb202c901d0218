// Package responselog flattens a diagnosis result into one row and appends
// it to an append-only store.
package responselog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/shindan/internal/diagnosis"
)

// ErrAppendFailed wraps every store write failure.
var ErrAppendFailed = errors.New("log append failed")

// Header is the fixed column order of a row.
var Header = func() []string {
	h := []string{"timestamp", "company", "email", "signal", "archetype", "overall_avg"}
	for _, c := range diagnosis.Categories {
		h = append(h, c.LogKey())
	}
	return append(h, "narrative")
}()

// Row is one flattened, string-formatted result. It is a copy; the session
// result is never handed to a store.
type Row struct {
	values map[string]string
}

// NewRow shapes a row. narrative is the override text, empty when none was
// generated. at is the logging time, rendered in loc.
func NewRow(res diagnosis.Result, narrative string, at time.Time, loc *time.Location) Row {
	v := map[string]string{
		"timestamp":   at.In(loc).Format(time.RFC3339),
		"company":     res.Company,
		"email":       res.Email,
		"signal":      res.Signal.Label(),
		"archetype":   string(res.Archetype),
		"overall_avg": formatMean(res.Overall),
		"narrative":   narrative,
	}
	means := res.Means()
	for _, c := range diagnosis.Categories {
		v[c.LogKey()] = formatMean(means[c])
	}
	return Row{values: v}
}

// Get returns the value of one column.
func (r Row) Get(field string) string { return r.values[field] }

// Values returns the row in Header order.
func (r Row) Values() []string {
	out := make([]string, len(Header))
	for i, h := range Header {
		out[i] = r.values[h]
	}
	return out
}

// Map returns a copy of the row keyed by column name.
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

func formatMean(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Appender is one store strategy.
type Appender interface {
	Append(ctx context.Context, row Row) error
	Name() string
}
