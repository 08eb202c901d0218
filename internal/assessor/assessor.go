// Package assessor runs one interactive diagnosis session: submission,
// narrative override, report rendering and logging.
package assessor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/shindan/internal/diagnosis"
	"github.com/MikeSquared-Agency/shindan/internal/hermes"
	"github.com/MikeSquared-Agency/shindan/internal/narrative"
	"github.com/MikeSquared-Agency/shindan/internal/report"
	"github.com/MikeSquared-Agency/shindan/internal/responselog"
	"github.com/MikeSquared-Agency/shindan/internal/session"
)

// ErrStoreNotConfigured is returned when a log strategy has no backing store.
var ErrStoreNotConfigured = errors.New("log store not configured")

const leadTimeout = 15 * time.Second

// Publisher emits domain events. *hermes.Client satisfies it.
type Publisher interface {
	Publish(subject string, data any) error
}

// LeadNotifier announces submissions that carry contact details.
// *slack.Poster satisfies it.
type LeadNotifier interface {
	PostLead(ctx context.Context, sessionID string, res diagnosis.Result) (string, error)
}

// Renderer turns a report model into a document. *report.PDFRenderer
// satisfies it.
type Renderer interface {
	Render(m report.Model) (report.Document, error)
}

// Deps wires an Assessor. Remote, File, Events and Leads are optional.
type Deps struct {
	Sessions   session.Store
	Narrator   narrative.Generator
	Renderer   Renderer
	Remote     responselog.Appender
	File       responselog.Appender
	Events     Publisher
	Leads      LeadNotifier
	Normalizer diagnosis.Normalizer
	Report     report.Options
	Logger     *slog.Logger
}

type Assessor struct {
	sessions   session.Store
	narrator   narrative.Generator
	renderer   Renderer
	remote     responselog.Appender
	file       responselog.Appender
	events     Publisher
	leads      LeadNotifier
	normalizer diagnosis.Normalizer
	opts       report.Options
	logger     *slog.Logger
	now        func() time.Time
}

func New(d Deps) *Assessor {
	if d.Report.Location == nil {
		d.Report.Location = time.UTC
	}
	return &Assessor{
		sessions:   d.Sessions,
		narrator:   d.Narrator,
		renderer:   d.Renderer,
		remote:     d.Remote,
		file:       d.File,
		events:     d.Events,
		leads:      d.Leads,
		normalizer: d.Normalizer,
		opts:       d.Report,
		logger:     d.Logger,
		now:        time.Now,
	}
}

// Submit diagnoses the answers and opens a new session holding the result.
func (a *Assessor) Submit(ctx context.Context, answers diagnosis.Answers, contact diagnosis.Contact) (*session.State, error) {
	now := a.now().In(a.opts.Location)

	res, err := diagnosis.Diagnose(answers, contact, now, a.normalizer)
	if err != nil {
		return nil, err
	}

	st := session.New(res, now)
	if err := a.sessions.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	a.logger.Info("diagnosis completed",
		"session_id", st.ID,
		"signal", res.Signal,
		"archetype", res.Archetype,
		"overall", res.Overall,
	)

	a.publish(hermes.SubjectDiagnosisCompleted, hermes.DiagnosisCompleted{
		SessionID: st.ID.String(),
		Signal:    string(res.Signal),
		Archetype: string(res.Archetype),
		Overall:   res.Overall,
		Means:     meansByKey(res),
		HasLead:   hasLead(res),
		Timestamp: now.Format(time.RFC3339),
	})

	if a.leads != nil && hasLead(res) {
		go a.notifyLead(st.ID.String(), res)
	}

	return st, nil
}

// Get returns the session state.
func (a *Assessor) Get(ctx context.Context, id uuid.UUID) (*session.State, error) {
	return a.sessions.Get(ctx, id)
}

// GenerateNarrative asks the narrative generator for an override. On failure
// the session is left exactly as it was and the error wraps
// narrative.ErrUnavailable; callers keep showing the default text.
func (a *Assessor) GenerateNarrative(ctx context.Context, id uuid.UUID) (*session.State, error) {
	st, err := a.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	text, err := a.narrator.Generate(ctx, st.Result)
	if err != nil {
		a.logger.Warn("narrative unavailable, using default text",
			"session_id", id, "provider", a.narrator.Provider(), "error", err)
		return st, err
	}

	return a.updateNarrative(ctx, st, text)
}

// SetNarrative stores a caller-supplied override. Blank text clears it.
func (a *Assessor) SetNarrative(ctx context.Context, id uuid.UUID, text string) (*session.State, error) {
	st, err := a.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.updateNarrative(ctx, st, strings.TrimSpace(text))
}

// ClearNarrative drops the override so the default text is used again.
func (a *Assessor) ClearNarrative(ctx context.Context, id uuid.UUID) (*session.State, error) {
	return a.SetNarrative(ctx, id, "")
}

func (a *Assessor) updateNarrative(ctx context.Context, st *session.State, text string) (*session.State, error) {
	st.Narrative = text
	st.UpdatedAt = a.now()
	if err := a.sessions.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return st, nil
}

// Report composes the render model for the session.
func (a *Assessor) Report(ctx context.Context, id uuid.UUID) (report.Model, error) {
	st, err := a.sessions.Get(ctx, id)
	if err != nil {
		return report.Model{}, err
	}
	return report.Compose(st.Result, st.Narrative, a.opts), nil
}

// RenderReport renders the session's report document.
func (a *Assessor) RenderReport(ctx context.Context, id uuid.UUID) (report.Document, error) {
	m, err := a.Report(ctx, id)
	if err != nil {
		return report.Document{}, err
	}
	doc, err := a.renderer.Render(m)
	if err != nil {
		return report.Document{}, fmt.Errorf("render report: %w", err)
	}
	return doc, nil
}

// LogRemote appends the session's row to the remote tabular store.
func (a *Assessor) LogRemote(ctx context.Context, id uuid.UUID) (responselog.Row, error) {
	return a.appendRow(ctx, id, a.remote)
}

// LogFile appends the session's row to the local delimited file.
func (a *Assessor) LogFile(ctx context.Context, id uuid.UUID) (responselog.Row, error) {
	return a.appendRow(ctx, id, a.file)
}

// appendRow never writes to the session, so a failed or retried append
// leaves the result untouched.
func (a *Assessor) appendRow(ctx context.Context, id uuid.UUID, store responselog.Appender) (responselog.Row, error) {
	if store == nil {
		return responselog.Row{}, ErrStoreNotConfigured
	}
	st, err := a.sessions.Get(ctx, id)
	if err != nil {
		return responselog.Row{}, err
	}

	now := a.now()
	row := responselog.NewRow(st.Result, st.Narrative, now, a.opts.Location)
	if err := store.Append(ctx, row); err != nil {
		a.logger.Error("log append failed", "session_id", id, "store", store.Name(), "error", err)
		return responselog.Row{}, err
	}

	a.logger.Info("response logged", "session_id", id, "store", store.Name())
	a.publish(hermes.SubjectResponseLogged, hermes.ResponseLogged{
		SessionID: id.String(),
		Store:     store.Name(),
		Timestamp: now.In(a.opts.Location).Format(time.RFC3339),
	})
	return row, nil
}

// Stores reports which log strategies are available.
func (a *Assessor) Stores() (remote, file bool) {
	return a.remote != nil, a.file != nil
}

func (a *Assessor) publish(subject string, data any) {
	if a.events == nil {
		return
	}
	if err := a.events.Publish(subject, data); err != nil {
		a.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func (a *Assessor) notifyLead(sessionID string, res diagnosis.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), leadTimeout)
	defer cancel()
	if _, err := a.leads.PostLead(ctx, sessionID, res); err != nil {
		a.logger.Warn("failed to post lead", "session_id", sessionID, "error", err)
	}
}

func hasLead(res diagnosis.Result) bool {
	return strings.TrimSpace(res.Company) != "" || strings.TrimSpace(res.Email) != ""
}

func meansByKey(res diagnosis.Result) map[string]float64 {
	out := make(map[string]float64, len(res.Categories))
	for _, cs := range res.Categories {
		out[cs.Category.Key()] = cs.Mean
	}
	return out
}
