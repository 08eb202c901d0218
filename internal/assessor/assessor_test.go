package assessor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/shindan/internal/diagnosis"
	"github.com/MikeSquared-Agency/shindan/internal/hermes"
	"github.com/MikeSquared-Agency/shindan/internal/narrative"
	"github.com/MikeSquared-Agency/shindan/internal/report"
	"github.com/MikeSquared-Agency/shindan/internal/responselog"
	"github.com/MikeSquared-Agency/shindan/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeNarrator struct {
	text string
	err  error
}

func (f *fakeNarrator) Generate(context.Context, diagnosis.Result) (string, error) {
	return f.text, f.err
}

func (f *fakeNarrator) Provider() string { return "fake" }

type fakeAppender struct {
	mu   sync.Mutex
	rows []responselog.Row
	err  error
}

func (f *fakeAppender) Name() string { return "fake" }

func (f *fakeAppender) Append(_ context.Context, row responselog.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(subject string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

type fakeLeads struct {
	posted chan string
}

func (f *fakeLeads) PostLead(_ context.Context, sessionID string, _ diagnosis.Result) (string, error) {
	f.posted <- sessionID
	return "ts", nil
}

type fixture struct {
	a        *Assessor
	narrator *fakeNarrator
	remote   *fakeAppender
	file     *fakeAppender
	events   *fakePublisher
}

var jst = time.FixedZone("UTC+9", 9*60*60)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		narrator: &fakeNarrator{text: "Generated advice."},
		remote:   &fakeAppender{},
		file:     &fakeAppender{},
		events:   &fakePublisher{},
	}
	f.a = New(Deps{
		Sessions: session.NewMemoryStore(time.Hour),
		Narrator: f.narrator,
		Renderer: report.NewPDFRenderer("", "", discardLogger()),
		Remote:   f.remote,
		File:     f.file,
		Events:   f.events,
		Report:   report.Options{Location: jst, CTAURL: "https://example.com/spot/"},
		Logger:   discardLogger(),
	})
	f.a.now = func() time.Time { return time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func answers() diagnosis.Answers {
	return diagnosis.Answers{
		"q1": "yes", "q2": "yes", "q3": "no", "q4": "yes", "q5": "partial",
		"q6": "5", "q7": "yes", "q8": "yes", "q9": "no", "q10": "partial",
	}
}

func submit(t *testing.T, f *fixture) *session.State {
	t.Helper()
	st, err := f.a.Submit(context.Background(), answers(), diagnosis.Contact{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return st
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	st := submit(t, f)

	if st.Result.Archetype != diagnosis.ArchetypeDataDisconnect || st.Result.Signal != diagnosis.SignalBlue {
		t.Errorf("unexpected classification %s/%s", st.Result.Signal, st.Result.Archetype)
	}
	if st.Result.SubmittedAt.Location() != jst {
		t.Errorf("expected submission time in configured zone, got %s", st.Result.SubmittedAt.Location())
	}

	got, err := f.a.Get(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Result.Overall != st.Result.Overall {
		t.Error("stored result differs from submitted result")
	}
	if len(f.events.subjects) != 1 || f.events.subjects[0] != hermes.SubjectDiagnosisCompleted {
		t.Errorf("expected completion event, got %v", f.events.subjects)
	}
}

func TestSubmit_InvalidAnswer(t *testing.T) {
	f := newFixture(t)
	bad := answers()
	bad["q1"] = "sometimes"

	_, err := f.a.Submit(context.Background(), bad, diagnosis.Contact{})
	if !errors.Is(err, diagnosis.ErrInvalidAnswer) {
		t.Fatalf("expected ErrInvalidAnswer, got %v", err)
	}
	if len(f.events.subjects) != 0 {
		t.Error("expected no event for a rejected submission")
	}
}

func TestSubmit_NotifiesLead(t *testing.T) {
	f := newFixture(t)
	leads := &fakeLeads{posted: make(chan string, 1)}
	f.a.leads = leads

	st, err := f.a.Submit(context.Background(), answers(), diagnosis.Contact{Email: "a@example.com"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case id := <-leads.posted:
		if id != st.ID.String() {
			t.Errorf("lead for %s, want %s", id, st.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("lead was not posted")
	}
}

func TestGenerateNarrative(t *testing.T) {
	f := newFixture(t)
	st := submit(t, f)

	got, err := f.a.GenerateNarrative(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Narrative != "Generated advice." {
		t.Errorf("narrative = %q", got.Narrative)
	}

	m, _ := f.a.Report(context.Background(), st.ID)
	if m.Narrative != "Generated advice." {
		t.Errorf("report narrative = %q", m.Narrative)
	}
}

func TestGenerateNarrative_FailureKeepsState(t *testing.T) {
	f := newFixture(t)
	st := submit(t, f)
	f.a.SetNarrative(context.Background(), st.ID, "Earlier advice.")

	f.narrator.err = fmt.Errorf("%w: remote down", narrative.ErrUnavailable)
	got, err := f.a.GenerateNarrative(context.Background(), st.ID)
	if !errors.Is(err, narrative.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got == nil || got.Narrative != "Earlier advice." {
		t.Errorf("expected unchanged state, got %+v", got)
	}

	stored, _ := f.a.Get(context.Background(), st.ID)
	if stored.Narrative != "Earlier advice." || stored.Result.Overall != st.Result.Overall {
		t.Errorf("stored state changed after failure: %+v", stored)
	}
}

func TestClearNarrative_FallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	st := submit(t, f)
	ctx := context.Background()

	f.a.GenerateNarrative(ctx, st.ID)
	if _, err := f.a.ClearNarrative(ctx, st.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}

	m, err := f.a.Report(ctx, st.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if m.Narrative != diagnosis.ArchetypeDataDisconnect.DefaultText() {
		t.Errorf("expected default text, got %q", m.Narrative)
	}
}

func TestRenderReport(t *testing.T) {
	f := newFixture(t)
	st := submit(t, f)

	doc, err := f.a.RenderReport(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(doc.Bytes) == 0 || doc.Filename == "" {
		t.Errorf("unexpected document %q (%d bytes)", doc.Filename, len(doc.Bytes))
	}
}

func TestLogFile(t *testing.T) {
	f := newFixture(t)
	st := submit(t, f)
	f.a.SetNarrative(context.Background(), st.ID, "Logged advice.")

	row, err := f.a.LogFile(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(f.file.rows) != 1 || len(f.remote.rows) != 0 {
		t.Fatalf("expected one file row and no remote rows, got %d/%d", len(f.file.rows), len(f.remote.rows))
	}
	if row.Get("narrative") != "Logged advice." || row.Get("dx_avg") != "2.00" {
		t.Errorf("unexpected row %v", row.Map())
	}
	if row.Get("timestamp") != "2025-10-01T09:00:00+09:00" {
		t.Errorf("timestamp = %s", row.Get("timestamp"))
	}
}

func TestLogRemote_FailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	st := submit(t, f)
	f.remote.err = fmt.Errorf("%w: connection refused", responselog.ErrAppendFailed)

	_, err := f.a.LogRemote(context.Background(), st.ID)
	if !errors.Is(err, responselog.ErrAppendFailed) {
		t.Fatalf("expected ErrAppendFailed, got %v", err)
	}

	if _, err := f.a.RenderReport(context.Background(), st.ID); err != nil {
		t.Errorf("report should still render after log failure: %v", err)
	}

	f.remote.err = nil
	if _, err := f.a.LogRemote(context.Background(), st.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(f.remote.rows) != 1 {
		t.Errorf("expected one row after retry, got %d", len(f.remote.rows))
	}
}

func TestLog_NotConfigured(t *testing.T) {
	f := newFixture(t)
	f.a.remote = nil
	st := submit(t, f)

	if _, err := f.a.LogRemote(context.Background(), st.ID); !errors.Is(err, ErrStoreNotConfigured) {
		t.Fatalf("expected ErrStoreNotConfigured, got %v", err)
	}
	remote, file := f.a.Stores()
	if remote || !file {
		t.Errorf("Stores() = %v, %v", remote, file)
	}
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	ctx := context.Background()

	if _, err := f.a.Get(ctx, id); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := f.a.GenerateNarrative(ctx, id); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("GenerateNarrative: expected ErrNotFound, got %v", err)
	}
	if _, err := f.a.LogFile(ctx, id); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("LogFile: expected ErrNotFound, got %v", err)
	}
}
