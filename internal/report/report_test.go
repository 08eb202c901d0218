package report

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/shindan/internal/diagnosis"
)

var jst = time.FixedZone("UTC+9", 9*60*60)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleResult(company string) diagnosis.Result {
	means := diagnosis.Means{3, 2, 4.5, 1.5, 3}
	signal, archetype := diagnosis.Classify(means)
	return diagnosis.Result{
		Categories:  means.Scores(),
		Overall:     means.Overall(),
		Signal:      signal,
		Archetype:   archetype,
		Company:     company,
		SubmittedAt: time.Date(2025, 10, 1, 23, 45, 0, 0, time.UTC),
	}
}

var testOptions = Options{Location: jst, CTAURL: "https://example.com/spot/"}

func TestCompose_Metadata(t *testing.T) {
	m := Compose(sampleResult("Acme Works"), "", testOptions)

	if m.Company != "Acme Works" {
		t.Errorf("company = %q", m.Company)
	}
	if m.Timestamp != "2025-10-02 08:45" {
		t.Errorf("timestamp = %q, want local time 2025-10-02 08:45", m.Timestamp)
	}
	if m.Signal != "Yellow signal" {
		t.Errorf("signal = %q", m.Signal)
	}
	if m.Archetype != string(diagnosis.ArchetypeVariabilityFragile) {
		t.Errorf("archetype = %q", m.Archetype)
	}
	if m.CTA.URL != "https://example.com/spot/" {
		t.Errorf("cta = %+v", m.CTA)
	}
	if m.Filename != "VC_diagnosis_Acme_Works_20251002_0845.pdf" {
		t.Errorf("filename = %q", m.Filename)
	}
}

func TestCompose_CompanyPlaceholder(t *testing.T) {
	m := Compose(sampleResult("  "), "", testOptions)
	if m.Company != companyPlaceholder {
		t.Errorf("company = %q, want placeholder", m.Company)
	}
	if m.Filename != "VC_diagnosis_anonymous_20251002_0845.pdf" {
		t.Errorf("filename = %q", m.Filename)
	}
}

func TestCompose_NarrativeFallback(t *testing.T) {
	res := sampleResult("")
	want := res.Archetype.DefaultText()

	for _, override := range []string{"", "   \n"} {
		if got := Compose(res, override, testOptions).Narrative; got != want {
			t.Errorf("override %q: narrative = %q, want default text", override, got)
		}
	}

	if got := Compose(res, "Tailored advice.", testOptions).Narrative; got != "Tailored advice." {
		t.Errorf("expected override, got %q", got)
	}
}

func TestCompose_ChartSortedTableCanonical(t *testing.T) {
	res := sampleResult("")
	m := Compose(res, "", testOptions)

	for i, row := range m.Table {
		if row.Category != diagnosis.Categories[i] {
			t.Errorf("table[%d] = %s, want %s", i, row.Category, diagnosis.Categories[i])
		}
	}
	if m.Table[2].Display != "4.50" {
		t.Errorf("expected 2-decimal display, got %q", m.Table[2].Display)
	}

	for i := 1; i < len(m.Chart); i++ {
		if m.Chart[i-1].Score > m.Chart[i].Score {
			t.Fatalf("chart not ascending: %+v", m.Chart)
		}
	}
	if m.Chart[0].Category != diagnosis.Planning {
		t.Errorf("expected planning lowest, got %s", m.Chart[0].Category)
	}
	// Inventory and Data tie at 3.0; canonical order is kept.
	if m.Chart[2].Category != diagnosis.Inventory || m.Chart[3].Category != diagnosis.Data {
		t.Errorf("tie order not stable: %+v", m.Chart)
	}

	for i, cs := range res.Categories {
		if cs.Category != diagnosis.Categories[i] {
			t.Fatal("Compose reordered the result's categories")
		}
	}
}

func TestFilename_Sanitizes(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)
	got := Filename("A/B:C", at)
	if got != "VC_diagnosis_A_B_C_20250102_0304.pdf" {
		t.Errorf("filename = %q", got)
	}
}

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: 120, B: 120, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "logo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRender_FullDocument(t *testing.T) {
	logo := writeTestPNG(t, 400, 100)
	r := NewPDFRenderer("", logo, discardLogger())

	doc, err := r.Render(Compose(sampleResult("Acme"), "", testOptions))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(doc.Bytes, []byte("%PDF-")) {
		t.Errorf("expected PDF header, got %q", doc.Bytes[:8])
	}
	if len(doc.Degraded) != 0 {
		t.Errorf("expected no degradation, got %v", doc.Degraded)
	}
	if doc.Filename != "VC_diagnosis_Acme_20251002_0845.pdf" {
		t.Errorf("filename = %q", doc.Filename)
	}
}

func degradedArtifacts(doc Document) map[string]bool {
	out := map[string]bool{}
	for _, d := range doc.Degraded {
		out[d.Artifact] = true
	}
	return out
}

func TestRender_MissingLogoAndFontDegrade(t *testing.T) {
	dir := t.TempDir()
	r := NewPDFRenderer(filepath.Join(dir, "missing.ttf"), filepath.Join(dir, "missing.png"), discardLogger())

	doc, err := r.Render(Compose(sampleResult(""), "", testOptions))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Bytes) == 0 {
		t.Fatal("expected a document despite missing assets")
	}
	got := degradedArtifacts(doc)
	if !got[ArtifactLogo] || !got[ArtifactFont] {
		t.Errorf("expected logo and font degradation, got %v", doc.Degraded)
	}
	for _, d := range doc.Degraded {
		if !errors.Is(d, ErrArtifactDegraded) {
			t.Errorf("degradation %v does not match ErrArtifactDegraded", d)
		}
	}
}

func TestRender_CorruptLogoDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	os.WriteFile(path, []byte("not a png"), 0o644)

	doc, err := NewPDFRenderer("", path, discardLogger()).Render(Compose(sampleResult(""), "", testOptions))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !degradedArtifacts(doc)[ArtifactLogo] {
		t.Errorf("expected logo degradation, got %v", doc.Degraded)
	}
}

func TestRender_EmptyCTAOmitsQR(t *testing.T) {
	m := Compose(sampleResult(""), "", Options{Location: jst})

	doc, err := NewPDFRenderer("", "", discardLogger()).Render(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := degradedArtifacts(doc)
	if !got[ArtifactQR] || len(got) != 1 {
		t.Errorf("expected only qr degradation, got %v", doc.Degraded)
	}
}

func TestRender_BadChartOmitsChart(t *testing.T) {
	m := Compose(sampleResult(""), "", testOptions)
	m.Chart[0].Score = 7

	doc, err := NewPDFRenderer("", "", discardLogger()).Render(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := degradedArtifacts(doc)
	if !got[ArtifactChart] || len(got) != 1 {
		t.Errorf("expected only chart degradation, got %v", doc.Degraded)
	}
}
