package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/replaysheet/internal/model"
)

const testURL = "https://docs.qq.com/sheet/DUnRhbGVz"

// createTestExtraction creates a successful extraction with sample data.
func createTestExtraction() *model.Extraction {
	e := model.NewExtraction(testURL)
	e.DateExtracted = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.PageSize = 2048
	e.FragmentCount = 9
	e.ExcludedStyle = "g0"
	e.Table = &model.Table{
		Headers: []string{"名前", "Age"},
		Rows: [][]string{
			{"Alice", "30"},
			{"Bob", ""},
		},
	}
	e.Diagnostics = []model.Diagnostic{
		{Kind: model.DiagnosticIndexOutOfRange, Position: 4, Index: 99, Token: "99,10,20"},
	}
	return e
}

func createTestDiff() *DiffReport {
	older := &model.Table{
		Headers: []string{"Name", "Age"},
		Rows:    [][]string{{"Alice", "30"}, {"Bob", "41"}},
	}
	newer := &model.Table{
		Headers: []string{"Name", "Age"},
		Rows:    [][]string{{"Alice", "30"}, {"Carol", "25"}},
	}
	return NewDiffReport(testURL,
		SnapshotInfo{ID: 1, Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), RowCount: 2, ColumnCount: 2},
		SnapshotInfo{ID: 2, Timestamp: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), RowCount: 2, ColumnCount: 2},
		older, newer,
	)
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestExtraction()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"REPLAYSHEET EXTRACTION",
			testURL,
			"Fragments:      9",
			"Label Style:    g0 (removed)",
			"2 columns x 2 rows",
			"Status:         Complete",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("aligns wide characters in preview", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestExtraction()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// "名前" is four cells wide, so "Alice" fills the column exactly.
		if !strings.Contains(output, "  名前  | Age |") {
			t.Errorf("expected aligned header line:\n%s", output)
		}
		if !strings.Contains(output, "  Alice | 30  |") {
			t.Errorf("expected aligned data line:\n%s", output)
		}
	})

	t.Run("limits preview rows", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithPreviewRows(1)).Write(createTestExtraction()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "Bob") {
			t.Error("expected second row to be hidden")
		}
		if !strings.Contains(output, "... 1 more row(s)") {
			t.Error("expected hidden row count")
		}
	})

	t.Run("zero preview rows hides preview", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithPreviewRows(0)).Write(createTestExtraction()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "TABLE PREVIEW") {
			t.Error("expected no preview section")
		}
	})

	t.Run("verbose lists diagnostics", func(t *testing.T) {
		t.Parallel()

		var quiet, verbose bytes.Buffer
		e := createTestExtraction()
		if _, err := NewSimpleWriter(&quiet).Write(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := NewSimpleWriter(&verbose, WithVerbose(true)).Write(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(quiet.String(), "1 placement command(s)") {
			t.Error("expected diagnostic count")
		}
		if strings.Contains(quiet.String(), "99,10,20") {
			t.Error("expected diagnostic detail to be hidden without verbose")
		}
		if !strings.Contains(verbose.String(), e.Diagnostics[0].String()) {
			t.Errorf("expected diagnostic detail in verbose output:\n%s", verbose.String())
		}
	})

	t.Run("failed extraction", func(t *testing.T) {
		t.Parallel()

		e := model.NewExtraction(testURL)
		e.SetError(errors.New("payload not found"))

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "ERROR - payload not found") {
			t.Errorf("expected error status:\n%s", buf.String())
		}
	})

	t.Run("returns bytes written", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestExtraction())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes, got %d", buf.Len(), n)
		}
	})

	t.Run("writes diff", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteDiff(createTestDiff()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"SNAPSHOT DIFF", "+ Carol | 25", "- Bob | 41", "Summary: +1  -1  =1"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("writes unchanged diff", func(t *testing.T) {
		t.Parallel()

		table := &model.Table{Headers: []string{"A"}, Rows: [][]string{{"1"}}}
		d := NewDiffReport(testURL, SnapshotInfo{ID: 1}, SnapshotInfo{ID: 2, RowCount: 1}, table, table)

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteDiff(d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No changes.") {
			t.Errorf("expected no changes message:\n%s", buf.String())
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("v1.2.3"))
		if _, err := w.Write(createTestExtraction()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Version    string `json:"version"`
			Status     string `json:"status"`
			Extraction struct {
				URL   string `json:"url"`
				Table struct {
					Headers []string   `json:"headers"`
					Rows    [][]string `json:"rows"`
				} `json:"table"`
				Diagnostics []map[string]any `json:"diagnostics"`
			} `json:"extraction"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Version != "v1.2.3" || got.Status != "Complete" {
			t.Errorf("unexpected version/status %q/%q", got.Version, got.Status)
		}
		if got.Extraction.URL != testURL || len(got.Extraction.Table.Rows) != 2 {
			t.Errorf("unexpected extraction %+v", got.Extraction)
		}
		if len(got.Extraction.Diagnostics) != 1 {
			t.Errorf("expected 1 diagnostic, got %d", len(got.Extraction.Diagnostics))
		}
	})

	t.Run("compact by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestExtraction()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected single-line output, got:\n%s", buf.String())
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestExtraction()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"status\"") {
			t.Errorf("expected indented output, got:\n%s", buf.String())
		}
	})

	t.Run("writes diff", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteDiff(createTestDiff()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got DiffReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.Changes.Added) != 1 || got.Changes.Added[0][0] != "Carol" {
			t.Errorf("unexpected added rows %v", got.Changes.Added)
		}
		if got.Previous.ID != 1 || got.Current.ID != 2 {
			t.Errorf("unexpected snapshot ids %d/%d", got.Previous.ID, got.Current.ID)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary and preview", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestExtraction()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# Sheet Extraction", "## Preview", "Alice", "Dropped commands (1)", "[!NOTE]"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("failed extraction uses caution alert", func(t *testing.T) {
		t.Parallel()

		e := model.NewExtraction(testURL)
		e.SetError(errors.New("HTTP 404"))

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!CAUTION]") {
			t.Errorf("expected caution alert:\n%s", buf.String())
		}
		if strings.Contains(buf.String(), "## Preview") {
			t.Error("expected no preview for failed extraction")
		}
	})

	t.Run("escapes pipes in cells", func(t *testing.T) {
		t.Parallel()

		e := createTestExtraction()
		e.Table.Rows[0][0] = "a|b"

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `\|b`) {
			t.Errorf("expected escaped pipe:\n%s", buf.String())
		}
	})

	t.Run("writes diff with chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteDiff(createTestDiff()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# Sheet Changes", "```mermaid", "## Added Rows", "Carol", "## Removed Rows", "Bob"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})
}

// failingWriter always fails.
type failingWriter struct{}

func (failingWriter) Write(*model.Extraction) (int, error) { return 0, errors.New("boom") }
func (failingWriter) WriteDiff(*DiffReport) (int, error)   { return 0, errors.New("boom") }

// TestMultiWriter tests writing to several writers at once.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))

		n, err := mw.Write(createTestExtraction())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != a.Len()+b.Len() {
			t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))

		if _, err := mw.WriteDiff(createTestDiff()); err == nil {
			t.Fatal("expected error")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})
}

func TestDiffReportUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		current, added, want int
	}{
		{current: 5, added: 2, want: 3},
		{current: 2, added: 2, want: 0},
		{current: 0, added: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%d", tt.current, tt.added), func(t *testing.T) {
			t.Parallel()

			d := &DiffReport{
				Current: SnapshotInfo{RowCount: tt.current},
				Changes: &model.TableDiff{Added: make([][]string, tt.added)},
			}
			if got := d.Unchanged(); got != tt.want {
				t.Errorf("Unchanged() = %d, want %d", got, tt.want)
			}
		})
	}
}
