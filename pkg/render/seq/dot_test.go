package seq

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/canvasnote/canvasnote/pkg/model"
)

func TestContentPreviewTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("λ", previewLen+8)
	got := contentPreview(long)
	if !utf8.ValidString(got) {
		t.Fatalf("preview is not valid UTF-8: %q", got)
	}
	if want := strings.Repeat("λ", previewLen) + "…"; got != want {
		t.Errorf("preview = %q, want %q", got, want)
	}
}

func TestContentPreviewFirstLineTrimmed(t *testing.T) {
	if got := contentPreview("  x = 1  \ny = 2"); got != "x = 1" {
		t.Errorf("preview = %q", got)
	}
	if got := contentPreview(""); got != "" {
		t.Errorf("empty preview = %q", got)
	}
}

func TestToDOTDetailedMultibyteLabels(t *testing.T) {
	order := 1
	d := model.Document{Cells: []model.Cell{{
		ID:             "c1",
		Type:           model.CellTypeCode,
		ExecutionOrder: &order,
		Content:        strings.Repeat("日", previewLen+20),
	}}}

	dot := ToDOT(&d, Options{Detailed: true})
	if !utf8.ValidString(dot) {
		t.Fatal("DOT output is not valid UTF-8")
	}
	if !strings.Contains(dot, strings.Repeat("日", previewLen)) {
		t.Error("detailed label must carry the rune-truncated preview")
	}
}
