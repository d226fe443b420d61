package extract

import (
	"strings"
	"testing"
)

func TestPlainTextSupports(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"notes.txt", true},
		{"README.md", true},
		{"DECK.MD", true},
		{"pitch.pdf", false},
		{"archive.tar.gz", false},
		{"noextension", false},
	}
	for _, tt := range tests {
		if got := (PlainText{}).Supports(tt.filename); got != tt.want {
			t.Errorf("Supports(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestPlainTextExtractTxt(t *testing.T) {
	got, err := PlainText{}.Extract("notes.txt", []byte("raw text content"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "raw text content" {
		t.Errorf("Extract = %q", got)
	}
}

func TestPlainTextExtractMarkdownFlattens(t *testing.T) {
	src := []byte("# Acme\n\nBuilds **robots** for warehouses.")

	got, err := PlainText{}.Extract("deck.md", src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strings.Contains(got, "#") || strings.Contains(got, "**") {
		t.Errorf("Extract = %q, markdown syntax leaked through", got)
	}
	if !strings.Contains(got, "Acme") || !strings.Contains(got, "robots") {
		t.Errorf("Extract = %q, content lost", got)
	}
}

func TestChainPicksFirstSupporting(t *testing.T) {
	chain := Chain{PlainText{}}

	if !chain.Supports("a.txt") {
		t.Error("chain does not support .txt")
	}
	if chain.Supports("a.docx") {
		t.Error("chain claims to support .docx")
	}

	got, err := chain.Extract("a.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "hello" {
		t.Errorf("Extract = %q", got)
	}

	if _, err := chain.Extract("a.docx", nil); err == nil {
		t.Error("Extract succeeded for unsupported file")
	}
}
