// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/gemstudio-tui/internal/model"
)

func exportConversation() *model.Conversation {
	return &model.Conversation{
		ID:        "c1",
		Title:     "Harbor sunset",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC),
		Messages: []model.Message{
			{
				Role:  model.RoleUser,
				Text:  "paint a sunset",
				Files: []model.FileRef{{OriginalName: "ref.png", Filename: "u1.png"}},
			},
			{
				Role:     model.RoleAssistant,
				Text:     "Here it is.\n\n```python\nprint(\"hi\")\n```",
				Thinking: "warm colors",
				Image:    "/generated/out.png",
				Grounding: &model.Grounding{
					SearchQueries: []string{"sunset palettes"},
					Sources:       []model.Source{{URI: "https://example.com", Title: "Palettes"}},
				},
			},
		},
	}
}

func TestMarkdownExport(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeThinking = true
	opts.BaseURL = "http://localhost:5000"

	out, err := NewMarkdownExporter(opts).Export(exportConversation())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"# Harbor sunset",
		"[You]",
		"[Studio]",
		"Attached: `ref.png`",
		"warm colors",
		"![out.png](http://localhost:5000/generated/out.png)",
		"[Palettes](https://example.com)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExportSkipsThinkingByDefault(t *testing.T) {
	out, err := NewMarkdownExporter(DefaultOptions()).Export(exportConversation())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "warm colors") {
		t.Error("thinking leaked into export with IncludeThinking=false")
	}
}

func TestMarkdownExportEmptyConversation(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(&model.Conversation{ID: "c1", Title: "x"})
	if err == nil {
		t.Fatal("empty conversation should fail")
	}
	if _, err := NewMarkdownExporter(nil).Export(nil); err == nil {
		t.Fatal("nil conversation should fail")
	}
}

func TestJSONExportRoundTrip(t *testing.T) {
	conv := exportConversation()
	out, err := NewJSONExporter(nil).Export(conv)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var back model.Conversation
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("exported JSON not parseable: %v", err)
	}
	if back.ID != conv.ID || len(back.Messages) != len(conv.Messages) {
		t.Errorf("round trip lost data: %+v", back)
	}
	if back.Messages[1].Grounding.IsEmpty() {
		t.Error("grounding lost in JSON export")
	}
}

func TestHTMLExport(t *testing.T) {
	opts := DefaultOptions()
	opts.BaseURL = "http://localhost:5000"

	out, err := NewHTMLExporter(opts).Export(exportConversation())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	page := string(out)

	for _, want := range []string{
		"<title>Harbor sunset</title>",
		"src=\"http://localhost:5000/generated/out.png\"",
		"Grounded via web search",
		"class=\"code-lang\"",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("html missing %q", want)
		}
	}
	// The fenced block must come back highlighted, not raw.
	if strings.Contains(page, "```") {
		t.Error("code fence leaked into HTML output")
	}
}

func TestHTMLExportEscapesContent(t *testing.T) {
	conv := exportConversation()
	conv.Title = "<script>alert(1)</script>"
	conv.Messages[0].Text = "<img onerror=x>"

	out, err := NewHTMLExporter(nil).Export(conv)
	if err != nil {
		t.Fatal(err)
	}
	page := string(out)
	if strings.Contains(page, "<script>alert(1)</script>") {
		t.Error("title not escaped")
	}
	if strings.Contains(page, "<img onerror=x>") {
		t.Error("message text not escaped")
	}
}

func TestByFormat(t *testing.T) {
	cases := map[string]string{
		"markdown": ".md",
		"md":       ".md",
		"json":     ".json",
		"html":     ".html",
	}
	for format, ext := range cases {
		exp := ByFormat(format, nil)
		if exp == nil {
			t.Errorf("ByFormat(%q) = nil", format)
			continue
		}
		if exp.FileExtension() != ext {
			t.Errorf("ByFormat(%q).FileExtension() = %q, want %q", format, exp.FileExtension(), ext)
		}
	}
	if ByFormat("pdf", nil) != nil {
		t.Error("unknown format should return nil")
	}
}

func TestExportToFile(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ExportToFile(exportConversation(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("export to file: %v", err)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("path = %q, want .md suffix", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Harbor sunset") {
		t.Error("written file missing content")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Harbor sunset", "Harbor_sunset"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "conversation"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
