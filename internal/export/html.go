// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/gemstudio-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page with
// embedded CSS and syntax-highlighted code blocks.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a conversation to HTML format.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(conv.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"gemstudio-tui\">\n")
	if !conv.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339)))
	}
	sb.WriteString(e.getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.options.Theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(conv))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for i := range conv.Messages {
		sb.WriteString(e.renderMessage(&conv.Messages[i]))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>gemstudio</strong> on %s</p>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(conv *model.Conversation) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(conv.Title)))
	sb.WriteString("            <div class=\"metadata\">\n")
	if !conv.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(conv.CreatedAt)))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(conv.Messages)))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg *model.Message) string {
	var sb strings.Builder

	roleClass := strings.ToLower(string(msg.Role))
	sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", roleClass))

	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s</span>\n", html.EscapeString(msg.Role.DisplayName())))
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")

	if msg.IsUser() && len(msg.Files) > 0 {
		sb.WriteString("                    <div class=\"attachments\">\n")
		for _, f := range msg.Files {
			sb.WriteString(fmt.Sprintf("                        <span class=\"attachment\">%s</span>\n", html.EscapeString(f.OriginalName)))
		}
		sb.WriteString("                    </div>\n")
	}

	if e.options.IncludeThinking && msg.Thinking != "" {
		sb.WriteString("                    <details class=\"thinking\"><summary>Reasoning</summary>\n")
		sb.WriteString(fmt.Sprintf("                        <pre>%s</pre>\n", html.EscapeString(msg.Thinking)))
		sb.WriteString("                    </details>\n")
	}

	if msg.Text != "" {
		sb.WriteString(e.formatContent(msg.Text))
	}

	if msg.Image != "" {
		src := resolveImagePath(e.options.BaseURL, msg.Image)
		sb.WriteString(fmt.Sprintf("                    <img class=\"generated\" src=\"%s\" alt=\"%s\">\n",
			html.EscapeString(src), html.EscapeString(filepath.Base(msg.Image))))
	}

	if g := msg.Grounding; !g.IsEmpty() {
		sb.WriteString(e.renderGrounding(g))
	}

	if msg.Error != "" {
		sb.WriteString(fmt.Sprintf("                    <div class=\"error\">%s</div>\n", html.EscapeString(msg.Error)))
	}

	sb.WriteString("                </div>\n")
	sb.WriteString("            </div>\n")

	return sb.String()
}

func (e *HTMLExporter) renderGrounding(g *model.Grounding) string {
	var sb strings.Builder
	sb.WriteString("                    <div class=\"grounding\">\n")
	sb.WriteString("                        <span class=\"grounding-label\">Grounded via web search</span>\n")
	if len(g.SearchQueries) > 0 {
		sb.WriteString(fmt.Sprintf("                        <div class=\"queries\">%s</div>\n",
			html.EscapeString(strings.Join(g.SearchQueries, ", "))))
	}
	if len(g.Sources) > 0 {
		sb.WriteString("                        <ul class=\"sources\">\n")
		for _, src := range g.Sources {
			title := src.Title
			if title == "" {
				title = src.URI
			}
			sb.WriteString(fmt.Sprintf("                            <li><a href=\"%s\">%s</a></li>\n",
				html.EscapeString(src.URI), html.EscapeString(title)))
		}
		sb.WriteString("                        </ul>\n")
	}
	sb.WriteString("                    </div>\n")
	return sb.String()
}

// =============================================================================
// CONTENT FORMATTING
// =============================================================================

var codeBlockRegex = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")

// formatContent formats message text, running fenced code blocks through
// chroma and escaping everything else.
func (e *HTMLExporter) formatContent(content string) string {
	var sb strings.Builder
	last := 0

	for _, loc := range codeBlockRegex.FindAllStringSubmatchIndex(content, -1) {
		sb.WriteString(e.formatProse(content[last:loc[0]]))
		lang := content[loc[2]:loc[3]]
		code := content[loc[4]:loc[5]]
		sb.WriteString(e.highlightCode(lang, code))
		last = loc[1]
	}
	sb.WriteString(e.formatProse(content[last:]))

	return sb.String()
}

func (e *HTMLExporter) formatProse(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var sb strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		sb.WriteString("                    <p>")
		sb.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		sb.WriteString("</p>\n")
	}
	return sb.String()
}

// highlightCode renders a fenced code block with chroma. Unknown languages
// fall back to plain text.
func (e *HTMLExporter) highlightCode(lang, code string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "github-dark"
	if e.options.Theme == "light" {
		styleName = "github"
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fmt.Sprintf("                    <pre><code>%s</code></pre>\n", html.EscapeString(code))
	}

	formatter := chromahtml.New(chromahtml.WithClasses(false))
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return fmt.Sprintf("                    <pre><code>%s</code></pre>\n", html.EscapeString(code))
	}

	var sb strings.Builder
	sb.WriteString("                    <div class=\"code-block\">\n")
	if lang != "" {
		sb.WriteString(fmt.Sprintf("                        <div class=\"code-lang\">%s</div>\n", html.EscapeString(lang)))
	}
	sb.WriteString(buf.String())
	sb.WriteString("\n                    </div>\n")
	return sb.String()
}

// =============================================================================
// STYLES
// =============================================================================

func (e *HTMLExporter) getCSS() string {
	return `    <style>
        :root {
            --bg: #ffffff; --fg: #1f2328; --muted: #656d76;
            --user-bg: #ddf4ff; --assistant-bg: #f6f8fa;
            --border: #d0d7de; --error: #cf222e; --link: #0969da;
        }
        .dark-theme {
            --bg: #0d1117; --fg: #e6edf3; --muted: #8b949e;
            --user-bg: #0c2d6b; --assistant-bg: #161b22;
            --border: #30363d; --error: #f85149; --link: #58a6ff;
        }
        body { background: var(--bg); color: var(--fg); font-family: -apple-system, "Segoe UI", sans-serif; margin: 0; }
        .container { max-width: 860px; margin: 0 auto; padding: 2rem 1rem; }
        .header h1 { margin-bottom: 0.25rem; }
        .metadata { color: var(--muted); font-size: 0.875rem; }
        .meta-item { margin-right: 1rem; }
        .message { border: 1px solid var(--border); border-radius: 8px; margin: 1rem 0; overflow: hidden; }
        .user-message .message-header { background: var(--user-bg); }
        .assistant-message .message-header { background: var(--assistant-bg); }
        .message-header { padding: 0.5rem 1rem; font-weight: 600; font-size: 0.875rem; }
        .message-content { padding: 0.75rem 1rem; }
        .attachments { font-size: 0.8rem; color: var(--muted); margin-bottom: 0.5rem; }
        .attachment { border: 1px solid var(--border); border-radius: 4px; padding: 0.1rem 0.4rem; margin-right: 0.4rem; }
        .thinking summary { cursor: pointer; color: var(--muted); font-size: 0.875rem; }
        .thinking pre { white-space: pre-wrap; color: var(--muted); font-size: 0.8125rem; }
        img.generated { max-width: 100%; border-radius: 6px; margin-top: 0.5rem; }
        .grounding { border-top: 1px dashed var(--border); margin-top: 0.75rem; padding-top: 0.5rem; font-size: 0.8125rem; }
        .grounding-label { color: var(--muted); font-weight: 600; }
        .sources a { color: var(--link); }
        .error { color: var(--error); font-size: 0.875rem; margin-top: 0.5rem; }
        .code-block { margin: 0.5rem 0; }
        .code-lang { color: var(--muted); font-size: 0.75rem; text-transform: uppercase; margin-bottom: 0.2rem; }
        .code-block pre { padding: 0.75rem; border-radius: 6px; overflow-x: auto; }
        .footer { color: var(--muted); font-size: 0.8125rem; text-align: center; margin-top: 2rem; }
    </style>
`
}
