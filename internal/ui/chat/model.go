// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/gemstudio-tui/internal/api"
	"github.com/jeranaias/gemstudio-tui/internal/assembler"
	"github.com/jeranaias/gemstudio-tui/internal/composer"
	"github.com/jeranaias/gemstudio-tui/internal/config"
	"github.com/jeranaias/gemstudio-tui/internal/model"
	"github.com/jeranaias/gemstudio-tui/internal/store"
	"github.com/jeranaias/gemstudio-tui/internal/ui/components"
	"github.com/jeranaias/gemstudio-tui/internal/ui/styles"
)

// sidebarWidth is the fixed width of the conversation list column.
const sidebarWidth = 28

// Model is the Bubble Tea model for the chat view.
type Model struct {
	cfg      *config.Config
	client   *api.Client
	store    *store.Store
	composer *composer.Composer
	keys     KeyMap
	theme    *styles.Theme

	// Components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	toasts       *components.ToastManager
	activeToasts []components.Toast

	// Server-advertised generation options
	options *api.Options

	// Session generation settings, seeded from config
	aspectRatio   string
	imageSize     string
	includeText   bool
	contextMemory bool
	showThinking  bool

	// Streaming state. generating gates sends: while a response is in
	// flight, another send is a no-op.
	asm         *assembler.Assembler
	current     *stream
	nextSeq     int
	gate        *RenderGate
	pendingUser *model.Message
	generating  bool

	// Deferred send: a prompt waiting on conversation creation.
	pendingPrompt string
	pendingFiles  []model.FileRef

	// Layout
	width  int
	height int
	ready  bool
}

// New creates the chat model. The store's commit hook (archive mirror)
// is expected to be wired by the caller.
func New(cfg *config.Config, client *api.Client, st *store.Store) Model {
	theme := styles.NewTheme()

	ta := textarea.New()
	ta.Placeholder = composer.New().Placeholder()
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		cfg:           cfg,
		client:        client,
		store:         st,
		composer:      composer.New(),
		keys:          DefaultKeyMap(),
		theme:         theme,
		textarea:      ta,
		spinner:       sp,
		toasts:        components.NewToastManager(),
		aspectRatio:   cfg.Generation.AspectRatio,
		imageSize:     cfg.Generation.ImageSize,
		includeText:   cfg.Generation.IncludeText,
		contextMemory: cfg.Generation.ContextMemory,
		showThinking:  cfg.UI.ShowThinking,
		asm:           assembler.New(),
		gate:          NewRenderGate(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.bootstrapCmd(),
		textarea.Blink,
		m.spinner.Tick,
		components.ToastTickCmd(),
	)
}

// rebuildRenderer recreates the glamour renderer for the current width.
func (m *Model) rebuildRenderer(width int) {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		m.renderer = r
	}
}

// renderMarkdown runs assistant text through glamour, falling back to the
// raw text when rendering fails.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

// chatWidth returns the width available to the message viewport.
func (m *Model) chatWidth() int {
	if m.theme.GetLayoutMode() == styles.LayoutWide {
		return m.width - sidebarWidth
	}
	return m.width
}
