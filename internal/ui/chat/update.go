// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemstudio-tui/internal/model"
	"github.com/jeranaias/gemstudio-tui/internal/ui/components"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)

	case BootstrapMsg:
		return m.handleBootstrap(msg)

	case FrameMsg:
		return m.handleFrame(msg)
	case StreamTickMsg:
		return m.handleStreamTick()
	case StreamClosedMsg:
		return m.handleStreamClosed(msg)

	case ConversationCreatedMsg:
		return m.handleConversationCreated(msg)
	case ConversationsRefreshedMsg:
		if msg.Err != nil {
			m.toasts.AddError("refresh failed: " + msg.Err.Error())
		}
		m.refreshViewport()
		return m, nil
	case ConversationDeletedMsg:
		if msg.Err != nil {
			m.toasts.AddError("delete failed: " + msg.Err.Error())
		}
		m.refreshViewport()
		return m, nil
	case ConversationRenamedMsg:
		if msg.Err != nil {
			m.toasts.AddError("rename failed: " + msg.Err.Error())
		}
		return m, nil
	case MessageDeletedMsg:
		if msg.Err != nil {
			m.toasts.AddError("delete failed: " + msg.Err.Error())
		}
		m.refreshViewport()
		return m, nil
	case RetryReadyMsg:
		return m.handleRetryReady(msg)

	case UploadCompleteMsg:
		if msg.Err != nil {
			m.toasts.AddError("upload failed: " + msg.Err.Error())
			return m, nil
		}
		m.composer.Attach(msg.Ref)
		m.toasts.AddSuccess("attached " + msg.Ref.Filename)
		return m, nil

	case CommitDoneMsg:
		if msg.Err != nil {
			m.toasts.AddError("save failed: " + msg.Err.Error())
		}
		m.refreshViewport()
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReload(msg)

	case ExportDoneMsg:
		if msg.Err != nil {
			m.toasts.AddError("export failed: " + msg.Err.Error())
		} else {
			m.toasts.AddSuccess("exported to " + msg.Path)
		}
		return m, nil

	case components.ToastTickMsg:
		m.activeToasts = m.toasts.Tick()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateComponents(msg)
}

// updateComponents forwards unhandled messages to the focused widgets.
func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	chatW := m.chatWidth()
	vpHeight := m.viewportHeight()
	if !m.ready {
		m.viewport = viewport.New(chatW, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatW
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(chatW - 2)
	m.rebuildRenderer(chatW - 4)
	m.refreshViewport()
	return m, nil
}

// viewportHeight is the terminal height minus header, input, status bar
// and, when attachments are staged, the attachment strip.
func (m *Model) viewportHeight() int {
	h := m.height - 1 - m.textarea.Height() - 1 - 1
	if len(m.composer.Files()) > 0 {
		h--
	}
	if h < 3 {
		h = 3
	}
	return h
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.current != nil {
			m.current.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.generating && m.current != nil {
			m.current.cancel()
			m.toasts.AddStatus("cancelling...")
		}
		return m, nil

	case key.Matches(msg, m.keys.Send):
		return m.handleSend()

	case key.Matches(msg, m.keys.NewConv):
		if m.generating {
			return m, nil
		}
		return m, m.createConversationCmd()

	case key.Matches(msg, m.keys.NextConv):
		m.selectAdjacent(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevConv):
		m.selectAdjacent(-1)
		return m, nil

	case key.Matches(msg, m.keys.CycleMode):
		m.cycleMode()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	return m.updateComponents(msg)
}

// selectAdjacent moves the active conversation up or down the sidebar.
// Switching away mid-generation is blocked.
func (m *Model) selectAdjacent(delta int) {
	if m.generating {
		return
	}
	convs := m.store.Conversations()
	if len(convs) == 0 {
		return
	}
	active := m.store.ActiveID()
	idx := 0
	for i, c := range convs {
		if c.ID == active {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = len(convs) - 1
	} else if idx >= len(convs) {
		idx = 0
	}
	// A real switch discards the unsent attachment draft; staged files
	// belong to the conversation they were attached in.
	if m.store.Select(convs[idx].ID) {
		m.composer.Clear()
	}
	m.refreshViewport()
}

// cycleMode advances to the next generation mode in display order.
func (m *Model) cycleMode() {
	cur := m.composer.Mode().ID
	for i, mode := range model.Modes {
		if mode.ID == cur {
			next := model.Modes[(i+1)%len(model.Modes)]
			m.composer.SetMode(next.ID)
			break
		}
	}
	m.textarea.Placeholder = m.composer.Placeholder()
}

// =============================================================================
// SEND
// =============================================================================

func (m Model) handleSend() (tea.Model, tea.Cmd) {
	if m.generating {
		return m, nil
	}
	text := strings.TrimSpace(m.textarea.Value())

	if strings.HasPrefix(text, "/") {
		m.textarea.Reset()
		return m.handleCommand(text)
	}

	if verr := m.composer.Validate(text); verr != nil {
		m.toasts.AddError(verr.Reason)
		if verr.ModeReverted {
			m.textarea.Placeholder = m.composer.Placeholder()
			m.toasts.AddStatus("switched back to generate mode")
		}
		return m, nil
	}

	files := m.composer.TakeFiles()
	m.textarea.Reset()

	if m.store.Active() == nil {
		// No conversation yet: create one, then resume the send.
		m.pendingPrompt = text
		m.pendingFiles = files
		return m, m.createConversationCmd()
	}
	return m, m.beginGeneration(text, files)
}

// beginGeneration records the provisional user message and starts the
// stream. The request history is built before the new prompt is added,
// so context memory covers prior exchanges only.
func (m *Model) beginGeneration(prompt string, files []model.FileRef) tea.Cmd {
	req := m.buildRequest(prompt, files)
	user := model.NewUserMessage(prompt, string(m.composer.Mode().ID), files)
	m.pendingUser = &user
	cmd := m.startStream(req)
	m.refreshViewport()
	m.viewport.GotoBottom()
	return cmd
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "/help":
		m.toasts.AddStatus("commands: /new /rename /delete /delmsg /retry /edit-last /mode /edittype /attach /detach /ratio /size /context /text /thinking /export /quit")
		return m, nil

	case "/quit":
		return m, tea.Quit

	case "/new":
		return m, m.createConversationCmd()

	case "/rename":
		if len(args) == 0 {
			m.toasts.AddError("usage: /rename <title>")
			return m, nil
		}
		id := m.store.ActiveID()
		if id == "" {
			m.toasts.AddError("no active conversation")
			return m, nil
		}
		return m, m.renameConversationCmd(id, strings.Join(args, " "))

	case "/delete":
		id := m.store.ActiveID()
		if id == "" {
			m.toasts.AddError("no active conversation")
			return m, nil
		}
		return m, m.deleteConversationCmd(id)

	case "/retry":
		id := m.store.ActiveID()
		if id == "" {
			m.toasts.AddError("no active conversation")
			return m, nil
		}
		idx := -1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				m.toasts.AddError("usage: /retry [index]")
				return m, nil
			}
			idx = n
		} else {
			idx = m.lastUserIndex()
		}
		if idx < 0 {
			m.toasts.AddError("nothing to retry")
			return m, nil
		}
		return m, m.retryCmd(id, idx)

	case "/edit-last":
		img := m.lastGeneratedImage()
		if img == "" {
			m.toasts.AddError("no generated image to edit")
			return m, nil
		}
		m.composer.SetMode(model.ModeEdit)
		m.textarea.Placeholder = m.composer.Placeholder()
		name := filepath.Base(img)
		m.composer.Attach(model.FileRef{
			Filename:     name,
			OriginalName: name,
			MimeType:     "image/png",
			Path:         img,
		})
		m.toasts.AddSuccess("image attached; describe the edit")
		return m, nil

	case "/delmsg":
		if len(args) != 1 {
			m.toasts.AddError("usage: /delmsg <index>")
			return m, nil
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			m.toasts.AddError("usage: /delmsg <index>")
			return m, nil
		}
		id := m.store.ActiveID()
		if id == "" {
			m.toasts.AddError("no active conversation")
			return m, nil
		}
		return m, m.deleteMessageCmd(id, idx)

	case "/mode":
		if len(args) != 1 {
			m.toasts.AddError("usage: /mode standard|search|edit")
			return m, nil
		}
		if !m.composer.SetMode(model.ModeID(args[0])) {
			m.toasts.AddError("unknown mode: " + args[0])
			return m, nil
		}
		m.textarea.Placeholder = m.composer.Placeholder()
		m.toasts.AddStatus("mode: " + args[0])
		return m, nil

	case "/edittype":
		if len(args) != 1 {
			m.toasts.AddError("usage: /edittype " + strings.Join(model.EditTypes, "|"))
			return m, nil
		}
		if !m.composer.SetEditType(args[0]) {
			m.toasts.AddError("unknown edit type: " + args[0])
			return m, nil
		}
		m.toasts.AddStatus("edit type: " + args[0])
		return m, nil

	case "/attach":
		if len(args) == 0 {
			m.toasts.AddError("usage: /attach <path>")
			return m, nil
		}
		m.toasts.AddStatus("uploading " + args[0] + "...")
		return m, m.uploadCmd(strings.Join(args, " "))

	case "/detach":
		if len(args) != 1 {
			m.toasts.AddError("usage: /detach <number>")
			return m, nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			m.toasts.AddError("usage: /detach <number>")
			return m, nil
		}
		m.composer.RemoveAt(n - 1)
		return m, nil

	case "/ratio":
		if len(args) != 1 {
			m.toasts.AddError("usage: /ratio <aspect>  e.g. /ratio 16:9")
			return m, nil
		}
		if !m.acceptOption(args[0], m.optionRatios()) {
			m.toasts.AddError("unsupported aspect ratio: " + args[0])
			return m, nil
		}
		m.aspectRatio = args[0]
		m.toasts.AddStatus("aspect ratio: " + args[0])
		return m, nil

	case "/size":
		if len(args) != 1 {
			m.toasts.AddError("usage: /size <size>  e.g. /size 2K")
			return m, nil
		}
		if !m.acceptOption(args[0], m.optionSizes()) {
			m.toasts.AddError("unsupported image size: " + args[0])
			return m, nil
		}
		m.imageSize = args[0]
		m.toasts.AddStatus("image size: " + args[0])
		return m, nil

	case "/context":
		m.contextMemory = toggleArg(args, m.contextMemory)
		m.toasts.AddStatus("context memory: " + onOff(m.contextMemory))
		return m, nil

	case "/text":
		m.includeText = toggleArg(args, m.includeText)
		m.toasts.AddStatus("text in replies: " + onOff(m.includeText))
		return m, nil

	case "/thinking":
		m.showThinking = toggleArg(args, m.showThinking)
		m.refreshViewport()
		m.toasts.AddStatus("thinking panels: " + onOff(m.showThinking))
		return m, nil

	case "/export":
		format := "markdown"
		if len(args) > 0 {
			format = args[0]
		}
		if m.store.Active() == nil {
			m.toasts.AddError("no active conversation")
			return m, nil
		}
		return m, m.exportCmd(format)
	}

	m.toasts.AddError("unknown command: " + cmd)
	return m, nil
}

// lastUserIndex finds the most recent user message in the active
// conversation, or -1 when there is none.
func (m *Model) lastUserIndex() int {
	conv := m.store.Active()
	if conv == nil {
		return -1
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].IsUser() {
			return i
		}
	}
	return -1
}

// lastGeneratedImage finds the path of the most recent assistant image in
// the active conversation, or "" when there is none.
func (m *Model) lastGeneratedImage() string {
	conv := m.store.Active()
	if conv == nil {
		return ""
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		msg := conv.Messages[i]
		if !msg.IsUser() && msg.Image != "" {
			return msg.Image
		}
	}
	return ""
}

// acceptOption checks a value against a server-advertised list; an empty
// list (options not fetched) accepts anything.
func (m *Model) acceptOption(v string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

func (m *Model) optionRatios() []string {
	if m.options == nil {
		return nil
	}
	return m.options.AspectRatios
}

func (m *Model) optionSizes() []string {
	if m.options == nil {
		return nil
	}
	return m.options.ImageSizes
}

// toggleArg interprets an optional on/off argument; no argument flips.
func toggleArg(args []string, current bool) bool {
	if len(args) == 0 {
		return !current
	}
	switch args[0] {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}
	return !current
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// =============================================================================
// BOOTSTRAP / CONFIG
// =============================================================================

func (m Model) handleBootstrap(msg BootstrapMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.toasts.AddError("cannot reach server: " + msg.Err.Error())
		return m, nil
	}
	m.options = msg.Options
	m.refreshViewport()
	return m, nil
}

func (m Model) handleConversationCreated(msg ConversationCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.pendingPrompt = ""
		m.pendingFiles = nil
		m.toasts.AddError("create failed: " + msg.Err.Error())
		return m, nil
	}
	m.refreshViewport()
	if m.pendingPrompt != "" {
		prompt, files := m.pendingPrompt, m.pendingFiles
		m.pendingPrompt = ""
		m.pendingFiles = nil
		return m, m.beginGeneration(prompt, files)
	}
	return m, nil
}

// handleRetryReady re-sends the exchange a retry removed: same prompt,
// same files, same mode.
func (m Model) handleRetryReady(msg RetryReadyMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.toasts.AddError("retry failed: " + msg.Err.Error())
		return m, nil
	}
	if m.generating {
		m.toasts.AddError("already generating")
		return m, nil
	}
	m.composer.SetMode(model.ModeID(msg.Message.Mode))
	m.textarea.Placeholder = m.composer.Placeholder()
	return m, m.beginGeneration(msg.Message.Text, msg.Message.Files)
}

func (m Model) handleConfigReload(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	m.cfg = msg.Config
	m.aspectRatio = msg.Config.Generation.AspectRatio
	m.imageSize = msg.Config.Generation.ImageSize
	m.includeText = msg.Config.Generation.IncludeText
	m.contextMemory = msg.Config.Generation.ContextMemory
	m.showThinking = msg.Config.UI.ShowThinking
	m.refreshViewport()
	m.toasts.AddStatus("configuration reloaded")
	return m, nil
}

// =============================================================================
// STREAMING
// =============================================================================

func (m Model) handleFrame(msg FrameMsg) (tea.Model, tea.Cmd) {
	if m.current == nil || msg.Seq != m.current.seq {
		return m, nil
	}
	m.asm.Apply(msg.Frame)
	m.gate.Mark()
	return m, m.current.listen()
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if !m.generating {
		return m, nil
	}
	if m.gate.ShouldRender() {
		atBottom := m.viewport.AtBottom()
		m.refreshViewport()
		if atBottom {
			m.viewport.GotoBottom()
		}
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamClosed(msg StreamClosedMsg) (tea.Model, tea.Cmd) {
	if m.current == nil || msg.Seq != m.current.seq {
		return m, nil
	}
	if msg.Err != nil && !m.asm.Failed() {
		m.asm.Fail(msg.Err)
	}

	final := m.asm.Finalize()
	m.generating = false
	m.current = nil
	m.gate.Force()

	if final.Failed() {
		m.toasts.AddError(final.Error)
	}

	convID := m.store.ActiveID()
	user := m.pendingUser
	m.pendingUser = nil
	m.refreshViewport()
	m.viewport.GotoBottom()

	if convID == "" || user == nil {
		m.toasts.AddError("finished exchange had no conversation to save to")
		return m, nil
	}
	return m, m.commitCmd(convID, []model.Message{*user, final}, user.Text)
}
