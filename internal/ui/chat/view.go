// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemstudio-tui/internal/ui/components"
	"github.com/jeranaias/gemstudio-tui/internal/ui/styles"
	"github.com/jeranaias/gemstudio-tui/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "starting gemstudio..."
	}

	var rows []string
	rows = append(rows, m.renderHeader())

	main := m.viewport.View()
	if m.theme.GetLayoutMode() == styles.LayoutWide {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), main)
	}
	rows = append(rows, main)

	if files := m.composer.Files(); len(files) > 0 {
		rows = append(rows, components.RenderAttachmentStrip(m.theme, files, m.chatWidth()))
	} else if m.composer.NeedsFileNudge() {
		rows = append(rows, m.theme.AttachNudge.Render("edit mode needs an image: /attach <path>"))
	}

	rows = append(rows, m.theme.InputContainer.Render(m.textarea.View()))
	rows = append(rows, m.renderStatusBar())

	view := lipgloss.JoinVertical(lipgloss.Left, rows...)

	if len(m.activeToasts) > 0 {
		// Height 0 keeps the stack inline below the status bar instead
		// of padding out a full-screen overlay.
		overlay := components.RenderToastStack(m.theme, m.activeToasts, m.width, 0)
		if overlay != "" {
			view = lipgloss.JoinVertical(lipgloss.Right, view, overlay)
		}
	}
	return view
}

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("gemstudio")
	title := ""
	if conv := m.store.Active(); conv != nil {
		title = m.theme.HeaderTitle.Render(util.TruncateWidth(conv.Title, m.width/2))
	}
	return m.theme.Header.Width(m.width).Render(brand + "  " + title)
}

// renderSidebar lists conversations newest-first, marking the active one.
func (m Model) renderSidebar() string {
	convs := m.store.Conversations()
	active := m.store.ActiveID()

	var lines []string
	for _, c := range convs {
		title := c.Title
		style := m.theme.SidebarItem
		if c.Untitled() {
			style = m.theme.SidebarItemUntitled
		}
		if c.ID == active {
			style = m.theme.SidebarItemActive
		}
		line := style.Render(util.TruncateWidth(title, sidebarWidth-4))
		meta := m.theme.SidebarMeta.Render(strconv.Itoa(c.MessageCount()))
		lines = append(lines, line+" "+meta)
	}
	if len(lines) == 0 {
		lines = append(lines, m.theme.SidebarMeta.Render("no conversations"))
	}

	return m.theme.Sidebar.
		Width(sidebarWidth).
		Height(m.viewport.Height).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatusBar() string {
	info := components.StatusInfo{
		Mode:          m.composer.Mode(),
		EditType:      m.composer.EditType(),
		AspectRatio:   m.aspectRatio,
		ImageSize:     m.imageSize,
		ContextMemory: m.contextMemory,
		Generating:    m.generating,
	}
	if m.generating {
		info.StreamStatus = m.spinner.View() + " " + m.asm.Status()
	}
	return components.RenderStatusBar(m.theme, info, m.width)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport rebuilds the viewport content from the active
// conversation plus any in-flight exchange.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	conv := m.store.Active()
	if conv == nil && !m.generating {
		m.viewport.SetContent(components.RenderWelcome(m.theme, m.viewport.Width, m.viewport.Height))
		return
	}

	opts := components.MessageOptions{
		Width:          m.viewport.Width - 2,
		ShowThinking:   m.showThinking,
		RenderMarkdown: m.renderMarkdown,
	}

	var blocks []string
	if conv != nil {
		for i := range conv.Messages {
			blocks = append(blocks, components.RenderMessage(m.theme, &conv.Messages[i], opts))
		}
	}
	if m.generating {
		if m.pendingUser != nil {
			blocks = append(blocks, components.RenderMessage(m.theme, m.pendingUser, opts))
		}
		snap := m.asm.Snapshot()
		// Live snapshots always show thinking; the toggle applies to
		// committed history only.
		liveOpts := opts
		liveOpts.ShowThinking = true
		blocks = append(blocks, components.RenderMessage(m.theme, &snap, liveOpts))
	}

	if len(blocks) == 0 {
		m.viewport.SetContent(components.RenderWelcome(m.theme, m.viewport.Width, m.viewport.Height))
		return
	}
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
}
