// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// input.go - Line editing and persistent history for interactive mode.
package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/gemstudio-tui/internal/config"
)

// ErrInputAborted is returned by ReadInput when the user cancels the
// current line with Ctrl+C.
var ErrInputAborted = liner.ErrPromptAborted

// AskCLI provides input history and line editing for the interactive
// prompt loop. Arrow keys navigate history; history persists in the
// config directory across sessions.
type AskCLI struct {
	line        *liner.State
	historyFile string
}

// NewAskCLI creates an AskCLI and loads any existing history.
func NewAskCLI() *AskCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &AskCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "ask_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads prompt history from the history file.
func (c *AskCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line with the given prompt. Non-empty input is
// appended to the in-memory history.
func (c *AskCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists prompt history with owner-only permissions.
func (c *AskCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close releases the terminal. Must be called before the process exits
// or the terminal may be left in raw mode.
func (c *AskCLI) Close() {
	c.line.Close()
}
