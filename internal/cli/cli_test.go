// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"
)

func TestParseDefaultsToTUI(t *testing.T) {
	cmd, args := parseArgs(nil)
	if cmd != CmdTUI {
		t.Errorf("expected CmdTUI, got %d", cmd)
	}
	if args.Quiet || args.Verbose {
		t.Error("no flags should be set")
	}
}

func TestParseGlobalFlags(t *testing.T) {
	cmd, args := parseArgs([]string{"--server", "http://gpu-box:5000", "-q", "history"})
	if cmd != CmdHistory {
		t.Errorf("expected CmdHistory, got %d", cmd)
	}
	if args.Server != "http://gpu-box:5000" {
		t.Errorf("server = %q", args.Server)
	}
	if !args.Quiet {
		t.Error("quiet not set")
	}
}

func TestParseGlobalFlagEqualsForm(t *testing.T) {
	_, args := parseArgs([]string{"--server=http://gpu-box:5000"})
	if args.Server != "http://gpu-box:5000" {
		t.Errorf("server = %q", args.Server)
	}
}

func TestParseAskJoinsQuery(t *testing.T) {
	cmd, args := parseArgs([]string{"ask", "a", "red", "fox"})
	if cmd != CmdAsk {
		t.Errorf("expected CmdAsk, got %d", cmd)
	}
	if args.Query != "a red fox" {
		t.Errorf("query = %q", args.Query)
	}
}

func TestParseAskAlias(t *testing.T) {
	cmd, _ := parseArgs([]string{"generate", "hi"})
	if cmd != CmdAsk {
		t.Errorf("expected CmdAsk for generate alias, got %d", cmd)
	}
}

func TestParseShow(t *testing.T) {
	cmd, args := parseArgs([]string{"show", "conv-42"})
	if cmd != CmdShow {
		t.Errorf("expected CmdShow, got %d", cmd)
	}
	if args.ID != "conv-42" {
		t.Errorf("id = %q", args.ID)
	}
}

func TestParseExport(t *testing.T) {
	tests := []struct {
		name   string
		argv   []string
		id     string
		format string
	}{
		{"id only", []string{"export", "conv-1"}, "conv-1", ""},
		{"id and format", []string{"export", "conv-1", "html"}, "conv-1", "html"},
		{"bare", []string{"export"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := parseArgs(tt.argv)
			if cmd != CmdExport {
				t.Errorf("expected CmdExport, got %d", cmd)
			}
			if args.ID != tt.id {
				t.Errorf("id = %q, want %q", args.ID, tt.id)
			}
			if args.Format != tt.format {
				t.Errorf("format = %q, want %q", args.Format, tt.format)
			}
		})
	}
}

func TestParseConfigSubcommands(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		sub  string
		key  string
		val  string
	}{
		{"bare defaults to show", []string{"config"}, "show", "", ""},
		{"get", []string{"config", "get", "ui.theme"}, "get", "ui.theme", ""},
		{"set", []string{"config", "set", "ui.theme", "light"}, "set", "ui.theme", "light"},
		{"set joins value words", []string{"config", "set", "server.base_url", "http://x", "y"}, "set", "server.base_url", "http://x y"},
		{"path", []string{"config", "path"}, "path", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := parseArgs(tt.argv)
			if cmd != CmdConfig {
				t.Errorf("expected CmdConfig, got %d", cmd)
			}
			if args.Subcommand != tt.sub {
				t.Errorf("subcommand = %q, want %q", args.Subcommand, tt.sub)
			}
			if args.ConfigKey != tt.key {
				t.Errorf("key = %q, want %q", args.ConfigKey, tt.key)
			}
			if args.ConfigVal != tt.val {
				t.Errorf("val = %q, want %q", args.ConfigVal, tt.val)
			}
		})
	}
}

func TestParseUnknownCommandFallsToHelp(t *testing.T) {
	cmd, _ := parseArgs([]string{"frobnicate"})
	if cmd != CmdHelp {
		t.Errorf("expected CmdHelp, got %d", cmd)
	}
}

func TestParseVersionAliases(t *testing.T) {
	for _, argv := range [][]string{{"version"}, {"--version"}, {"-V"}} {
		cmd, _ := parseArgs(argv)
		if cmd != CmdVersion {
			t.Errorf("%v: expected CmdVersion, got %d", argv, cmd)
		}
	}
}
