package chatcli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/peterh/liner"
)

// Terminal is a LineReader with line editing and a persistent input history
type Terminal struct {
	line        *liner.State
	historyFile string
}

// NewTerminal takes over the terminal. An empty historyFile disables history
// persistence. Call Close to restore the terminal.
func NewTerminal(historyFile string) *Terminal {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	t := &Terminal{
		line:        line,
		historyFile: historyFile,
	}
	t.loadHistory()
	return t
}

// Prompt reads a line, adding non-blank input to the history
func (t *Terminal) Prompt(prompt string) (string, error) {
	input, err := t.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		t.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history and restores the terminal
func (t *Terminal) Close() error {
	t.saveHistory()
	return t.line.Close()
}

func (t *Terminal) loadHistory() {
	if t.historyFile == "" {
		return
	}
	f, err := os.Open(t.historyFile)
	if err != nil {
		return
	}
	defer f.Close()

	if _, err := t.line.ReadHistory(f); err != nil {
		logx.WithError(err).Debug("Failed to read input history")
	}
}

func (t *Terminal) saveHistory() {
	if t.historyFile == "" {
		return
	}
	if dir := filepath.Dir(t.historyFile); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			logx.WithError(err).Debug("Failed to create history directory")
			return
		}
	}

	f, err := os.OpenFile(t.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		logx.WithError(err).Debug("Failed to open history file")
		return
	}
	defer f.Close()

	if _, err := t.line.WriteHistory(f); err != nil {
		logx.WithError(err).Debug("Failed to write input history")
	}
}
