package chatcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/peterh/liner"
)

const (
	Prompt   = "🧑 You: "
	Banner   = "💬 Chatbot is ready! Type 'exit' to quit."
	Goodbye  = "👋 Goodbye!"
	ruleSize = 40
)

// LineReader reads one line of user input after showing prompt
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// Conversation is what the loop drives; *agentx.Agent implements it
type Conversation interface {
	ProcessTurn(ctx context.Context, sessionID memoryx.SessionID, userText string) (llm.Message, error)
	History(ctx context.Context, sessionID memoryx.SessionID) ([]llm.Message, error)
}

// Run reads lines until exit, quit, end of input or ctx is cancelled. Each
// line is one turn on sessionID; the reply and the whole conversation are
// written to out. Failed turns are reported and the loop goes on.
func Run(ctx context.Context, in LineReader, out io.Writer, conv Conversation, sessionID memoryx.SessionID) error {
	fmt.Fprintf(out, "%s\n\n", Banner)

	for {
		if ctx.Err() != nil {
			fmt.Fprintf(out, "\n%s\n", Goodbye)
			return nil
		}

		line, err := in.Prompt(Prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintf(out, "\n%s\n", Goodbye)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if isExit(input) {
			fmt.Fprintln(out, Goodbye)
			return nil
		}

		if err := runTurn(ctx, out, conv, sessionID, line); err != nil {
			logx.WithField("session_id", sessionID).WithError(err).Warn("Turn failed")
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func runTurn(ctx context.Context, out io.Writer, conv Conversation, sessionID memoryx.SessionID, input string) error {
	reply, err := conv.ProcessTurn(ctx, sessionID, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n🤖: %s\n", reply.Content)

	history, err := conv.History(ctx, sessionID)
	if err != nil {
		return err
	}
	PrintHistory(out, history)
	return nil
}

// PrintHistory writes the conversation followed by a separator rule
func PrintHistory(out io.Writer, history []llm.Message) {
	fmt.Fprintln(out, "\n📜 Full conversation so far:")
	for _, msg := range history {
		fmt.Fprintf(out, "%s: %s\n", speaker(msg.Role), msg.Content)
	}
	fmt.Fprintln(out, strings.Repeat("-", ruleSize))
}

func speaker(role llm.Role) string {
	if role == llm.RoleUser {
		return "🧑"
	}
	return "🤖"
}

func isExit(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit":
		return true
	}
	return false
}
