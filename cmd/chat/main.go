package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/agentx"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx/memoryinfra"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx/memorysrv"
	"github.com/Abraxas-365/chatkeep/pkg/ai/providers"
	"github.com/Abraxas-365/chatkeep/pkg/chatcli"
	"github.com/Abraxas-365/chatkeep/pkg/config"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatkeep: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// chat output owns stdout
	logx.SetPretty(os.Stderr)
	logx.SetLevel(logx.ParseLevel(cfg.Chat.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := memoryinfra.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer repo.Close()

	client, err := providers.NewClient(cfg.LLM)
	if err != nil {
		return err
	}

	agent := agentx.New(client, memorysrv.NewSessionService(repo))

	logx.WithFields(logx.Fields{
		"provider":   cfg.LLM.Provider,
		"model":      cfg.LLM.Model,
		"backend":    cfg.Store.Backend,
		"session_id": cfg.Chat.SessionID,
	}).Info("Chat ready")

	term := chatcli.NewTerminal(cfg.Chat.HistoryFile)
	defer term.Close()

	return chatcli.Run(ctx, term, os.Stdout, agent, memoryx.SessionID(cfg.Chat.SessionID))
}
