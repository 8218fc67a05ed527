package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/modelgate/modelgate/config"
	"github.com/modelgate/modelgate/gateway"
	mglogger "github.com/modelgate/modelgate/logger"
	"github.com/modelgate/modelgate/usage"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "~/.modelgate.yaml", "Path to configuration file")
		provider   = flag.String("provider", "", "Provider to use (anthropic, openai). Defaults to the first configured provider")
		model      = flag.String("model", "", "Model override")
		system     = flag.String("system", "", "Optional system prompt")
		timeout    = flag.Duration("timeout", 2*time.Minute, "Overall request timeout")
		logFile    = flag.String("logfile", "", "Path to log file. If not set, logs to stdout/stderr")
		pretty     = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		fmt.Fprintf(os.Stderr, "Error: --logfile and --pretty are mutually exclusive\n")
		os.Exit(1)
	}

	logger, err := mglogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		fmt.Fprintf(os.Stderr, "Usage: modelgate [flags] <prompt>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	// Resolve the provider: explicit flag first, then configured preference order.
	registry := gateway.NewRegistry(cfg.ProviderConfig(), cfg.Providers)
	var prefs []gateway.Preference
	if *provider != "" {
		prefs = []gateway.Preference{{Provider: *provider, Model: *model}}
	} else {
		for _, p := range cfg.Providers {
			prefs = append(prefs, gateway.Preference{Provider: p, Model: *model})
		}
	}

	key, err := registry.Resolve(prefs)
	if err != nil {
		logger.Error().Err(err).Msg("No usable provider")
		fmt.Fprintf(os.Stderr, "No usable provider: %v\n", err)
		os.Exit(1)
	}

	adapter, err := config.NewProvider(cfg, key, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to construct provider")
		os.Exit(1)
	}

	// Wrap with usage recording unless disabled.
	chat := adapter
	if !cfg.Usage.Disabled {
		store, err := usage.Open(cfg.Usage.DBPath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Usage store unavailable, continuing without recording")
		} else {
			defer store.Close()
			chat = gateway.WithRecording(adapter, key.Provider, store, logger)
		}
	}

	messages := []gateway.Message{}
	if *system != "" {
		messages = append(messages, gateway.NewTextMessage(gateway.RoleSystem, *system))
	}
	messages = append(messages, gateway.NewTextMessage(gateway.RoleUser, prompt))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := chat.Chat(ctx, key.Model, messages, nil)
	if err != nil {
		logger.Error().Err(err).Msg("Chat request failed")
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result.Text)
	if result.Tokens != nil {
		logger.Info().
			Str("provider", key.Provider).
			Str("model", key.Model).
			Str("finish_reason", result.FinishReason).
			Int64("prompt_tokens", result.Tokens.PromptTokens).
			Int64("completion_tokens", result.Tokens.CompletionTokens).
			Msg("Request complete")
	}
}
