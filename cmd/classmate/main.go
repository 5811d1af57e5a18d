package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"classmate/internal/answer"
	"classmate/internal/config"
	"classmate/internal/embedding"
	"classmate/internal/logging"
	"classmate/internal/session"
	"classmate/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/classmate/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.Storage.LogFile)
	defer func() { _ = logger.Sync() }()

	// The snapshot is read exactly once, before any other state exists, so a
	// rehydrate can never clobber a live session.
	sess := session.NewStore(cfg.Storage.SessionFile, logger)
	snap, ok := sess.Load()
	if !ok {
		snap = nil
	}
	if snap != nil && snap.APIKey != "" {
		// Restored credential is made available before anything else runs.
		_ = os.Setenv(cfg.OpenAI.APIKeyEnv, snap.APIKey)
	}
	if key := os.Getenv(cfg.OpenAI.APIKeyEnv); key != "" {
		if snap == nil {
			snap = &session.Snapshot{APIKey: key}
		} else if snap.APIKey == "" {
			snap.APIKey = key
		}
	}

	timeout := time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second
	backends := tui.Backends{
		NewEmbedder: func(apiKey string) (embedding.Embedder, error) {
			return embedding.NewOpenAI(embedding.Config{
				APIKey:  apiKey,
				BaseURL: cfg.OpenAI.BaseURL,
				Model:   cfg.OpenAI.EmbedModel,
				Timeout: timeout,
			})
		},
		NewChat: func(apiKey string) answer.ChatClient {
			cc := openai.DefaultConfig(apiKey)
			if cfg.OpenAI.BaseURL != "" {
				cc.BaseURL = cfg.OpenAI.BaseURL
			}
			cc.HTTPClient = &http.Client{Timeout: timeout}
			return openai.NewClientWithConfig(cc)
		},
	}

	m := tui.New(cfg, logger, sess, snap, backends)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
