package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"classmate/internal/chunker"
	"classmate/internal/config"
	"classmate/internal/embedding"
	"classmate/internal/knowledge"
	"classmate/internal/logging"
	"classmate/internal/summarizer"
)

// classmate-ingest builds a knowledge base from a document without the
// interactive wizard, for scripting or batch use.
func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/classmate/config.yaml if not provided)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Println("Usage: classmate-ingest [--config=config.yaml] textbook.pdf")
		os.Exit(1)
	}
	path := flag.Arg(0)

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

	apiKey := os.Getenv(cfg.OpenAI.APIKeyEnv)
	emb, err := embedding.NewOpenAI(embedding.Config{
		APIKey:  apiKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.EmbedModel,
		Timeout: time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedder init failed (set %s): %v", cfg.OpenAI.APIKeyEnv, err)
	}

	ingestor := knowledge.NewIngestor(
		chunker.NewCharChunker(cfg.Chunker.Size, cfg.Chunker.Overlap),
		emb,
		summarizer.NewFrequencySummarizer(),
		cfg.Summary.MaxSentences,
		logger,
	)
	base, summary, err := ingestor.Ingest(context.Background(), path, cfg.Storage.KnowledgeDir)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	fmt.Printf("Knowledge base built at %s\n", base.Dir())
	if summary != "" {
		fmt.Println(summary)
	}
}
