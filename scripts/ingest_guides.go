package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/config"
	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/services"
)

// Ingests every PDF under GUIDES_DIR (default ./interview_guides) into the
// Qdrant collection the question generator retrieves from. Re-running replaces
// the chunks of a guide with the same file name.
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.EnvFileLoaded {
		log.Info("No .env file found. Using environment and default values.")
	}

	log.Info("🚀 Starting interview guide ingestion...")

	if cfg.Qdrant.URL == "" {
		log.Fatal("❌ QDRANT_URL is required")
	}

	ctx := context.Background()

	gemini, err := services.NewGeminiService(ctx, cfg.AI.Gemini, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize Gemini", zap.Error(err))
	}

	store, err := services.NewQdrantService(cfg.Qdrant, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize Qdrant", zap.Error(err))
	}
	defer store.Close()

	if err := store.InitCollection(ctx); err != nil {
		log.Fatal("❌ Failed to initialize collection", zap.Error(err))
	}

	dir := os.Getenv("GUIDES_DIR")
	if dir == "" {
		dir = "./interview_guides"
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		log.Fatal("❌ Failed to list guides", zap.Error(err))
	}
	if len(paths) == 0 {
		log.Fatal("❌ No PDF guides found", zap.String("dir", dir))
	}

	pdfParser := services.NewPDFParserService()
	chunker := services.NewTextChunker(1000, 200)

	successCount := 0
	failCount := 0

	for _, path := range paths {
		guideID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		guideLog := log.With(zap.String("guide", guideID))

		guideLog.Info("📄 Processing guide", zap.String("path", path))

		content, err := pdfParser.ExtractTextWithMetaData(ctx, path)
		if err != nil {
			guideLog.Error("❌ Failed to extract text", zap.Error(err))
			failCount++
			continue
		}

		chunks := chunker.Chunk(services.CleanText(content.Text))
		guideLog.Info("✂️ Chunked guide",
			zap.Int("pages", content.PageCount),
			zap.Int(logger.FieldCount, len(chunks)))

		if err := store.DeleteGuide(ctx, guideID); err != nil {
			guideLog.Error("❌ Failed to clear previous chunks", zap.Error(err))
			failCount++
			continue
		}

		stored := 0
		for i, text := range chunks {
			embedding, err := gemini.Embed(ctx, text)
			if err != nil {
				guideLog.Warn("⚠️ Failed to embed chunk", zap.Int("chunk", i), zap.Error(err))
				continue
			}

			chunk := services.GuideChunk{GuideID: guideID, Source: filepath.Base(path), Index: i, Text: text}
			if err := store.UpsertChunk(ctx, chunk, embedding); err != nil {
				guideLog.Warn("⚠️ Failed to store chunk", zap.Int("chunk", i), zap.Error(err))
				continue
			}
			stored++
		}

		if stored == 0 {
			failCount++
			continue
		}

		guideLog.Info("✅ Guide ingested", zap.Int("stored", stored), zap.Int("total", len(chunks)))
		successCount++
	}

	log.Info("📊 Ingestion summary", zap.Int("successful", successCount), zap.Int("failed", failCount))

	if failCount > 0 {
		log.Warn("⚠️ Some guides failed to ingest. Please check the logs above.")
		os.Exit(1)
	}
}
