package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kbchat/internal/api"
	"kbchat/internal/catalog"
	"kbchat/internal/chunker"
	"kbchat/internal/config"
	"kbchat/internal/embedding"
	"kbchat/internal/helper"
	"kbchat/internal/ingest"
	"kbchat/internal/llmservice"
	"kbchat/internal/models"
	"kbchat/internal/parser"
	"kbchat/internal/rag"
	"kbchat/internal/storage"
	"kbchat/internal/syncer"
	"kbchat/internal/vectordb"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	// Secrets (API keys) come from the environment; .env is optional.
	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Ingest a single document and exit")
	query := flag.String("query", "", "Answer a single query and exit")
	runSync := flag.Bool("sync", false, "Run one sync pass against the object store and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	app, err := buildApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building application")
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *filePath != "":
		ingestFile(ctx, app, *filePath)
	case *query != "":
		answerQuery(ctx, app, *query)
	case *runSync:
		report, err := app.reconciler.Sync(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Error running sync")
		}
		helper.PrettyPrint(report)
	default:
		server := api.NewServer(app.orchestrator, app.rag, app.reconciler, app.store,
			app.objects, app.objects.Location(), cfg.Server.Addr)
		if err := server.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Server stopped with error")
		}
	}
}

// app holds the wired pipeline.
type app struct {
	store        *vectordb.Store
	cat          *catalog.Catalog
	objects      *storage.LocalStore
	orchestrator *ingest.Orchestrator
	reconciler   *syncer.Reconciler
	rag          *rag.RAG
	embedder     *embedding.Manager
}

func buildApp(cfg *config.Config) (*app, error) {
	if err := helper.CreateFolder(cfg.VectorDB.Path); err != nil {
		return nil, fmt.Errorf("failed to create vector db folder: %w", err)
	}
	if err := helper.CreateFolder(cfg.Server.UploadDir); err != nil {
		return nil, fmt.Errorf("failed to create upload folder: %w", err)
	}

	db, err := catalog.Connect(&cfg.Database)
	if err != nil {
		return nil, err
	}
	cat := catalog.New(db)
	if err := cat.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	store, err := vectordb.NewStore(cfg.VectorDB.Path, cfg.VectorDB.Collection, cat)
	if err != nil {
		return nil, err
	}

	c, err := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	embedder := embedding.NewManager(&cfg.EmbedLLM)
	batcher := embedding.NewBatcher(embedder.Embed, cfg.RAG.BatchSize,
		cfg.RAG.MaxChunksPerDocument, cfg.RAG.MaxEmbedChars)
	// Hand memory back to the OS between batches; the deployment
	// target is tight on RAM.
	batcher.Reclaim = debug.FreeOSMemory

	orchestrator := ingest.NewOrchestrator(parser.NewExtractor(), c, batcher, store)

	objects, err := storage.NewLocalStore(cfg.Server.UploadDir)
	if err != nil {
		return nil, err
	}
	reconciler := syncer.NewReconciler(objects, orchestrator, store,
		models.SourceBlobSync, objects.Location())

	generate, err := llmservice.NewGenerator(&cfg.AnswerLLM)
	if err != nil {
		return nil, err
	}
	ragSvc := rag.NewRAG(store, embedder.Embed, generate, &cfg.RAG)

	return &app{
		store:        store,
		cat:          cat,
		objects:      objects,
		orchestrator: orchestrator,
		reconciler:   reconciler,
		rag:          ragSvc,
		embedder:     embedder,
	}, nil
}

func (a *app) close() {
	a.embedder.Release()
	if err := a.cat.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing catalog")
	}
}

func ingestFile(ctx context.Context, a *app, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msgf("Failed to read file: %s", path)
	}
	result, err := a.orchestrator.Ingest(ctx, ingest.Request{
		Data:            data,
		Filename:        filepath.Base(path),
		Source:          models.SourceUserUpload,
		StorageLocation: "Local file: " + path,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	helper.PrettyPrint(result)
}

func answerQuery(ctx context.Context, a *app, query string) {
	response, err := a.rag.Query(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%v\n\n", response.Sources)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}
