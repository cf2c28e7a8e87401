package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tessera-hq/tessera/internal/api/handlers"
	"github.com/tessera-hq/tessera/internal/config"
	"github.com/tessera-hq/tessera/internal/core/bus"
	"github.com/tessera-hq/tessera/internal/core/chunker"
	db "github.com/tessera-hq/tessera/internal/core/database"
	"github.com/tessera-hq/tessera/internal/core/extractors"
	objectclient "github.com/tessera-hq/tessera/internal/core/object-client"
	"github.com/tessera-hq/tessera/internal/services"
)

type App struct {
	cfg       *config.Config
	dbClient  *db.DatabaseClient
	bus       *bus.MessageBus
	ingestion *services.IngestionService
	status    *services.StatusOrchestrator
	server    *Server
	logger    *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(initCtx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("app.db.ready")

	objClient, err := objectclient.NewS3Client(initCtx, cfg)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}
	logger.Info("app.storage.ready")

	messageBus := bus.New(cfg.EventBuffer)
	extraction := extractors.DefaultService()
	sectionChunker := chunker.NewSectionChunker(cfg.ChunkTargetTokens, cfg.ChunkOverlapTokens)

	ingestion := services.NewIngestionService(dbClient, objClient, extraction, sectionChunker, messageBus, logger)
	commands := services.NewCommandService(dbClient, dbClient, messageBus, logger)
	status := services.NewStatusOrchestrator(dbClient, messageBus, logger)

	docHandler := handlers.NewDocumentHandler(dbClient, objClient, commands, logger)
	ingHandler := handlers.NewIngestionHandler(dbClient, commands, logger)
	server := NewServer(cfg, docHandler, ingHandler)

	return &App{
		cfg:       cfg,
		dbClient:  dbClient,
		bus:       messageBus,
		ingestion: ingestion,
		status:    status,
		server:    server,
		logger:    logger,
	}, nil
}

// Run serves HTTP and consumes pipeline events until the context ends.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.ingestion.Run(gctx, a.bus.DocumentUploads(), a.cfg.IngestWorkers)
	})
	g.Go(func() error {
		return a.status.Run(gctx, a.bus.VectorProcessingCompletions())
	})
	g.Go(func() error {
		return a.server.Start(gctx)
	})

	return g.Wait()
}

func (a *App) Close() {
	if a.dbClient != nil {
		_ = a.dbClient.Close()
	}
}
