// Package app is the composition root: it turns a Config into wired use cases
// and servers.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/localrag-fts/internal/adapters/filewatcher"
	"github.com/0xcro3dile/localrag-fts/internal/adapters/index"
	"github.com/0xcro3dile/localrag-fts/internal/adapters/llm"
	"github.com/0xcro3dile/localrag-fts/internal/adapters/loader"
	"github.com/0xcro3dile/localrag-fts/internal/adapters/tools"
	"github.com/0xcro3dile/localrag-fts/internal/adapters/translate"
	"github.com/0xcro3dile/localrag-fts/internal/domain/chunker"
	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
	"github.com/0xcro3dile/localrag-fts/internal/domain/usecases"
	"github.com/0xcro3dile/localrag-fts/internal/infrastructure/config"
	httpserver "github.com/0xcro3dile/localrag-fts/internal/infrastructure/http"
	"github.com/0xcro3dile/localrag-fts/internal/infrastructure/mcp"
	"github.com/0xcro3dile/localrag-fts/internal/infrastructure/metrics"
)

// App holds the wired services for one process.
type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Store   ports.IndexStore
	Ingest  *usecases.IngestUseCase
	Query   *usecases.QueryUseCase
	Files   ports.FileReader // nil when tools are disabled
	Fetcher ports.Fetcher    // nil when tools are disabled

	db *index.SQLiteStore
}

// Build opens the index and wires every use case from cfg.
func Build(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mode, err := index.ParseMatchMode(cfg.Search.MatchMode)
	if err != nil {
		return nil, err
	}
	ch, err := chunker.New(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}

	db, err := index.NewSQLiteStore(index.Options{
		Driver:    cfg.Store.Driver,
		Path:      cfg.Store.Path,
		MatchMode: mode,
		Logger:    logger.Named("index"),
	})
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	store := metrics.InstrumentStore(db)

	a := &App{Config: cfg, Logger: logger, Store: store, db: db}

	chat := newLLM(cfg.LLM)

	opts := []usecases.QueryOption{usecases.WithLogger(logger.Named("query"))}
	if cfg.Tools.Enabled {
		files, err := tools.NewFileReader(cfg.Documents.Dir, cfg.Tools.MaxBytes)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		fetcher := tools.NewFetcher(tools.FetchConfig{
			AllowedHosts:      cfg.Tools.AllowedHosts,
			Timeout:           time.Duration(cfg.Tools.FetchTimeoutSec) * time.Second,
			MaxBytes:          cfg.Tools.MaxBytes,
			RequestsPerSecond: cfg.Tools.FetchPerSecond,
		})
		a.Files, a.Fetcher = files, fetcher
		opts = append(opts, usecases.WithTools(files, fetcher))
	}
	if cfg.Translation.Enabled {
		opts = append(opts, usecases.WithTranslator(translate.NewLLMTranslator(chat)))
	}

	a.Ingest = usecases.NewIngestUseCase(
		loader.NewTextSource(cfg.Documents.Extensions), ch, store, logger.Named("ingest"))
	a.Query = usecases.NewQueryUseCase(store, chat, usecases.QueryConfig{
		TopK:           cfg.Search.TopK,
		ChatTopK:       cfg.Search.ChatTopK,
		MinQueryLength: cfg.Search.MinQueryLength,
		SystemPrompt:   cfg.LLM.SystemPrompt,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		IndexLanguage:  cfg.Translation.IndexLanguage,
		UserLanguage:   cfg.Translation.UserLanguage,
	}, opts...)

	return a, nil
}

func newLLM(cfg config.LLMConfig) ports.LLMService {
	if cfg.Provider == "ollama" {
		return llm.NewOllamaAdapter(cfg.BaseURL, cfg.Model)
	}
	return llm.NewOpenAIAdapter(llm.OpenAIConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
	})
}

// IngestDocuments rebuilds the index from the configured documents directory.
func (a *App) IngestDocuments(ctx context.Context) (*entities.IngestReport, error) {
	return a.Ingest.IngestDirectory(ctx, a.Config.Documents.Dir)
}

// HTTPServer builds the web server.
func (a *App) HTTPServer() (*httpserver.Server, error) {
	cfg := a.Config.HTTP
	return httpserver.NewServer(a.Query, a.Ingest, a.Store, httpserver.Options{
		Addr:           cfg.Addr,
		DocsDir:        a.Config.Documents.Dir,
		ReadTimeout:    time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout:   time.Duration(cfg.WriteTimeoutSec) * time.Second,
		ShutdownPeriod: time.Duration(cfg.ShutdownSec) * time.Second,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		Logger:         a.Logger.Named("http"),
	})
}

// MCPServer builds the MCP server.
func (a *App) MCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{
		Search:  a.Query,
		Ingest:  a.Ingest,
		DocsDir: a.Config.Documents.Dir,
		Files:   a.Files,
		Fetcher: a.Fetcher,
	}, a.Logger.Named("mcp"))
}

// Watcher builds the directory watch loop.
func (a *App) Watcher() (*usecases.WatchUseCase, error) {
	w, err := filewatcher.NewFSNotifyWatcher(a.Config.Documents.Extensions, a.Logger.Named("watcher"))
	if err != nil {
		return nil, err
	}
	return usecases.NewWatchUseCase(w, a.Ingest, a.Config.Documents.Debounce(), a.Logger.Named("watch")), nil
}

// Serve runs the HTTP server, and the watcher and MCP HTTP transport when
// configured, until ctx is cancelled or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	web, err := a.HTTPServer()
	if err != nil {
		return err
	}
	var watch *usecases.WatchUseCase
	if a.Config.Documents.Watch {
		if watch, err = a.Watcher(); err != nil {
			return err
		}
	}
	var mcpSrv *mcp.Server
	if a.Config.MCP.Addr != "" {
		if mcpSrv, err = a.MCPServer(); err != nil {
			return err
		}
	}

	if a.Config.Documents.IngestOnStart {
		if _, err := a.IngestDocuments(ctx); err != nil {
			return fmt.Errorf("initial ingestion: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return web.Start(ctx) })
	if watch != nil {
		g.Go(func() error { return watch.Run(ctx, a.Config.Documents.Dir) })
	}
	if mcpSrv != nil {
		g.Go(func() error { return mcpSrv.RunHTTP(ctx, a.Config.MCP.Addr) })
	}
	return g.Wait()
}

// Close releases the index database.
func (a *App) Close() error {
	return a.db.Close()
}
