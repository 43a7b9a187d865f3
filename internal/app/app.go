package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/dk/stagecraft/internal/config"
	"github.com/dk/stagecraft/internal/ctxlog"
	"github.com/dk/stagecraft/internal/optimize"
	"github.com/dk/stagecraft/internal/pipeline"
	"github.com/dk/stagecraft/internal/realtime"
	"github.com/dk/stagecraft/internal/services"
	"github.com/dk/stagecraft/internal/store"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	appConfig *Config
	model     *config.Model

	manager   *pipeline.Manager
	store     store.ArtifactStore
	generator services.Generator
	sandbox   *services.Sandbox
	renderer  *services.Renderer
	publisher realtime.Publisher
	optimizer *optimize.Optimizer

	watcher    *config.Watcher
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// wired App instance with its own isolated logger. A failure to load or
// interpret configuration is a fatal startup error and panics; the CLI
// entrypoint recovers and turns it into a clean exit.
func NewApp(outW io.Writer, appConfig *Config) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := config.Load(ctx, appConfig.WorkflowPath)
	if err != nil {
		panic(fmt.Errorf("failed to load workflow configuration: %w", err))
	}
	logger.Debug("Workflow configuration loaded.", "workflow", model.Name)

	a := &App{
		outW:      outW,
		logger:    logger,
		appConfig: appConfig,
		model:     model,
		optimizer: optimize.New(),
		publisher: realtime.NopPublisher{},
	}

	a.manager = pipeline.New(model.Toggles)
	for name, timeout := range model.StageTimeouts {
		if err := a.manager.SetStageTimeout(name, timeout); err != nil {
			panic(fmt.Errorf("failed to apply stage timeout: %w", err))
		}
	}
	logger.Debug("Pipeline manager constructed.", "timeoutOverrides", len(model.StageTimeouts))

	a.store = newStore(ctx, model.Persistence)
	logger.Debug("Artifact store ready.", "backend", model.Persistence.Backend)

	if model.Toggles.Generation {
		a.generator = newGenerator(ctx, model.Generation)
		logger.Debug("Generation provider ready.", "provider", model.Generation.Provider)
	}
	if model.SandboxEndpoint != "" {
		a.sandbox = services.NewSandbox(model.SandboxEndpoint)
	}
	if model.RendererEndpoint != "" {
		a.renderer = services.NewRenderer(model.RendererEndpoint)
	}

	if model.Toggles.Realtime && model.Realtime.Endpoint != "" {
		publisher, err := realtime.NewSocketIOPublisher(ctx, model.Realtime.Endpoint, model.Realtime.Namespace)
		if err != nil {
			panic(fmt.Errorf("failed to connect realtime publisher: %w", err))
		}
		a.publisher = publisher
	}

	if appConfig.Watch {
		watcher, err := config.Watch(ctx, appConfig.WorkflowPath, a.manager.SetOptions)
		if err != nil {
			panic(fmt.Errorf("failed to start config watcher: %w", err))
		}
		a.watcher = watcher
		logger.Debug("Config watcher started.", "path", appConfig.WorkflowPath)
	}

	return a
}

// Manager returns the application's pipeline manager. This is primarily for
// testing.
func (a *App) Manager() *pipeline.Manager {
	return a.manager
}

// Store returns the application's artifact store. This is primarily for
// testing.
func (a *App) Store() store.ArtifactStore {
	return a.store
}

// Close tears down everything the App owns: watcher, publisher, store, and
// the healthcheck server if one is running.
func (a *App) Close() error {
	var firstErr error
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.publisher.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.closeHealthcheckServer(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func newStore(ctx context.Context, p config.Persistence) store.ArtifactStore {
	switch p.Backend {
	case "redis":
		s, err := store.NewRedisStore(ctx, p.Address, p.TTL)
		if err != nil {
			panic(fmt.Errorf("failed to open redis artifact store: %w", err))
		}
		return s
	case "sqlite":
		s, err := store.NewSQLiteStore(p.Path)
		if err != nil {
			panic(fmt.Errorf("failed to open sqlite artifact store: %w", err))
		}
		return s
	default:
		return store.NewMemoryStore()
	}
}

func newGenerator(ctx context.Context, g config.Generation) services.Generator {
	apiKey := os.Getenv(g.APIKeyEnv)
	if apiKey == "" {
		panic(fmt.Errorf("generation is enabled but the %s environment variable is empty", g.APIKeyEnv))
	}
	switch g.Provider {
	case "gemini":
		generator, err := services.NewGeminiGenerator(ctx, g.Model, apiKey)
		if err != nil {
			panic(fmt.Errorf("failed to construct gemini generator: %w", err))
		}
		return generator
	default:
		return services.NewOpenAIGenerator(g.Endpoint, g.Model, apiKey)
	}
}
