// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/toolgate/adapters/mcptool"
	"github.com/artpar/toolgate/adapters/metrics"
	"github.com/artpar/toolgate/config"
	"github.com/artpar/toolgate/core/schema"
	"github.com/artpar/toolgate/core/schemafile"
	"github.com/artpar/toolgate/core/tools"
	"github.com/artpar/toolgate/web"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Holder     *config.Holder
	Schemas    *schema.Registry
	Compiler   *schema.Compiler
	Tools      *tools.Registry
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	mcpServer *mcptool.Server
	cfg       *config.Config
}

// New creates and initializes the application from a loaded configuration.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	logger.Info().Msg("initializing toolgate")

	a := &App{
		Logger:  logger,
		cfg:     cfg,
		Schemas: schema.NewRegistry(),
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	a.Compiler = schema.NewCompiler(a.Schemas)
	a.Tools = tools.NewRegistry(a.Compiler, logger)

	if err := a.loadDeclarations(); err != nil {
		return nil, fmt.Errorf("load declarations: %w", err)
	}

	if cfg.MCP.Enabled {
		mcpServer, err := mcptool.NewServer(cfg.MCP.Name, cfg.MCP.Version, a.Tools, logger)
		if err != nil {
			return nil, fmt.Errorf("init mcp server: %w", err)
		}
		a.mcpServer = mcpServer
		logger.Info().Str("name", cfg.MCP.Name).Msg("mcp server enabled on stdio")
	}

	if err := a.initHTTPServer(); err != nil {
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return a, nil
}

// NewWithHotReload creates the application with a config holder that watches
// the file and SIGHUP for changes. Only the reloadable fields take effect
// without a restart; see config.ReloadableFields.
func NewWithHotReload(path string) (*App, error) {
	holder, err := config.NewHolder(path, setupLogger(config.LoggingConfig{Level: "info", Format: "json"}))
	if err != nil {
		return nil, err
	}

	a, err := New(holder.Get())
	if err != nil {
		holder.Stop()
		return nil, err
	}
	a.Holder = holder

	holder.OnChange(func(cfg *config.Config) {
		a.applyReloadableConfig(cfg)
	})

	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watching disabled")
	}
	holder.WatchSignals()

	return a, nil
}

// loadDeclarations parses every declaration file under the schema directory,
// registers the declared types and tools, and optionally compiles everything
// up front so a broken declaration fails startup instead of the first call.
func (a *App) loadDeclarations() error {
	files, err := schemafile.Load(a.Schemas, a.cfg.Schemas.Dir)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Int("files", len(files)).
		Int("types", len(a.Schemas.Types())).
		Str("dir", a.cfg.Schemas.Dir).
		Msg("declarations loaded")

	for _, f := range files {
		for _, t := range f.Tools {
			err := a.Tools.Register(tools.Tool{
				Name:        t.Name,
				Description: t.Description,
				ArgsType:    schema.TypeID(t.ArgsType),
			})
			if err != nil {
				return err
			}
		}
	}
	if a.Metrics != nil {
		a.Metrics.ToolsRegistered.Set(float64(len(a.Tools.List())))
	}

	if a.cfg.Schemas.CompileOnStart {
		for _, id := range a.Schemas.Types() {
			_, err := a.Compiler.Compile(id)
			if a.Metrics != nil {
				result := "success"
				if err != nil {
					result = "error"
				}
				a.Metrics.CompilationsTotal.WithLabelValues(string(id), result).Inc()
			}
			if err != nil {
				return fmt.Errorf("compile %s: %w", id, err)
			}
		}
		a.Logger.Info().Int("types", len(a.Schemas.Types())).Msg("all declared types compiled")
	}

	return nil
}

func (a *App) initHTTPServer() error {
	handler := web.NewHandler(web.Deps{
		Tools:    a.Tools,
		Compiler: a.Compiler,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	})

	router := web.NewRouter(handler, a.Logger, web.RouterConfig{
		Metrics:     a.Metrics,
		MetricsPath: a.cfg.Metrics.Path,
	})

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
	return nil
}

// RegisterHandler attaches an execution handler to a tool. Declared tools are
// description-only until the host program binds their handlers.
func (a *App) RegisterHandler(name string, h tools.Handler) error {
	t, ok := a.Tools.Get(name)
	if !ok {
		return fmt.Errorf("tool %q not registered", name)
	}
	if err := a.Tools.Unregister(name); err != nil {
		return err
	}
	tool := t.Tool
	tool.Handler = h
	return a.Tools.Register(tool)
}

// Run starts the servers and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 2)

	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if a.mcpServer != nil {
		go func() {
			a.Logger.Info().Msg("starting mcp server on stdio")
			if err := a.mcpServer.ServeStdio(); err != nil {
				errCh <- fmt.Errorf("mcp server: %w", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// applyReloadableConfig applies the fields that can change without a restart.
func (a *App) applyReloadableConfig(cfg *config.Config) {
	if cfg.Logging.Level != a.cfg.Logging.Level || cfg.Logging.Format != a.cfg.Logging.Format {
		a.Logger = setupLogger(cfg.Logging)
		a.Logger.Info().Str("level", cfg.Logging.Level).Msg("logger reconfigured")
	}

	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
		a.Metrics.ConfigLastReload.SetToCurrentTime()
	}

	a.cfg = cfg
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
