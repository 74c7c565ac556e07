package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	cfg "github.com/tositon/OpenDeepSearch/internal/config"
	"github.com/tositon/OpenDeepSearch/internal/health"
	"github.com/tositon/OpenDeepSearch/internal/orchestrator"
	"github.com/tositon/OpenDeepSearch/internal/research"
	"github.com/tositon/OpenDeepSearch/internal/search"
	"github.com/tositon/OpenDeepSearch/internal/session"
	"github.com/tositon/OpenDeepSearch/internal/toolapi"
)

func main() {
	// Credentials may live in a local .env; absence is fine.
	_ = godotenv.Load()

	conf, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(conf)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ------------------------------------------------------------------
	// Bring up the admin HTTP surface (health + metrics) early so it
	// responds even if the search provider is misconfigured.
	// ------------------------------------------------------------------
	hm := health.NewManager(logger)
	adminMux := http.NewServeMux()
	hm.RegisterRoutes(adminMux)
	if conf.Observability.Metrics.Enabled {
		adminMux.Handle("/metrics", promhttp.Handler())
	}
	adminSrv := &http.Server{
		Addr:         ":" + strconv.Itoa(conf.Observability.Metrics.Port),
		Handler:      adminMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("Admin HTTP server listening", zap.Int("port", conf.Observability.Metrics.Port))
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Admin HTTP server failed", zap.Error(err))
		}
	}()

	// Session store with bounded eviction and a periodic idle sweep.
	store := session.NewStore(session.Policy{
		MaxSessions: conf.Store.MaxSessions,
		TTL:         conf.TTL(),
	}, logger)
	store.StartJanitor(ctx, conf.SweepInterval())
	hm.Register("session_store", func() error {
		if conf.Store.MaxSessions > 0 && store.Len() >= conf.Store.MaxSessions {
			return fmt.Errorf("session store at capacity (%d)", store.Len())
		}
		return nil
	})

	// Search provider. A missing credential is fatal: nothing downstream
	// can work without the collaborator.
	providerOpts := []search.SerperOption{
		search.WithHTTPClient(&http.Client{Timeout: conf.SearchTimeout()}),
		search.WithRateLimit(conf.Search.RatePerSecond, conf.Search.Burst),
	}
	if conf.Search.Endpoint != "" {
		providerOpts = append(providerOpts, search.WithEndpoint(conf.Search.Endpoint))
	}
	provider, err := search.NewSerperClient(conf.Search.APIKey, logger, providerOpts...)
	if err != nil {
		logger.Fatal("Failed to configure search provider", zap.Error(err))
	}
	invoker := search.NewInvoker(provider, logger)

	templates, err := cfg.LoadAspectTemplates(conf.Research.TemplatesPath)
	if err != nil {
		logger.Fatal("Failed to load aspect templates", zap.Error(err))
	}
	decomposer := research.NewDecomposer(templates, logger)

	orc := orchestrator.New(store, invoker, decomposer, logger,
		orchestrator.WithPreviewLength(conf.Research.PreviewChars),
	)
	handler := toolapi.NewHandler(orc, logger)

	// Hot-reload only what is safe to change at runtime.
	if cfgPath := os.Getenv("CONFIG_PATH"); cfgPath != "" {
		watcher, err := cfg.NewWatcher(cfgPath, logger)
		if err != nil {
			logger.Warn("Config watcher unavailable", zap.Error(err))
		} else {
			watcher.OnChange(func(c *cfg.Config) error {
				store.SetPolicy(session.Policy{
					MaxSessions: c.Store.MaxSessions,
					TTL:         c.TTL(),
				})
				orc.SetPreviewLength(c.Research.PreviewChars)
				logger.Info("Applied reloaded limits",
					zap.Int("max_sessions", c.Store.MaxSessions),
					zap.Int("preview_chars", c.Research.PreviewChars),
				)
				return nil
			})
			if err := watcher.Start(); err != nil {
				logger.Warn("Config watcher failed to start", zap.Error(err))
			}
			defer watcher.Stop()
		}
	}

	// The transport proper is an external collaborator; line-delimited JSON
	// over stdio is the minimal adapter to it. Each line is one RawRequest,
	// each response one envelope.
	go serveStdio(ctx, handler, logger, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Input closed, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Admin HTTP server shutdown failed", zap.Error(err))
	}
}

func newLogger(conf *cfg.Config) (*zap.Logger, error) {
	var zc zap.Config
	if conf.Observability.Logging.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(conf.Observability.Logging.Level); err == nil {
		zc.Level = lvl
	}
	return zc.Build()
}

// serveStdio reads RawRequest lines from stdin and writes one response
// envelope per line to stdout. Malformed JSON is reported in the envelope;
// the loop never crashes on bad input.
func serveStdio(ctx context.Context, handler *toolapi.Handler, logger *zap.Logger, done context.CancelFunc) {
	defer done()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw toolapi.RawRequest
		var resp toolapi.Response
		if err := json.Unmarshal(line, &raw); err != nil {
			resp = toolapi.Failure(err)
		} else {
			resp = handler.HandleRaw(ctx, raw)
		}
		if err := enc.Encode(resp); err != nil {
			logger.Error("Failed to write response", zap.Error(err))
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("Input stream failed", zap.Error(err))
	}
}
