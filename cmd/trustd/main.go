package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quantumtrust/trustcore/internal/anchorchain"
	"github.com/quantumtrust/trustcore/internal/api"
	"github.com/quantumtrust/trustcore/internal/contentstore"
	"github.com/quantumtrust/trustcore/internal/credential"
	"github.com/quantumtrust/trustcore/internal/custody"
	"github.com/quantumtrust/trustcore/internal/did"
	"github.com/quantumtrust/trustcore/internal/document"
	"github.com/quantumtrust/trustcore/internal/health"
	"github.com/quantumtrust/trustcore/internal/ledger"
	"github.com/quantumtrust/trustcore/internal/principal"
	"github.com/quantumtrust/trustcore/internal/proof"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("trustd exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	viper.SetConfigName("trustd")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.rate_limit_rps", 20)
	viper.SetDefault("database.url", "")
	viper.SetDefault("custody.master_secret", "")
	viper.SetDefault("content_store.dir", "")
	viper.SetDefault("ledger.fallback_policy", "default")
	viper.SetDefault("ledger.credential_gateway_url", "")
	viper.SetDefault("ledger.channel_gateway_url", "")
	viper.SetDefault("ledger.channel_name", "trustchannel")
	viper.SetDefault("ledger.gateway_timeout", "10s")
	viper.SetDefault("reconcile.interval", "10m")
	viper.SetDefault("health.check_interval", "1m")

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}

	// ── Storage ──────────────────────────────────────────────────────────────
	var (
		db        *pgxpool.Pool
		chain     anchorchain.Chain
		didRepo   did.Repository
		credRepo  credential.Repository
		docRepo   document.Repository
		prinStore principal.Store
	)

	dbURL := viper.GetString("database.url")
	if dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("connected to postgres")

		db = pool
		chain = anchorchain.NewPostgresChain(db, logger)
		didRepo = did.NewPostgresRepository(db)
		credRepo = credential.NewPostgresRepository(db)
		docRepo = document.NewPostgresRepository(db)
		prinStore = principal.NewPostgresStore(db)
	} else {
		logger.Warn("database.url not set — running with in-memory storage; all state is lost on restart")
		chain = anchorchain.New()
		didRepo = did.NewMemoryRepository()
		credRepo = credential.NewMemoryRepository()
		docRepo = document.NewMemoryRepository()

		dev := &principal.Principal{ID: uuid.New(), Username: "dev", CreatedAt: time.Now().UTC()}
		prinStore = principal.NewMemoryStore(dev)
		logger.Info("seeded development principal", zap.String("principal_id", dev.ID.String()))
	}

	// ── Anchor chain startup check ───────────────────────────────────────────
	startCtx := context.Background()
	if err := chain.Verify(startCtx); err != nil {
		logger.Warn("anchor chain integrity check FAILED", zap.Error(err))
	} else {
		n, _ := chain.Len(startCtx)
		root, _ := chain.Root(startCtx)
		logger.Info("anchor chain verified",
			zap.Int("entries", n),
			zap.String("root", root),
		)
	}

	// ── Ledger Router ────────────────────────────────────────────────────────
	gatewayTimeout, _ := time.ParseDuration(viper.GetString("ledger.gateway_timeout"))
	if gatewayTimeout == 0 {
		gatewayTimeout = 10 * time.Second
	}

	policy := ledger.DefaultFallbackPolicy()
	if viper.GetString("ledger.fallback_policy") == "strict" {
		policy = ledger.StrictFallbackPolicy()
		logger.Info("ledger fallback policy: strict — backend failures propagate")
	}

	router := ledger.NewRouter(policy, logger,
		ledger.NewChainAdapter(chain, logger),
		ledger.NewCredentialAdapter(viper.GetString("ledger.credential_gateway_url"), gatewayTimeout, logger),
		ledger.NewChannelAdapter(viper.GetString("ledger.channel_gateway_url"), viper.GetString("ledger.channel_name"), gatewayTimeout, logger),
	)
	defer router.Close() //nolint:errcheck

	// ── Gateway liveness probes ──────────────────────────────────────────────
	healthEvery, _ := time.ParseDuration(viper.GetString("health.check_interval"))
	checker := health.New([]health.Target{
		{Backend: ledger.BackendCredential, Endpoint: viper.GetString("ledger.credential_gateway_url")},
		{Backend: ledger.BackendChannel, Endpoint: viper.GetString("ledger.channel_gateway_url")},
	}, health.Config{CheckInterval: healthEvery}, logger)

	// ── Key custody ──────────────────────────────────────────────────────────
	masterSecret := viper.GetString("custody.master_secret")
	if masterSecret == "" {
		masterSecret = "trustcore-dev-master-secret"
		logger.Warn("custody.master_secret not set — using built-in development secret; do not use in production")
	}
	keeper, err := custody.NewKeeper([]byte(masterSecret))
	if err != nil {
		return fmt.Errorf("key custody setup: %w", err)
	}

	// ── Content store ────────────────────────────────────────────────────────
	var blobStore contentstore.Store
	if dir := viper.GetString("content_store.dir"); dir != "" {
		fs, err := contentstore.NewFileStore(dir)
		if err != nil {
			return fmt.Errorf("content store setup: %w", err)
		}
		blobStore = fs
		logger.Info("content store: filesystem", zap.String("dir", dir))
	} else {
		blobStore = contentstore.NewMemoryStore()
		logger.Warn("content_store.dir not set — document blobs are held in memory only")
	}

	// ── Wire up services ─────────────────────────────────────────────────────
	keystore := did.NewMemoryKeystore()
	didSvc := did.NewManager(didRepo, keystore, router, prinStore, logger)
	credSvc := credential.NewEngine(credRepo, didSvc, keystore, router, logger)
	docSvc := document.NewPipeline(docRepo, blobStore, keeper, router, didSvc, nil, logger)
	proofSvc := proof.NewEngine(credSvc, logger)

	didHandler := api.NewDIDHandler(didSvc, logger)
	credHandler := api.NewCredentialHandler(credSvc, keystore, logger)
	docHandler := api.NewDocumentHandler(docSvc, logger)
	proofHandler := api.NewProofHandler(proofSvc, logger)
	ledgerHandler := api.NewLedgerHandler(chain, router, logger)

	// ── HTTP Router ──────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsOrigins := viper.GetStringSlice("server.cors_origins")
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Security headers
	engine.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Request body size limit (4 MB; document uploads carry base64 content)
	engine.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 4<<20)
		c.Next()
	})

	rps := viper.GetInt("server.rate_limit_rps")
	if rps > 0 {
		engine.Use(api.RateLimiter(rps, rps*2))
	}

	engine.Use(api.PrometheusMiddleware())
	engine.Use(requestLogger(logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "gateways": checker.Snapshot()})
	})
	engine.GET("/metrics", api.MetricsHandler())

	v1 := engine.Group("/api/v1")
	didHandler.Register(v1)
	credHandler.Register(v1)
	docHandler.Register(v1)
	proofHandler.Register(v1)
	ledgerHandler.Register(v1)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go checker.Start(quit)

	// ── Background: reconcile credentials of revoked DIDs ────────────────────
	reconcileEvery, _ := time.ParseDuration(viper.GetString("reconcile.interval"))
	if reconcileEvery > 0 {
		go func() {
			ticker := time.NewTicker(reconcileEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					if n, err := credSvc.ReconcileRevokedDIDs(ctx); err != nil {
						logger.Warn("credential reconciliation error", zap.Error(err))
					} else if n > 0 {
						logger.Info("credential reconciliation flagged credentials", zap.Int("flagged", n))
					}
					cancel()
				case <-quit:
					return
				}
			}
		}()
	}

	httpPort := viper.GetInt("server.port")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", httpPort),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("trustd HTTP listening", zap.Int("port", httpPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	<-quit
	logger.Info("shutting down trustd...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("trustd stopped")
	return nil
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
