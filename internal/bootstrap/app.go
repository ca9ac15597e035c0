package bootstrap

import (
	"context"
	"database/sql"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2/clientcredentials"

	"juris-backend/internal/clients"
	"juris-backend/internal/dashboard"
	"juris-backend/internal/llm"
	openai "juris-backend/internal/llm/openai"
	"juris-backend/internal/process"
	"juris-backend/internal/services/health"
	"juris-backend/internal/sessions"
	"juris-backend/internal/shared/auth"
	"juris-backend/internal/shared/config"
	"juris-backend/internal/shared/server"
	"juris-backend/internal/shared/storage/db"
	"juris-backend/internal/shared/storage/object"
	localstore "juris-backend/internal/shared/storage/object/local"
	s3store "juris-backend/internal/shared/storage/object/s3"
	"juris-backend/internal/shared/telemetry"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    object.ObjectStore
	Sessions sessions.Store
	Models   *llm.Registry
	Health   *health.Service

	ClientsRepo      clients.Repo
	ClientsService   *clients.Service
	DashboardService *dashboard.Service
	ProcessService   *process.Service

	ClientHandler    *clients.Handler
	DashboardHandler *dashboard.Handler
	ProcessHandler   *process.Handler

	closers []io.Closer
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	app := &App{
		Config: cfg,
		Health: health.NewService(),
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		app.DB = sqlDB
		app.closers = append(app.closers, sqlDB)
		app.Health.Register("database", sqlDB.PingContext)
	}

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}

	if err := buildSessions(ctx, app); err != nil {
		return nil, err
	}

	if app.Models, err = buildModels(cfg); err != nil {
		return nil, err
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	var signer *auth.Signer
	if strings.TrimSpace(cfg.JWTSecret) != "" {
		if signer, err = auth.NewSigner(cfg.JWTSecret); err != nil {
			return nil, err
		}
	} else if cfg.AuthRequired {
		telemetry.Warn("bootstrap.jwt.disabled", map[string]any{"reason": "JWT_SECRET empty; only guest identities accepted"})
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		Signer:           signer,
		Health:           app.Health,
		ClientHandler:    app.ClientHandler,
		DashboardHandler: app.DashboardHandler,
		ProcessHandler:   app.ProcessHandler,
	})

	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	a.closers = nil
	return errs
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Info("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		if err = db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.fallback", map[string]any{
				"err":         err.Error(),
				"unreachable": errors.Is(err, db.ErrUnavailable),
			})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		store, err := s3store.New(ctx, s3store.Config{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildSessions(ctx context.Context, app *App) error {
	cfg := app.Config
	if strings.TrimSpace(cfg.RedisURL) != "" {
		store, err := sessions.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err == nil {
			app.Sessions = store
			app.closers = append(app.closers, store)
			app.Health.Register("redis", store.Ping)
			return nil
		}
		if !config.IsDevLike(cfg.Env) {
			return err
		}
		telemetry.Warn("bootstrap.sessions.fallback", map[string]any{"err": err.Error()})
	}
	app.Sessions = sessions.NewMemoryStore(cfg.SessionCacheSize, cfg.SessionTTL)
	return nil
}

func buildModels(cfg config.Config) (*llm.Registry, error) {
	registry := llm.NewRegistry()
	endpoints, err := llm.ParseEndpoints(cfg.InferenceHost, cfg.InferenceModels)
	if err != nil {
		return nil, err
	}

	var oauth *clientcredentials.Config
	if strings.TrimSpace(cfg.InferenceTokenURL) != "" {
		oauth = &clientcredentials.Config{
			ClientID:     cfg.InferenceClientID,
			ClientSecret: cfg.InferenceClientSecret,
			TokenURL:     cfg.InferenceTokenURL,
		}
	}

	attempts := uint(0)
	if cfg.InferenceMaxAttempts > 0 {
		attempts = uint(cfg.InferenceMaxAttempts)
	}
	for _, ep := range endpoints {
		client, err := openai.NewClient(openai.Options{
			BaseURL:     ep.BaseURL,
			APIKey:      cfg.InferenceAPIKey,
			OAuth:       oauth,
			Timeout:     cfg.InferenceTimeout,
			MaxAttempts: attempts,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "model %s", ep.Model)
		}
		registry.Register(ep.Model, client)
	}
	telemetry.Info("bootstrap.models", map[string]any{"models": registry.Names()})
	return registry, nil
}

func buildServices(ctx context.Context, app *App) error {
	if app.DB != nil {
		app.ClientsRepo = &clients.PGRepo{DB: app.DB}
	} else {
		app.ClientsRepo = clients.NewMemoryRepo()
	}
	app.ClientsService = clients.NewService(app.ClientsRepo)
	if _, err := app.ClientsService.SeedFile(ctx, app.Config.SeedCSV); err != nil {
		telemetry.Warn("bootstrap.seed.failed", map[string]any{"path": app.Config.SeedCSV, "err": err.Error()})
	}

	refDate, err := app.Config.ReferenceTime()
	if err != nil {
		return errors.Wrap(err, "REFERENCE_DATE must be YYYY-MM-DD")
	}
	app.DashboardService = dashboard.NewService(app.ClientsService, refDate)
	app.ProcessService = process.NewService(app.Models, app.Sessions, app.Store, app.Config.DefaultModel)

	app.ClientHandler = clients.NewHandler(app.ClientsService)
	app.DashboardHandler = dashboard.NewHandler(app.DashboardService)
	app.ProcessHandler = process.NewHandler(app.ProcessService)
	return nil
}
