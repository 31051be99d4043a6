package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/activities"
	"urs-backend/internal/artifacts"
	googleauth "urs-backend/internal/auth"
	"urs-backend/internal/dashboard"
	"urs-backend/internal/drafting"
	"urs-backend/internal/llm"
	"urs-backend/internal/llm/openrouter"
	"urs-backend/internal/notes"
	"urs-backend/internal/notifications"
	"urs-backend/internal/pics"
	"urs-backend/internal/reports"
	"urs-backend/internal/requests"
	"urs-backend/internal/services/health"
	"urs-backend/internal/shared/auth"
	"urs-backend/internal/shared/config"
	"urs-backend/internal/shared/server"
	"urs-backend/internal/shared/server/middleware"
	"urs-backend/internal/shared/storage/db"
	"urs-backend/internal/shared/storage/object"
	localstore "urs-backend/internal/shared/storage/object/local"
	s3store "urs-backend/internal/shared/storage/object/s3"
	"urs-backend/internal/users"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Signer *auth.Signer

	UsersService         *users.Service
	RequestsService      *requests.Service
	ArtifactsService     *artifacts.Service
	ActivitiesService    *activities.Service
	NotesService         *notes.Service
	NotificationsService *notifications.Service
	DraftingService      *drafting.Service
	ReportsService       *reports.Service
	DashboardService     *dashboard.Service
	PICsService          *pics.Service
}

type repos struct {
	users         users.Repo
	requests      requests.Repo
	artifacts     artifacts.Repo
	activities    activities.Repo
	notes         notes.Repo
	notifications notifications.Repo
	dashboard     dashboard.Repo
	pics          pics.Repo
}

// Build prepares every dependency and the router. Without a database in a
// dev-like environment the whole stack runs in memory with seeded accounts.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.Env)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store, Signer: signer}
	r := buildRepos(sqlDB)
	if err := buildServices(app, r); err != nil {
		return nil, err
	}
	if sqlDB == nil && cfg.SeedAdminEmail != "" {
		seeded, err := app.UsersService.Seed(ctx, cfg.SeedAdminEmail, cfg.SeedUserDomain)
		if err != nil {
			return nil, fmt.Errorf("seed memory users: %w", err)
		}
		log.Printf("bootstrap: seeded %d in-memory accounts", len(seeded))
	}

	googleAuth := googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.UsersService,
		signer,
	)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		Signer:            signer,
		Health:            health.NewService(pinger(sqlDB)),
		Limiter:           middleware.NewRateLimiter(nil),
		RateLimitedRoutes: map[string]string{drafting.DraftRoute: server.DraftingGroup},
		Public:            []server.RouteRegistrar{googleAuth},
		Protected: []server.RouteRegistrar{
			users.NewHandler(app.UsersService),
			requests.NewHandler(app.RequestsService),
			artifacts.NewHandler(app.ArtifactsService),
			notes.NewHandler(app.NotesService),
			drafting.NewHandler(app.DraftingService),
			reports.NewHandler(app.ReportsService),
			notifications.NewHandler(app.NotificationsService),
		},
		Admin: []server.RouteRegistrar{
			dashboard.NewHandler(app.DashboardService),
			activities.NewHandler(app.ActivitiesService),
			pics.NewHandler(app.PICsService),
		},
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	var store object.ObjectStore
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		remote, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		store = remote
	default:
		store = localstore.New(cfg.LocalStoreDir)
	}
	return object.WithTimeout(store, cfg.ObjectStoreTimeout), nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildRepos(sqlDB *sql.DB) repos {
	if sqlDB != nil {
		return repos{
			users:         &users.PGRepo{DB: sqlDB},
			requests:      &requests.PGRepo{DB: sqlDB},
			artifacts:     &artifacts.PGRepo{DB: sqlDB},
			activities:    &activities.PGRepo{DB: sqlDB},
			notes:         &notes.PGRepo{DB: sqlDB},
			notifications: &notifications.PGRepo{DB: sqlDB},
			dashboard:     &dashboard.PGRepo{DB: sqlDB},
			pics:          &pics.PGRepo{DB: sqlDB},
		}
	}
	inbox := notifications.NewMemoryRepo()
	requestRepo := requests.NewMemoryRepo(inbox)
	return repos{
		users:         users.NewMemoryRepo(),
		requests:      requestRepo,
		artifacts:     artifacts.NewMemoryRepo(),
		activities:    activities.NewMemoryRepo(),
		notes:         notes.NewMemoryRepo(),
		notifications: inbox,
		dashboard:     dashboard.NewMemoryRepo(requestRepo),
		pics:          pics.NewMemoryRepo(),
	}
}

func buildServices(app *App, r repos) error {
	cfg := app.Config

	userSvc := users.NewService(r.users)
	requestSvc := &requests.Service{
		Repo:       r.requests,
		Store:      app.Store,
		Recipients: userSvc,
		Artifacts:  r.artifacts,
		Activities: r.activities,
		Notes:      r.notes,
		AppBaseURL: cfg.AppBaseURL,
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		return err
	}

	app.UsersService = userSvc
	app.RequestsService = requestSvc
	app.ArtifactsService = &artifacts.Service{Repo: r.artifacts, Store: app.Store, Requests: requestSvc}
	app.PICsService = &pics.Service{Repo: r.pics}
	app.ActivitiesService = &activities.Service{Repo: r.activities, Requests: requestSvc, PICs: app.PICsService}
	app.NotesService = &notes.Service{Repo: r.notes, Store: app.Store, Requests: requestSvc}
	app.NotificationsService = &notifications.Service{Repo: r.notifications}
	app.DraftingService = &drafting.Service{
		Requests:  requestSvc,
		Store:     app.Store,
		Generator: generator,
		MaxTokens: cfg.LLMMaxTokens,
	}
	app.ReportsService = &reports.Service{
		Requests: requestSvc,
		Renderer: &reports.HTTPRenderer{URL: cfg.PDFRendererURL, Timeout: cfg.PDFRenderTimeout},
		BaseURL:  cfg.APIBaseURL,
	}
	app.DashboardService = &dashboard.Service{Repo: r.dashboard}
	return nil
}

func buildGenerator(cfg config.Config) (llm.Generator, error) {
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		log.Printf("bootstrap: LLM_API_KEY empty; AI drafting disabled")
		return llm.PlaceholderClient{}, nil
	}
	client, err := openrouter.NewClient(openrouter.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Models:  cfg.LLMModels,
		Timeout: cfg.LLMTimeout,
		Referer: cfg.AppBaseURL,
		Title:   "URS",
	})
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	return client, nil
}

// pinger keeps a nil *sql.DB from becoming a non-nil interface.
func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}
