package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/natalis-app/natalis-backend/config"
	"github.com/natalis-app/natalis-backend/internal/api/http/routes"
	"github.com/natalis-app/natalis-backend/internal/auth"
	authmw "github.com/natalis-app/natalis-backend/internal/auth/middleware"
	cronjob "github.com/natalis-app/natalis-backend/internal/charts/cron"
	chartdomain "github.com/natalis-app/natalis-backend/internal/charts/domain"
	charthttp "github.com/natalis-app/natalis-backend/internal/charts/http"
	"github.com/natalis-app/natalis-backend/internal/charts/renderer"
	chartrepo "github.com/natalis-app/natalis-backend/internal/charts/repository"
	"github.com/natalis-app/natalis-backend/internal/charts/request"
	"github.com/natalis-app/natalis-backend/internal/charts/sanitize"
	chartservice "github.com/natalis-app/natalis-backend/internal/charts/service"
	geohttp "github.com/natalis-app/natalis-backend/internal/geocoding/http"
	"github.com/natalis-app/natalis-backend/internal/geocoding/nominatim"
	georepo "github.com/natalis-app/natalis-backend/internal/geocoding/repository"
	geoservice "github.com/natalis-app/natalis-backend/internal/geocoding/service"
	"github.com/natalis-app/natalis-backend/internal/geocoding/tz"
	profilehttp "github.com/natalis-app/natalis-backend/internal/profiles/http"
	profilerepo "github.com/natalis-app/natalis-backend/internal/profiles/repository"
	profileservice "github.com/natalis-app/natalis-backend/internal/profiles/service"
	"github.com/natalis-app/natalis-backend/internal/rectification/engine"
	recthttp "github.com/natalis-app/natalis-backend/internal/rectification/http"
	rectrepo "github.com/natalis-app/natalis-backend/internal/rectification/repository"
	rectservice "github.com/natalis-app/natalis-backend/internal/rectification/service"
	"github.com/natalis-app/natalis-backend/internal/storage/postgres"
)

// App holds every long-lived component of the backend.
type App struct {
	Config       *config.Config
	Pool         *pgxpool.Pool
	SQL          *sql.DB
	Redis        *redis.Client
	Profiles     *profileservice.ProfileService
	Orchestrator *chartservice.Orchestrator
	Queue        *chartservice.Queue
	Worker       *chartservice.Worker
	Scheduler    *cronjob.Scheduler
	Sanitizer    *sanitize.Sanitizer
	Resolver     *geoservice.Resolver
}

// NewApp opens the stores and wires the chart, geocoding, profile and
// rectification components. Redis is optional: without it the geocode cache
// and build lock stay in process and rectification is unavailable.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	pool, err := OpenDB(ctx, DBOptions{
		DSN:      cfg.Database.ConnString(),
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	a.SQL, err = postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Redis, err = OpenRedis(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.Redis == nil {
		zap.L().Warn("REDIS_ADDR not set: using in-process cache and locks, rectification disabled")
	}

	opts, err := sanitize.LoadOptions(cfg.Chart.ThemeDefaultsPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Sanitizer = sanitize.New(opts)

	nations, err := request.LoadNationTable(cfg.Chart.CountryTablePath)
	if err != nil {
		a.Close()
		return nil, err
	}

	settings := chartdomain.Settings{
		Theme:            cfg.Chart.Theme,
		ZodiacType:       cfg.Chart.ZodiacType,
		HouseSystem:      cfg.Chart.HouseSystem,
		Language:         cfg.Chart.Language,
		GeonamesUsername: cfg.Chart.GeonamesUsername,
	}

	profiles := profilerepo.NewRepo(a.Pool)
	artifacts := chartrepo.NewArtifactRepository(a.SQL)

	var locker chartservice.Locker = chartservice.NewMemoryLocker()
	if a.Redis != nil {
		locker = chartservice.NewRedisLocker(a.Redis, cfg.Chart.LockTTL, 0)
	}

	a.Orchestrator = chartservice.NewOrchestrator(
		profiles,
		artifacts,
		request.NewBuilder(settings, nations),
		renderer.NewClient(cfg.Astro.BaseURL, cfg.Astro.APIKey, cfg.Astro.Timeout),
		locker,
		settings,
	)
	a.Queue = chartservice.NewQueue(cfg.Chart.QueueSize)
	a.Worker = chartservice.NewWorker(a.Queue, a.Orchestrator, 1)
	a.Scheduler = cronjob.NewScheduler(cfg.Chart.SweepSpec, artifacts, a.Queue)
	a.Profiles = profileservice.NewProfileService(profiles, a.Queue)

	var cache geoservice.Cache
	if a.Redis != nil {
		cache = georepo.NewCacheRepository(a.Redis, cfg.Geocoder.CacheTTL)
	}
	var locator tz.Locator
	if fl, err := tz.NewFinderLocator(); err != nil {
		zap.L().Warn("timezone finder unavailable", zap.Error(err))
	} else {
		locator = fl
	}
	a.Resolver = geoservice.NewResolver(
		nominatim.NewClient(cfg.Geocoder.BaseURL, cfg.Geocoder.Email, cfg.Geocoder.Language, cfg.Geocoder.Limit, cfg.Geocoder.Timeout),
		cache,
		locator,
		geoservice.ResolverOptions{Timeout: cfg.Geocoder.Timeout, RatePerSecond: cfg.Geocoder.RatePerSecond},
	)

	return a, nil
}

// Router builds the HTTP surface on top of the wired components.
func (a *App) Router(ctx context.Context, log *zap.Logger) (*gin.Engine, error) {
	authMW, err := a.authMiddleware(ctx)
	if err != nil {
		return nil, err
	}

	v1 := routes.V1Deps{
		Auth:     authMW,
		Geo:      geohttp.New(a.Resolver, geoservice.NewFeed(geoservice.DefaultFeedIdle)),
		Profiles: profilehttp.New(a.Profiles),
		Charts:   charthttp.New(a.Profiles, chartservice.NewReader(chartrepo.NewArtifactRepository(a.SQL), a.Sanitizer)),
	}

	var redisPing func(context.Context) error
	if a.Redis != nil {
		store := rectrepo.NewSessionRepository(a.Redis, a.Config.Rectification.SessionTTL)
		eng := engine.New(engine.NoTransitions{}, engine.DefaultWeights())
		v1.Rectification = recthttp.New(rectservice.NewSessionService(a.Profiles, store, eng))
		redisPing = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}

	return BuildRouter(RouterDeps{
		ServiceName:    "natalis-backend",
		Version:        a.Config.App.Version,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		Logger:         log,
		DBPing:         a.Pool.Ping,
		RedisPing:      redisPing,
		V1:             v1,
	}), nil
}

func (a *App) authMiddleware(ctx context.Context) (gin.HandlerFunc, error) {
	if a.Config.Firebase.CredentialsPath == "" {
		zap.L().Warn("FIREBASE_CREDENTIALS_PATH not set: trusting X-User-Id header")
		return auth.OptionalUser(), nil
	}
	client, err := auth.InitializeFirebase(ctx, &a.Config.Firebase)
	if err != nil {
		return nil, fmt.Errorf("firebase: %w", err)
	}
	return authmw.FirebaseAuthMiddleware(client), nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.SQL != nil {
		_ = a.SQL.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
