package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/launchpadder/launchpadder/client"
	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/x/auth"
	"github.com/launchpadder/launchpadder/x/instance"
	"github.com/launchpadder/launchpadder/x/ratelimit"
	"github.com/launchpadder/launchpadder/x/rewriter"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/plugin/opentelemetry/tracing"
)

const launchpadderBanner = `
 _                           _     ____           _     _
| |    __ _ _   _ _ __   ___| |__ |  _ \ __ _  __| | __| | ___ _ __
| |   / _' | | | | '_ \ / __| '_ \| |_) / _' |/ _' |/ _' |/ _ \ '__|
| |__| (_| | |_| | | | | (__| | | |  __/ (_| | (_| | (_| |  __/ |
|_____\__,_|\__,_|_| |_|\___|_| |_|_|   \__,_|\__,_|\__,_|\___|_|
`

type CustomHandler struct {
	slog.Handler
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {

	r.AddAttrs(slog.String("type", "app"))

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(slog.String("traceID", span.SpanContext().TraceID().String()))
		r.AddAttrs(slog.String("spanID", span.SpanContext().SpanID().String()))
	}

	return h.Handler.Handle(ctx, r)
}

var (
	version      = "unknown"
	buildMachine = "unknown"
	buildTime    = "unknown"
	goVersion    = "unknown"
)

func main() {

	fmt.Fprint(os.Stderr, launchpadderBanner)

	handler := &CustomHandler{Handler: slog.NewJSONHandler(os.Stdout, nil)}
	slogger := slog.New(handler)
	slog.SetDefault(slogger)

	slog.Info(fmt.Sprintf("LaunchPadder %s starting...", version))

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	config := Config{}
	configPath := os.Getenv("LAUNCHPADDER_CONFIG")
	if configPath == "" {
		configPath = "/etc/launchpadder/config.yaml"
	}

	err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
	}

	slog.Info(fmt.Sprintf("Config loaded! I am: %s", config.LaunchPadder.Site.Name))

	instance.Version = version

	if config.Server.EnableTrace {
		cleanup, err := setupTraceProvider(config.Server.TraceEndpoint, config.LaunchPadder.Site.Name+"/api", version)
		if err != nil {
			panic(err)
		}
		defer cleanup()

		skipper := otelecho.WithSkipper(
			func(c echo.Context) bool {
				return c.Path() == "/metrics" || c.Path() == "/api/health"
			},
		)
		e.Use(otelecho.Middleware("api", skipper))
	}

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: "lpapi",
		LabelFuncs: map[string]echoprometheus.LabelValueFunc{
			"url": func(c echo.Context, err error) string {
				return "REDACTED"
			},
		},
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/api/health"
		},
	}))

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.HTTPErrorHandler = errorHandler

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             300 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(config.Server.Dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		panic("failed to connect database")
	}
	sqlDB, err := db.DB() // for pinging
	if err != nil {
		panic("failed to connect database")
	}
	defer sqlDB.Close()

	err = db.Use(tracing.NewPlugin(
		tracing.WithDBName("postgres"),
	))
	if err != nil {
		panic("failed to setup tracing plugin")
	}

	// Migrate the schema
	slog.Info("start migrate")
	db.AutoMigrate(
		&core.Submission{},
		&core.FederatedSubmission{},
		&core.FederationPartner{},
		&core.FederationInstance{},
		&core.Profile{},
		&core.APIKey{},
		&core.BadgeDefinition{},
		&core.UserBadge{},
		&core.BadgeVerification{},
		&core.Vote{},
		&core.Comment{},
	)

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Server.RedisAddr,
		Password: "",
		DB:       config.Server.RedisDB,
	})
	err = redisotel.InstrumentTracing(
		rdb,
		redisotel.WithAttributes(
			attribute.KeyValue{
				Key:   "db.name",
				Value: attribute.StringValue("redis"),
			},
		),
	)
	if err != nil {
		panic("failed to setup tracing plugin")
	}

	mc := memcache.New(config.Server.MemcachedAddr)
	defer mc.Close()

	var limiter ratelimit.Store
	var memoryLimiter *ratelimit.MemoryStore
	if config.Server.RateLimitStore == "redis" {
		limiter = ratelimit.NewRedisStore(rdb)
	} else {
		memoryLimiter = ratelimit.NewMemoryStore()
		limiter = memoryLimiter
	}

	remote := client.NewClient()

	agent := SetupAgent(db, mc, memoryLimiter, remote, config.LaunchPadder)

	gate := SetupAuthMiddleware(db, limiter, config.LaunchPadder)

	authHandler := SetupAuthHandler(db, config.LaunchPadder)
	partnerHandler := SetupPartnerHandler(db)
	submissionHandler := SetupSubmissionHandler(db, mc, config.LaunchPadder)
	instanceHandler := SetupInstanceHandler(db, remote, config.LaunchPadder)
	federationHandler := SetupFederationHandler(db, mc, remote, config.LaunchPadder)
	badgeHandler := SetupBadgeHandler(db, config.LaunchPadder)
	voteHandler := SetupVoteHandler(db, mc, config.LaunchPadder)
	commentHandler := SetupCommentHandler(db, mc, config.LaunchPadder)

	rewriterService := rewriter.NewService(config.LaunchPadder)

	apiV1 := e.Group("/api/v1", gate.Gate)
	// auth
	apiV1.POST("/auth/token", authHandler.Token)

	// federation discovery
	apiV1.GET("/federation/info", instanceHandler.Info)
	apiV1.GET("/federation/directories", instanceHandler.Directories)
	apiV1.GET("/federation/instances", instanceHandler.List)
	apiV1.POST("/federation/instances", instanceHandler.Register)
	apiV1.GET("/federation/instances/:id", instanceHandler.Get)
	apiV1.DELETE("/federation/instances/:id", instanceHandler.Delete, gate.Restrict(auth.ISADMIN))

	// partner surface
	apiV1.POST("/submissions", submissionHandler.Ingest, gate.Restrict(auth.ISPARTNER))
	apiV1.POST("/badges/:badgeId/verify", badgeHandler.Verify)

	// partner administration
	apiV1.POST("/partners", partnerHandler.Create, gate.Restrict(auth.ISADMIN))
	apiV1.GET("/partners", partnerHandler.List, gate.Restrict(auth.ISADMIN))
	apiV1.GET("/partners/:id", partnerHandler.Get, gate.Restrict(auth.ISADMIN))
	apiV1.PUT("/partners/:id/status", partnerHandler.SetStatus, gate.Restrict(auth.ISADMIN))
	apiV1.DELETE("/partners/:id", partnerHandler.Delete, gate.Restrict(auth.ISADMIN))

	api := e.Group("/api", gate.Gate)
	// submission
	api.POST("/submissions", submissionHandler.Create, gate.Restrict(auth.ISUSER))
	api.GET("/submissions", submissionHandler.List)
	api.GET("/submissions/:id", submissionHandler.Get)
	api.PUT("/submissions/:id", submissionHandler.Update, gate.Restrict(auth.ISUSER))
	api.DELETE("/submissions/:id", submissionHandler.Delete, gate.Restrict(auth.ISUSER))
	api.PUT("/submissions/:id/status", submissionHandler.SetStatus, gate.Restrict(auth.ISMODERATOR))

	// federation fan-out
	api.POST("/submissions/:id/federate", federationHandler.Fanout, gate.Restrict(auth.ISUSER))
	api.GET("/submissions/:id/federation", federationHandler.GetBySubmission, gate.Restrict(auth.ISUSER))
	api.GET("/federation/submissions", federationHandler.List, gate.Restrict(auth.ISMODERATOR))

	// vote
	api.POST("/submissions/:id/vote", voteHandler.Create, gate.Restrict(auth.ISUSER))
	api.DELETE("/submissions/:id/vote", voteHandler.Delete, gate.Restrict(auth.ISUSER))

	// comment
	api.POST("/submissions/:id/comments", commentHandler.Create, gate.Restrict(auth.ISUSER))
	api.GET("/submissions/:id/comments", commentHandler.List)
	api.DELETE("/comments/:commentId", commentHandler.Delete, gate.Restrict(auth.ISUSER))

	// badge
	api.GET("/badges", badgeHandler.ListDefinitions)
	api.GET("/badges/:id", badgeHandler.GetDefinition)
	api.POST("/badges", badgeHandler.CreateDefinition, gate.Restrict(auth.ISADMIN))
	api.DELETE("/badges/:id", badgeHandler.DeleteDefinition, gate.Restrict(auth.ISADMIN))
	api.POST("/badges/:id/award", badgeHandler.Award, gate.Restrict(auth.ISADMIN))
	api.GET("/users/:userId/badges", badgeHandler.ListUserBadges)

	startTime := time.Now()

	e.GET("/api/health", func(c echo.Context) (err error) {
		ctx := c.Request().Context()

		if c.QueryParam("detailed") != "true" {
			err = sqlDB.Ping()
			if err != nil {
				return c.String(http.StatusInternalServerError, "db error")
			}

			err = rdb.Ping(ctx).Err()
			if err != nil {
				return c.String(http.StatusInternalServerError, "redis error")
			}

			return c.String(http.StatusOK, "ok")
		}

		checks := map[string]string{
			"database":  "ok",
			"redis":     "ok",
			"memcached": "ok",
			"rewriter":  "ok",
		}
		degraded := false
		unhealthy := false

		if err := sqlDB.Ping(); err != nil {
			checks["database"] = err.Error()
			unhealthy = true
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			unhealthy = true
		}
		if err := mc.Ping(); err != nil {
			checks["memcached"] = err.Error()
			degraded = true
		}
		if err := rewriterService.Ping(ctx); err != nil {
			checks["rewriter"] = err.Error()
			degraded = true
		}

		report := echo.Map{
			"status":  "healthy",
			"checks":  checks,
			"uptime":  time.Since(startTime).String(),
			"version": version,
		}

		if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
			if memInfo, err := proc.MemoryInfo(); err == nil {
				report["memory_rss_bytes"] = memInfo.RSS
			}
			if cpuPercent, err := proc.CPUPercent(); err == nil {
				report["cpu_percent"] = cpuPercent
			}
		}

		status := http.StatusOK
		if unhealthy {
			report["status"] = "unhealthy"
			status = http.StatusServiceUnavailable
		} else if degraded {
			report["status"] = "degraded"
		}

		return c.JSON(status, report)
	})

	e.GET("/metrics", echoprometheus.NewHandler())

	agent.Boot()
	e.Logger.Fatal(e.Start(":8000"))
}

// errorHandler maps tagged service errors onto the wire envelopes. The v1
// surface gets the federation envelope, everything else the plain one.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if httpError, ok := err.(*echo.HTTPError); ok {
		c.JSON(httpError.Code, echo.Map{"status": "error", "error": fmt.Sprintf("%v", httpError.Message)})
		return
	}

	apiErr := core.AsAPIError(err)
	if apiErr.Kind == core.KindInternal {
		slog.ErrorContext(c.Request().Context(), "unhandled error", slog.String("error", err.Error()))
	}

	if strings.HasPrefix(c.Path(), "/api/v1") {
		c.JSON(apiErr.HTTPStatus(), core.NewV1Error(apiErr.Code(), apiErr.Message))
		return
	}

	c.JSON(apiErr.HTTPStatus(), echo.Map{
		"status": "error",
		"error":  apiErr.Message,
		"code":   apiErr.Code(),
	})
}

func setupTraceProvider(endpoint string, serviceName string, serviceVersion string) (func(), error) {

	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)

	if err != nil {
		return nil, err
	}

	resource := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(serviceVersion),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource),
	)
	otel.SetTracerProvider(tracerProvider)

	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(propagator)

	cleanup := func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error(fmt.Sprintf("Failed to shutdown tracer provider: %v", err))
		}
	}
	return cleanup, nil
}
