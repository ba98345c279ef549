package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auratrade/internal/advisor"
	"auratrade/internal/app"
	"auratrade/internal/bot"
	"auratrade/internal/cache"
	"auratrade/internal/config"
	"auratrade/internal/handler"
	"auratrade/internal/mcp"
	"auratrade/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "auratrade/docs"
)

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	connectRedisFunc    = cache.Connect
	initTracerFunc      = tracing.InitTracer
	newOpenAIClientFunc = advisor.NewOpenAIClient
	newAppFunc          = app.New
	startAppFunc        = func(a *app.App, ctx context.Context) { a.Start(ctx) }
	startTelegramFunc   = bot.StartTelegramBot
	newRouterFunc       = gin.Default
	setupSignalNotify   = signal.Notify
	waitForSignalFunc   = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownServerFunc  = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           AuraTrade API
// @version         1.0
// @description     Simulated crypto trading dashboard: wallet lifecycle, bots, signals and AI panels.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	if err := loadEnvFunc(); err != nil {
		log.Println("No .env file loaded, using process environment")
	}
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{Enabled: cfg.TracingEnabled, Endpoint: cfg.OTLPEndpoint})
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	rdb, err := connectRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: redis unavailable, session memory and AI cache disabled: %v", err)
		rdb = nil
	}
	if rdb != nil {
		defer closeRedis(rdb)
	}

	var llm advisor.LLMClient
	if cfg.OpenAIAPIKey != "" {
		llm = newOpenAIClientFunc(cfg.OpenAIAPIKey)
	}

	core, err := newAppFunc(cfg, tracer, rdb, llm)
	if err != nil {
		log.Fatalf("failed to assemble session core: %v", err)
	}
	defer core.Close()

	relay, err := startTelegramFunc(ctx, cfg.TelegramBotToken, cfg.TelegramChatID, core.Store)
	if err != nil {
		log.Printf("Warning: telegram bot disabled: %v", err)
	} else if relay != nil {
		core.Observe(relay)
	}

	startAppFunc(core, ctx)

	deps := handler.Deps{
		Store:     core.Store,
		Sessions:  core.Sessions,
		Ledger:    core.Ledger,
		Settings:  core.Settings,
		Gate:      core.Gate,
		Panels:    core.Panels,
		Connector: core.Connector,
		Provider:  core.Provider,
		Stream:    core.Stream,
	}
	if rdb != nil {
		deps.Redis = rdb
	}
	h := handler.New(tracer, deps)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	servers := []*http.Server{{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}}
	if cfg.MCPTransport == "http" {
		tools := mcp.NewTools(tracer, core.Store, core.Ledger)
		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort),
			Handler: mcp.NewHTTPHandler(mcp.NewServer(tools)),
		})
	}

	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Printf("HTTP server listening on %s", srv.Addr)
			if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
				log.Fatalf("listen: %s\n", err)
			}
		}(srv)
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	for _, srv := range servers {
		if err := shutdownServerFunc(srv, shutdownCtx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}
	}

	log.Println("Server exiting")
}

func closeRedis(rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		log.Printf("error closing redis: %v", err)
	}
}
