package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"auratrade/internal/app"
	"auratrade/internal/config"
	"auratrade/internal/mcp"
	"auratrade/pkg/tracing"

	"github.com/joho/godotenv"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	newAppFunc     = app.New
	runServerFunc  = func(ctx context.Context, s *sdk.Server) error {
		return s.Run(ctx, &sdk.StdioTransport{})
	}
)

// main serves the MCP tools over stdio against an in-process session that
// is logged in on start. Logs go to stderr so stdout stays protocol-only.
func main() {
	log.SetOutput(os.Stderr)
	if err := loadEnvFunc(); err != nil {
		log.Println("No .env file loaded, using process environment")
	}
	cfg := loadConfigFunc()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// stdout belongs to the protocol, so spans are never exported here.
	tp, tracer, err := initTracerFunc(ctx, tracing.Options{Enabled: false})
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	core, err := newAppFunc(cfg, tracer, nil, nil)
	if err != nil {
		log.Fatalf("failed to assemble session core: %v", err)
	}
	defer core.Close()

	if _, err := core.Sessions.Login(ctx, false); err != nil {
		log.Fatalf("failed to open session: %v", err)
	}

	server := mcp.NewServer(mcp.NewTools(tracer, core.Store, core.Ledger))
	if err := runServerFunc(ctx, server); err != nil && ctx.Err() == nil {
		log.Printf("MCP server stopped: %v", err)
	}
}
