// Package mcp exposes the session to MCP clients as a small tool set.
package mcp

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serverName = "auratrade"

type Snapshotter interface {
	Snapshot() session.State
}

type Ledger interface {
	Deposit(ctx context.Context, amount float64) error
	Withdraw(ctx context.Context, amount float64, address string) error
}

type Tools struct {
	tracer trace.Tracer
	store  Snapshotter
	ledger Ledger
}

func NewTools(tracer trace.Tracer, store Snapshotter, ledger Ledger) *Tools {
	return &Tools{tracer: tracer, store: store, ledger: ledger}
}

type empty struct{}

type WalletOutput struct {
	Authenticated bool                    `json:"authenticated"`
	Wallet        domain.WalletState      `json:"wallet"`
	Portfolio     domain.PortfolioMetrics `json:"portfolio"`
	Total         float64                 `json:"total"`
}

type BotsOutput struct {
	Bots []domain.Bot `json:"bots"`
}

type SignalsOutput struct {
	Radar []domain.RadarSignal `json:"radar"`
	Daily []domain.DailySignal `json:"daily"`
}

type DepositInput struct {
	Amount float64 `json:"amount" jsonschema:"amount of the base currency to deposit"`
}

type WithdrawInput struct {
	Amount  float64 `json:"amount" jsonschema:"amount to withdraw, at most the available balance"`
	Address string  `json:"address" jsonschema:"destination address"`
}

type TransferOutput struct {
	Accepted bool               `json:"accepted"`
	Wallet   domain.WalletState `json:"wallet"`
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(tools *Tools) *sdk.Server {
	s := sdk.NewServer(&sdk.Implementation{Name: serverName, Version: "1.0.0"}, nil)

	sdk.AddTool(s, &sdk.Tool{
		Name:        "get_wallet",
		Description: "Wallet balances and portfolio metrics of the trading session.",
	}, tools.GetWallet)
	sdk.AddTool(s, &sdk.Tool{
		Name:        "list_bots",
		Description: "All trading bots with status and performance.",
	}, tools.ListBots)
	sdk.AddTool(s, &sdk.Tool{
		Name:        "list_signals",
		Description: "Current radar and daily trading signals.",
	}, tools.ListSignals)
	sdk.AddTool(s, &sdk.Tool{
		Name:        "deposit",
		Description: "Start a simulated deposit. It settles after a short confirmation delay.",
	}, tools.Deposit)
	sdk.AddTool(s, &sdk.Tool{
		Name:        "withdraw",
		Description: "Start a simulated withdrawal. Amounts above the available balance are ignored.",
	}, tools.Withdraw)

	return s
}

// NewHTTPHandler serves s over the streamable HTTP transport.
func NewHTTPHandler(s *sdk.Server) http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server { return s }, nil)
}

func (t *Tools) GetWallet(ctx context.Context, _ *sdk.CallToolRequest, _ empty) (*sdk.CallToolResult, WalletOutput, error) {
	_, span := t.tracer.Start(ctx, "mcp.get-wallet")
	defer span.End()

	st := t.store.Snapshot()
	return nil, WalletOutput{
		Authenticated: st.Authenticated,
		Wallet:        st.Wallet,
		Portfolio:     st.Portfolio,
		Total:         st.Wallet.Total(),
	}, nil
}

func (t *Tools) ListBots(ctx context.Context, _ *sdk.CallToolRequest, _ empty) (*sdk.CallToolResult, BotsOutput, error) {
	_, span := t.tracer.Start(ctx, "mcp.list-bots")
	defer span.End()

	return nil, BotsOutput{Bots: t.store.Snapshot().Bots}, nil
}

func (t *Tools) ListSignals(ctx context.Context, _ *sdk.CallToolRequest, _ empty) (*sdk.CallToolResult, SignalsOutput, error) {
	_, span := t.tracer.Start(ctx, "mcp.list-signals")
	defer span.End()

	st := t.store.Snapshot()
	return nil, SignalsOutput{Radar: st.Radar, Daily: st.Daily}, nil
}

func (t *Tools) Deposit(ctx context.Context, _ *sdk.CallToolRequest, in DepositInput) (*sdk.CallToolResult, TransferOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.deposit")
	defer span.End()
	span.SetAttributes(attribute.Float64("amount", in.Amount))

	if err := t.ledger.Deposit(ctx, in.Amount); err != nil {
		return nil, TransferOutput{}, fmt.Errorf("deposit: %w", err)
	}
	accepted := in.Amount > 0 && !math.IsInf(in.Amount, 0)
	return nil, TransferOutput{Accepted: accepted, Wallet: t.store.Snapshot().Wallet}, nil
}

func (t *Tools) Withdraw(ctx context.Context, _ *sdk.CallToolRequest, in WithdrawInput) (*sdk.CallToolResult, TransferOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.withdraw")
	defer span.End()
	span.SetAttributes(attribute.Float64("amount", in.Amount))

	available := t.store.Snapshot().Wallet.Available
	if err := t.ledger.Withdraw(ctx, in.Amount, in.Address); err != nil {
		return nil, TransferOutput{}, fmt.Errorf("withdraw: %w", err)
	}
	accepted := in.Amount > 0 && in.Amount <= available
	return nil, TransferOutput{Accepted: accepted, Wallet: t.store.Snapshot().Wallet}, nil
}
