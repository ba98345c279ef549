package advisor

import (
	"strings"
	"testing"

	"auratrade/internal/domain"
)

func TestBuildSystemPromptContainsPersona(t *testing.T) {
	prompt := BuildSystemPrompt("some context")
	if !strings.Contains(prompt, "quantitative research desk") {
		t.Fatal("expected persona in prompt")
	}
	if !strings.Contains(prompt, "SIMULATED MARKET DATA") {
		t.Fatal("expected market data header in prompt")
	}
	if !strings.Contains(prompt, "some context") {
		t.Fatal("expected market context in prompt")
	}
}

func TestBuildSystemPromptWithoutContext(t *testing.T) {
	if strings.Contains(BuildSystemPrompt(""), "SIMULATED MARKET DATA") {
		t.Fatal("market data header should be omitted without context")
	}
}

func TestAnalysisPromptUsesStrategyLabel(t *testing.T) {
	prompt := AnalysisPrompt("ETH/USDT", domain.StrategyDCA)
	if !strings.Contains(prompt, "ETH/USDT") || !strings.Contains(prompt, "Dollar Cost Averaging") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
}

func TestBacktestPromptListsComponents(t *testing.T) {
	prompt := BacktestPrompt("BTC/USDT", "4H", []string{"Moving Average Crossover", "Whale Alerts"})
	if !strings.Contains(prompt, "Moving Average Crossover, Whale Alerts") {
		t.Fatalf("components missing: %s", prompt)
	}
	if strings.Contains(prompt, "%!") {
		t.Fatalf("bad format verb in prompt: %s", prompt)
	}
}

func TestFormatMarketContextFiltersBySymbol(t *testing.T) {
	pnl := 1.5
	radar := []domain.RadarSignal{
		{Pair: "ETH/USDT", Signal: domain.SideBuy, Confidence: 88.2, ProjectedReturn: 3.45},
		{Pair: "SOL/USDT", Signal: domain.SideSell, Confidence: 79.5, ProjectedReturn: -2.1},
	}
	daily := []domain.DailySignal{
		{Pair: "ETH/USDT", Type: domain.PositionLong, Status: domain.SignalClosed, EntryPrice: 3100, PNL: &pnl},
	}

	ctx := FormatMarketContext([]string{"ETH"}, radar, daily)
	if !strings.Contains(ctx, "ETH/USDT BUY confidence=88.2%") {
		t.Fatalf("expected ETH radar line, got: %s", ctx)
	}
	if strings.Contains(ctx, "SOL/USDT") {
		t.Fatalf("SOL should be filtered out: %s", ctx)
	}
	if !strings.Contains(ctx, "pnl=+1.50%") {
		t.Fatalf("expected closed pnl, got: %s", ctx)
	}
}

func TestFormatMarketContextEmpty(t *testing.T) {
	ctx := FormatMarketContext(nil, nil, nil)
	if ctx != "No market data currently available." {
		t.Fatalf("expected fallback text, got: %s", ctx)
	}
}
