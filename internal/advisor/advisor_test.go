package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"auratrade/internal/domain"

	"github.com/openai/openai-go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

func newTestService(llm LLMClient, cache ResponseCache) *Service {
	return NewService(trace.NewNoopTracerProvider().Tracer("test"), llm, cache, "gpt-4o-mini", time.Minute)
}

func reply(text string) *stubLLMClient {
	return &stubLLMClient{
		response: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: text}},
			},
		},
	}
}

func TestFallbacksOnLLMError(t *testing.T) {
	svc := newTestService(&stubLLMClient{err: errors.New("api down")}, nil)
	ctx := context.Background()
	bot := domain.Bot{ID: "b1", Name: "Alpha", Strategy: domain.StrategyGrid}

	if got := svc.GlobalInsights(ctx); got != InsightsFallback {
		t.Fatalf("insights: got %q", got)
	}
	if got := svc.TradingAnalysis(ctx, "BTC/USDT", domain.StrategyGrid); got != AnalysisFallback {
		t.Fatalf("analysis: got %q", got)
	}
	if got := svc.AgentResponse(ctx, bot, "status?", ""); got != AgentFallback {
		t.Fatalf("agent: got %q", got)
	}
	if got := svc.PatternAnalysis(ctx, "SOL/USDT"); got.Analysis != "Error|Unknown Timeframe|Pattern analysis module offline for SOL/USDT." || len(got.Sources) != 0 {
		t.Fatalf("pattern: got %+v", got)
	}
	if got := svc.Backtest(ctx, "BTC/USDT", "1D", []string{"ma"}); got != BacktestFallback {
		t.Fatalf("backtest: got %q", got)
	}
	if got := svc.Mission(ctx); got != DefaultMissionPayload {
		t.Fatalf("mission: got %q", got)
	}
}

func TestNilClientUsesFallbacks(t *testing.T) {
	svc := newTestService(nil, nil)
	if got := svc.TradingAnalysis(context.Background(), "ETH/USDT", domain.StrategyDCA); got != AnalysisFallback {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestEmptyReplies(t *testing.T) {
	svc := newTestService(reply("   "), nil)
	ctx := context.Background()

	if got := svc.GlobalInsights(ctx); got != InsightsEmpty {
		t.Fatalf("insights: got %q", got)
	}
	if got := svc.TradingAnalysis(ctx, "BTC/USDT", domain.StrategyGrid); got != AnalysisEmpty {
		t.Fatalf("analysis: got %q", got)
	}
	if got := svc.AgentResponse(ctx, domain.Bot{}, "hi", ""); got != AgentEmpty {
		t.Fatalf("agent: got %q", got)
	}
	if got := svc.PatternAnalysis(ctx, "BTC/USDT").Analysis; got != PatternEmpty("BTC/USDT") {
		t.Fatalf("pattern: got %q", got)
	}
	if got := svc.Backtest(ctx, "BTC/USDT", "1D", nil); got != BacktestFallback {
		t.Fatalf("backtest: got %q", got)
	}
}

func TestNoChoicesIsAnError(t *testing.T) {
	svc := newTestService(&stubLLMClient{response: &openai.ChatCompletion{}}, nil)
	if got := svc.GlobalInsights(context.Background()); got != InsightsFallback {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestAgentPromptCarriesBotAndContext(t *testing.T) {
	llm := reply("Hold the grid.")
	svc := newTestService(llm, nil)
	bot := domain.Bot{ID: "b1", Name: "Alpha", Pair: "BTC/USDT", Strategy: domain.StrategyGrid, PNL: 12.345}

	got := svc.AgentResponse(context.Background(), bot, "Should I widen the grid?", "Radar Signals: BTC BUY")
	if got != "Hold the grid." {
		t.Fatalf("unexpected reply %q", got)
	}
	if len(llm.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(llm.calls))
	}
	params := llm.calls[0]
	if params.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(params.Messages))
	}
}

func TestAnalysisIsCached(t *testing.T) {
	llm := reply("MAINTAIN")
	cache := newStubCache()
	svc := newTestService(llm, cache)
	ctx := context.Background()

	first := svc.TradingAnalysis(ctx, "BTC/USDT", domain.StrategyGrid)
	second := svc.TradingAnalysis(ctx, "BTC/USDT", domain.StrategyGrid)
	if first != "MAINTAIN" || second != "MAINTAIN" {
		t.Fatalf("unexpected replies %q %q", first, second)
	}
	if len(llm.calls) != 1 {
		t.Fatalf("expected cached second call, got %d LLM calls", len(llm.calls))
	}
	for key, ttl := range cache.ttls {
		if !strings.HasPrefix(key, "ai:analysis:") {
			t.Fatalf("unexpected cache key %q", key)
		}
		if ttl != time.Minute {
			t.Fatalf("unexpected ttl %v", ttl)
		}
	}

	svc.TradingAnalysis(ctx, "ETH/USDT", domain.StrategyGrid)
	if len(llm.calls) != 2 {
		t.Fatalf("different prompt should miss the cache")
	}
}

func TestFallbacksAreNotCached(t *testing.T) {
	cache := newStubCache()
	svc := newTestService(&stubLLMClient{err: errors.New("down")}, cache)
	svc.Backtest(context.Background(), "BTC/USDT", "4H", []string{"trend"})
	if len(cache.data) != 0 {
		t.Fatalf("fallback should not be cached, got %v", cache.data)
	}
}

func TestCacheReadErrorFallsThrough(t *testing.T) {
	llm := reply("100|10|50|-5|20|ok")
	cache := newStubCache()
	cache.getErr = errors.New("redis down")
	svc := newTestService(llm, cache)

	if got := svc.Backtest(context.Background(), "BTC/USDT", "1D", nil); got != "100|10|50|-5|20|ok" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestPatternSourcesFromCitations(t *testing.T) {
	llm := &stubLLMClient{
		response: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{
					Content: "Bull Flag|4H|Breakout above 70k.",
					Annotations: []openai.ChatCompletionMessageAnnotation{
						{URLCitation: openai.ChatCompletionMessageAnnotationURLCitation{URL: "https://example.com/a", Title: "Chart A"}},
						{URLCitation: openai.ChatCompletionMessageAnnotationURLCitation{URL: ""}},
						{URLCitation: openai.ChatCompletionMessageAnnotationURLCitation{URL: "https://example.com/b"}},
					},
				}},
			},
		},
	}
	got := newTestService(llm, nil).PatternAnalysis(context.Background(), "BTC/USDT")

	if got.Analysis != "Bull Flag|4H|Breakout above 70k." {
		t.Fatalf("unexpected analysis %q", got.Analysis)
	}
	want := []domain.GroundingSource{
		{URI: "https://example.com/a", Title: "Chart A"},
		{URI: "https://example.com/b", Title: "Untitled Source"},
	}
	if len(got.Sources) != len(want) {
		t.Fatalf("expected %d sources, got %+v", len(want), got.Sources)
	}
	for i := range want {
		if got.Sources[i] != want[i] {
			t.Fatalf("source %d: got %+v want %+v", i, got.Sources[i], want[i])
		}
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(trace.NewNoopTracerProvider().Tracer("test"), nil, nil, "", 0)
	if svc.model != "gpt-4o-mini" {
		t.Fatalf("expected default model, got %q", svc.model)
	}
	if svc.cacheTTL != DefaultCacheTTL {
		t.Fatalf("expected default ttl, got %v", svc.cacheTTL)
	}
}

// --- stubs ---

type stubLLMClient struct {
	response *openai.ChatCompletion
	err      error
	calls    []openai.ChatCompletionNewParams
}

func (s *stubLLMClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	s.calls = append(s.calls, params)
	return s.response, s.err
}

type stubCache struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newStubCache() *stubCache {
	return &stubCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubCache) Get(ctx context.Context, key string) *redis.StringCmd {
	if s.getErr != nil {
		return redis.NewStringResult("", s.getErr)
	}
	v, ok := s.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	s.data[key] = value.(string)
	s.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}
