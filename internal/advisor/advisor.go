// Package advisor is the text-generation collaborator behind the AI panels.
// Every call degrades to a canned reply instead of returning an error.
package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"auratrade/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultCacheTTL = 5 * time.Minute

var errNoBackend = errors.New("no text-generation backend configured")

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// ResponseCache is the subset of the Redis client used to memoise replies.
type ResponseCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Generator is what the panel orchestrators need from a text backend.
type Generator interface {
	GlobalInsights(ctx context.Context) string
	TradingAnalysis(ctx context.Context, pair string, strategy domain.BotStrategy) string
	AgentResponse(ctx context.Context, bot domain.Bot, query, marketContext string) string
	PatternAnalysis(ctx context.Context, asset string) domain.PatternResult
	Backtest(ctx context.Context, pair, timeframe string, components []string) string
	Mission(ctx context.Context) string
}

type Service struct {
	tracer   trace.Tracer
	llm      LLMClient
	cache    ResponseCache
	model    string
	cacheTTL time.Duration
	budget   *callBudget
}

// NewService builds the collaborator. A nil llm makes every call return its
// fallback; a nil cache disables caching.
func NewService(tracer trace.Tracer, llm LLMClient, cache ResponseCache, model string, cacheTTL time.Duration) *Service {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Service{
		tracer:   tracer,
		llm:      llm,
		cache:    cache,
		model:    model,
		cacheTTL: cacheTTL,
	}
}

var _ Generator = (*Service)(nil)

func (s *Service) GlobalInsights(ctx context.Context) string {
	ctx, span := s.tracer.Start(ctx, "advisor.global-insights")
	defer span.End()

	reply, _, err := s.complete(ctx, InsightsPrompt(), "")
	if err != nil {
		span.RecordError(err)
		return InsightsFallback
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return InsightsEmpty
	}
	return reply
}

func (s *Service) TradingAnalysis(ctx context.Context, pair string, strategy domain.BotStrategy) string {
	ctx, span := s.tracer.Start(ctx, "advisor.trading-analysis")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair))

	prompt := AnalysisPrompt(pair, strategy)
	reply, err := s.cached(ctx, "analysis", prompt)
	if err != nil {
		span.RecordError(err)
		return AnalysisFallback
	}
	if reply == "" {
		return AnalysisEmpty
	}
	return reply
}

func (s *Service) AgentResponse(ctx context.Context, bot domain.Bot, query, marketContext string) string {
	ctx, span := s.tracer.Start(ctx, "advisor.agent-response")
	defer span.End()
	span.SetAttributes(attribute.String("bot_id", bot.ID))

	reply, _, err := s.complete(ctx, AgentPrompt(bot, query), marketContext)
	if err != nil {
		span.RecordError(err)
		return AgentFallback
	}
	if reply == "" {
		return AgentEmpty
	}
	return reply
}

func (s *Service) PatternAnalysis(ctx context.Context, asset string) domain.PatternResult {
	ctx, span := s.tracer.Start(ctx, "advisor.pattern-analysis")
	defer span.End()
	span.SetAttributes(attribute.String("asset", asset))

	reply, sources, err := s.complete(ctx, PatternPrompt(asset), "")
	if err != nil {
		span.RecordError(err)
		log.Printf("pattern analysis failed for %s: %v", asset, err)
		return domain.PatternResult{Analysis: PatternFallback(asset)}
	}
	if reply == "" {
		reply = PatternEmpty(asset)
	}
	return domain.PatternResult{Analysis: reply, Sources: sources}
}

func (s *Service) Backtest(ctx context.Context, pair, timeframe string, components []string) string {
	ctx, span := s.tracer.Start(ctx, "advisor.backtest")
	defer span.End()
	span.SetAttributes(
		attribute.String("pair", pair),
		attribute.String("timeframe", timeframe),
	)

	reply, err := s.cached(ctx, "backtest", BacktestPrompt(pair, timeframe, components))
	if err != nil || reply == "" {
		if err != nil {
			span.RecordError(err)
		}
		return BacktestFallback
	}
	return reply
}

// Mission returns the raw JSON of a quiz mission.
func (s *Service) Mission(ctx context.Context) string {
	ctx, span := s.tracer.Start(ctx, "advisor.mission")
	defer span.End()

	reply, _, err := s.complete(ctx, MissionPrompt(), "")
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			span.RecordError(err)
		}
		return DefaultMissionPayload
	}
	return reply
}

func cacheKey(kind, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "ai:" + kind + ":" + hex.EncodeToString(sum[:8])
}

// cached serves prompt from the response cache, falling through to the
// backend on a miss. Only non-empty replies are stored.
func (s *Service) cached(ctx context.Context, kind, prompt string) (string, error) {
	key := cacheKey(kind, prompt)
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, key).Result()
		switch {
		case err == nil:
			return hit, nil
		case !errors.Is(err, redis.Nil):
			log.Printf("redis cache read error: %v", err)
		}
	}

	reply, _, err := s.complete(ctx, prompt, "")
	if err != nil {
		return "", err
	}
	if s.cache != nil && reply != "" {
		if err := s.cache.Set(ctx, key, reply, s.cacheTTL).Err(); err != nil {
			log.Printf("redis cache write error: %v", err)
		}
	}
	return reply, nil
}

func (s *Service) complete(ctx context.Context, prompt, marketContext string) (string, []domain.GroundingSource, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.llm-call")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", s.model))

	if s.llm == nil {
		return "", nil, errNoBackend
	}
	if s.budget != nil && !s.budget.take() {
		span.SetAttributes(attribute.Bool("llm.throttled", true))
		return "", nil, errBudgetExhausted
	}

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(BuildSystemPrompt(marketContext)),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", nil, err
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", nil, fmt.Errorf("no choices in LLM response")
	}

	msg := completion.Choices[0].Message
	reply := strings.TrimSpace(msg.Content)
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, citationSources(msg.Annotations), nil
}

// citationSources keeps URL citations that carry a link, titling the rest.
func citationSources(annotations []openai.ChatCompletionMessageAnnotation) []domain.GroundingSource {
	var out []domain.GroundingSource
	for _, a := range annotations {
		uri := strings.TrimSpace(a.URLCitation.URL)
		if uri == "" {
			continue
		}
		title := strings.TrimSpace(a.URLCitation.Title)
		if title == "" {
			title = "Untitled Source"
		}
		out = append(out, domain.GroundingSource{URI: uri, Title: title})
	}
	return out
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
