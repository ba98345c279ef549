// Package panel drives the AI panels: it flips their loading flags in the
// session state around each collaborator call and parses the replies into
// view data.
package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"auratrade/internal/advisor"
	"auratrade/internal/domain"
	"auratrade/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var ErrNotFound = errors.New("bot not found")

type RewardCreditor interface {
	CreditReward(ctx context.Context, amount float64, reason string) error
}

type Orchestrator struct {
	tracer  trace.Tracer
	store   *session.Store
	gen     advisor.Generator
	rewards RewardCreditor
}

func NewOrchestrator(tracer trace.Tracer, store *session.Store, gen advisor.Generator, rewards RewardCreditor) *Orchestrator {
	return &Orchestrator{tracer: tracer, store: store, gen: gen, rewards: rewards}
}

func (o *Orchestrator) bot(botID string) (domain.Bot, error) {
	snap := o.store.Snapshot()
	if !snap.Authenticated {
		return domain.Bot{}, session.ErrNotAuthenticated
	}
	b, i := snap.FindBot(botID)
	if i < 0 {
		return domain.Bot{}, ErrNotFound
	}
	return b, nil
}

// Analyze runs the strategy analysis for one bot.
func (o *Orchestrator) Analyze(ctx context.Context, botID string) (string, error) {
	ctx, span := o.tracer.Start(ctx, "panel.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("bot_id", botID))

	b, err := o.bot(botID)
	if err != nil {
		return "", err
	}
	gen, err := o.store.Mutate(func(tx *session.Tx) {
		tx.State.Panels.Analysis = session.AnalysisPanel{Loading: true, BotID: botID}
	})
	if err != nil {
		return "", err
	}

	result := o.gen.TradingAnalysis(ctx, b.Pair, b.Strategy)

	o.store.MutateIf(gen, func(tx *session.Tx) {
		if tx.State.Panels.Analysis.BotID != botID {
			return
		}
		tx.State.Panels.Analysis = session.AnalysisPanel{BotID: botID, Result: result}
	})
	return result, nil
}

// AskAgent sends query to the bot's agent and returns the conversation.
// Blank queries are ignored. Switching bots starts a new conversation.
func (o *Orchestrator) AskAgent(ctx context.Context, botID, query string) ([]domain.ChatMessage, error) {
	ctx, span := o.tracer.Start(ctx, "panel.ask-agent")
	defer span.End()
	span.SetAttributes(attribute.String("bot_id", botID))

	b, err := o.bot(botID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)

	var (
		conversation []domain.ChatMessage
		radar        []domain.RadarSignal
		daily        []domain.DailySignal
	)
	gen, err := o.store.Mutate(func(tx *session.Tx) {
		agent := tx.State.Panels.Agent
		if agent.BotID != botID {
			agent = session.AgentPanel{BotID: botID}
		}
		if query != "" {
			agent.Conversation = append(session.Clone(agent.Conversation), domain.ChatMessage{Sender: domain.SenderUser, Text: query})
			agent.Loading = true
		}
		tx.State.Panels.Agent = agent
		conversation = session.Clone(agent.Conversation)
		radar = session.Clone(tx.State.Radar)
		daily = session.Clone(tx.State.Daily)
	})
	if err != nil || query == "" {
		return conversation, err
	}

	market := advisor.FormatMarketContext(advisor.ExtractSymbols(query+" "+b.Pair), radar, daily)
	answer := o.gen.AgentResponse(ctx, b, query, market)

	o.store.MutateIf(gen, func(tx *session.Tx) {
		agent := tx.State.Panels.Agent
		if agent.BotID != botID {
			return
		}
		agent.Conversation = append(session.Clone(agent.Conversation), domain.ChatMessage{Sender: domain.SenderAI, Text: answer})
		agent.Loading = false
		tx.State.Panels.Agent = agent
		conversation = session.Clone(agent.Conversation)
	})
	return conversation, nil
}

// ScanPatterns asks for the dominant chart pattern of each scanned pair
// concurrently and waits for all of them.
func (o *Orchestrator) ScanPatterns(ctx context.Context) ([]domain.MarketPattern, error) {
	ctx, span := o.tracer.Start(ctx, "panel.scan-patterns")
	defer span.End()

	gen, err := o.store.Mutate(func(tx *session.Tx) {
		tx.State.Panels.Patterns = session.PatternPanel{Loading: true}
		tx.Audit("AI Market Structure Scan initiated.", domain.SeverityLow)
	})
	if err != nil {
		return nil, err
	}

	assets := domain.PatternScanPairs
	results := make([]domain.PatternResult, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	for i, asset := range assets {
		g.Go(func() error {
			results[i] = o.gen.PatternAnalysis(gctx, asset)
			return nil
		})
	}
	_ = g.Wait()

	patterns := make([]domain.MarketPattern, len(assets))
	for i, asset := range assets {
		patterns[i] = PatternFromResult(asset, results[i])
	}

	o.store.MutateIf(gen, func(tx *session.Tx) {
		tx.Audit(fmt.Sprintf("Pattern Scan complete: %d significant structures detected.", len(patterns)), domain.SeverityLow)
		tx.State.Panels.Patterns = session.PatternPanel{Patterns: patterns}
	})
	return patterns, nil
}

// ComponentLabels maps backtest component ids to their display names.
// Unknown ids are passed through as given.
func ComponentLabels(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if label, ok := domain.BacktestComponents[id]; ok {
			out = append(out, label)
			continue
		}
		out = append(out, id)
	}
	return out
}

// RunBacktest simulates a historical run of a strategy built from
// components.
func (o *Orchestrator) RunBacktest(ctx context.Context, pair, timeframe string, components []string) (domain.BacktestResults, error) {
	ctx, span := o.tracer.Start(ctx, "panel.run-backtest")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair), attribute.String("timeframe", timeframe))

	gen, err := o.store.Mutate(func(tx *session.Tx) {
		tx.State.Panels.Backtest = session.BacktestPanel{Loading: true}
		tx.Audit(fmt.Sprintf("Backtest initiated for %s on %s.", pair, timeframe), domain.SeverityMedium)
	})
	if err != nil {
		return domain.BacktestResults{}, err
	}

	raw := o.gen.Backtest(ctx, pair, timeframe, ComponentLabels(components))
	results := ParseBacktest(raw)

	o.store.MutateIf(gen, func(tx *session.Tx) {
		r := results
		tx.State.Panels.Backtest = session.BacktestPanel{Results: &r}
		tx.Audit(fmt.Sprintf("Backtest for %s completed. Return: %s%%", pair, strconv.FormatFloat(results.TotalReturn, 'f', -1, 64)), domain.SeverityLow)
	})
	return results, nil
}

// LoadMission fetches the next quiz. A reply that does not parse is
// replaced by the default mission.
func (o *Orchestrator) LoadMission(ctx context.Context) (*domain.EarnMission, error) {
	ctx, span := o.tracer.Start(ctx, "panel.load-mission")
	defer span.End()

	gen, err := o.store.Mutate(func(tx *session.Tx) {
		tx.State.Panels.Mission = session.MissionPanel{Loading: true}
	})
	if err != nil {
		return nil, err
	}

	m := ParseMission(o.gen.Mission(ctx))
	if m == nil {
		m = ParseMission(advisor.DefaultMissionPayload)
	}

	o.store.MutateIf(gen, func(tx *session.Tx) {
		tx.State.Panels.Mission = session.MissionPanel{Mission: m}
	})
	return m, nil
}

// CompleteMission checks answer against the open mission. A correct answer
// credits the reward once and loads the next mission; a wrong one changes
// nothing.
func (o *Orchestrator) CompleteMission(ctx context.Context, answer int) (bool, error) {
	ctx, span := o.tracer.Start(ctx, "panel.complete-mission")
	defer span.End()

	var solved *domain.EarnMission
	_, err := o.store.Mutate(func(tx *session.Tx) {
		m := tx.State.Panels.Mission.Mission
		if m == nil || tx.State.Panels.Mission.Loading || answer != m.CorrectAnswer {
			return
		}
		solved = m
		tx.State.Panels.Mission.Mission = nil
	})
	if err != nil || solved == nil {
		return false, err
	}

	if err := o.rewards.CreditReward(ctx, solved.Reward, "Knowledge verified."); err != nil {
		return true, err
	}
	if _, err := o.LoadMission(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Insights refreshes the global market summary.
func (o *Orchestrator) Insights(ctx context.Context) (string, error) {
	ctx, span := o.tracer.Start(ctx, "panel.insights")
	defer span.End()

	gen, err := o.store.Mutate(func(tx *session.Tx) {
		tx.State.Panels.Insights.Loading = true
	})
	if err != nil {
		return "", err
	}
	text := o.gen.GlobalInsights(ctx)
	o.store.MutateIf(gen, func(tx *session.Tx) {
		tx.State.Panels.Insights = session.InsightsPanel{Text: text}
	})
	return text, nil
}
