package domain

import (
	"encoding/json"
	"math"
)

type ChatSender string

const (
	SenderUser ChatSender = "user"
	SenderAI   ChatSender = "ai"
)

type ChatMessage struct {
	Sender ChatSender `json:"sender"`
	Text   string     `json:"text"`
}

type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// PatternResult is the raw collaborator answer for one asset: a
// "name|timeframe|description" string plus citations.
type PatternResult struct {
	Analysis string
	Sources  []GroundingSource
}

type MarketPattern struct {
	Name        string            `json:"name"`
	Timeframe   string            `json:"timeframe"`
	Confidence  string            `json:"confidence"`
	Description string            `json:"description"`
	Asset       string            `json:"asset"`
	Sources     []GroundingSource `json:"sources,omitempty"`
}

type BacktestResults struct {
	NetProfit   float64 `json:"net_profit"`
	TotalReturn float64 `json:"total_return"`
	WinRate     float64 `json:"win_rate"`
	MaxDrawdown float64 `json:"max_drawdown"`
	TotalTrades int     `json:"total_trades"`
	Summary     string  `json:"summary"`
}

// MarshalJSON writes metrics that could not be parsed (NaN) as null.
func (b BacktestResults) MarshalJSON() ([]byte, error) {
	finite := func(v float64) *float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		NetProfit   *float64 `json:"net_profit"`
		TotalReturn *float64 `json:"total_return"`
		WinRate     *float64 `json:"win_rate"`
		MaxDrawdown *float64 `json:"max_drawdown"`
		TotalTrades int      `json:"total_trades"`
		Summary     string   `json:"summary"`
	}{
		NetProfit:   finite(b.NetProfit),
		TotalReturn: finite(b.TotalReturn),
		WinRate:     finite(b.WinRate),
		MaxDrawdown: finite(b.MaxDrawdown),
		TotalTrades: b.TotalTrades,
		Summary:     b.Summary,
	})
}

// EarnMission is a quiz whose correct answer credits Reward aura tokens.
type EarnMission struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Reward        float64  `json:"reward"`
}

// IsValid reports whether the mission can be answered at all.
func (m EarnMission) IsValid() bool {
	return m.Question != "" && len(m.Options) == 4 &&
		m.CorrectAnswer >= 0 && m.CorrectAnswer < len(m.Options) && m.Reward >= 0
}
