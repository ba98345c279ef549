package panel

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"auratrade/internal/domain"
)

func field(parts []string, i int) string {
	if i < len(parts) {
		return strings.TrimSpace(parts[i])
	}
	return ""
}

// parseNumber reads the leading decimal of s, ignoring a trailing "%".
// Unparsable input yields NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseCount reads the leading integer of s, so "188 trades" gives 188.
// No digits yields 0.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// ParseBacktest splits a "profit|return|winRate|drawdown|trades|summary"
// reply. Missing or malformed numbers become NaN, trades 0 and summary "".
func ParseBacktest(raw string) domain.BacktestResults {
	parts := strings.Split(raw, "|")
	summary := ""
	if len(parts) > 5 {
		summary = strings.TrimSpace(strings.Join(parts[5:], "|"))
	}
	return domain.BacktestResults{
		NetProfit:   parseNumber(field(parts, 0)),
		TotalReturn: parseNumber(field(parts, 1)),
		WinRate:     parseNumber(field(parts, 2)),
		MaxDrawdown: parseNumber(field(parts, 3)),
		TotalTrades: parseCount(field(parts, 4)),
		Summary:     summary,
	}
}

// ParsePattern splits a "name|timeframe|description" reply. Missing parts
// come back empty.
func ParsePattern(analysis string) (name, timeframe, description string) {
	parts := strings.SplitN(analysis, "|", 3)
	return field(parts, 0), field(parts, 1), field(parts, 2)
}

// ParseMission decodes a quiz mission, tolerating markdown code fences.
// Malformed or unanswerable missions yield nil.
func ParseMission(raw string) *domain.EarnMission {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}

	var m domain.EarnMission
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	if !m.IsValid() {
		return nil
	}
	return &m
}

// PatternFromResult turns one collaborator answer into a panel entry.
// Sources without a link are dropped.
func PatternFromResult(asset string, res domain.PatternResult) domain.MarketPattern {
	name, timeframe, description := ParsePattern(res.Analysis)
	var sources []domain.GroundingSource
	for _, s := range res.Sources {
		if s.URI == "" {
			continue
		}
		if s.Title == "" {
			s.Title = "Untitled Source"
		}
		sources = append(sources, s)
	}
	return domain.MarketPattern{
		Name:        name,
		Timeframe:   timeframe,
		Confidence:  "High",
		Description: description,
		Asset:       asset,
		Sources:     sources,
	}
}
