package advisor

import (
	"fmt"
	"strings"
	"time"

	"auratrade/internal/domain"
)

const deskPersona = `You are the quantitative research desk of AuraTrade, an algorithmic crypto trading terminal. All market data you are given is simulated.

Rules:
- Be brief and technical. You are rendered inside a dashboard panel.
- Never fabricate live prices. Reason from the data supplied, or say it is unavailable.
- Follow the requested output format exactly. Panels parse your reply.
- No financial advice disclaimers. The user understands this is a simulation.`

func BuildSystemPrompt(marketContext string) string {
	var sb strings.Builder
	sb.WriteString(deskPersona)
	if marketContext != "" {
		sb.WriteString("\n\n--- SIMULATED MARKET DATA (as of ")
		sb.WriteString(time.Now().UTC().Format(time.RFC822))
		sb.WriteString(") ---\n")
		sb.WriteString(marketContext)
	}
	return sb.String()
}

func InsightsPrompt() string {
	return `Act as a lead quantitative researcher for a high-end algorithmic crypto fund.
Summarize the current (simulated) global crypto market conditions in 2-3 impact-driven sentences.
Focus on volatility levels, trend direction (bull/bear/sideways), and institutional sentiment cues.
Style: sharp, professional, sophisticated. Avoid cliches.`
}

func AnalysisPrompt(pair string, strategy domain.BotStrategy) string {
	label := strategy.Label()
	return fmt.Sprintf(`Conduct a deep-dive algorithmic analysis for the %s pair.
The current active protocol is %s.

1. Assess the effectiveness of %s in the current volatility regime.
2. Provide a specific performance prediction or risk warning.
3. Final verdict: [OPTIMIZE / MAINTAIN / HALT] with a 1-sentence logic.

Keep it highly technical and brief.`, pair, label, label)
}

func AgentPrompt(bot domain.Bot, query string) string {
	return fmt.Sprintf(`You are the Neural Interface Agent for a quantitative trading bot.
Bot Data: %s | Pair: %s | Strategy: %s | Status: %s | PNL: %.2f USDT | Win rate: %.1f%%.

The user asked: %q

Respond as a professional quant assistant. Be brief, use technical terms where appropriate, and provide data-driven logic for any advice.`,
		bot.Name, bot.Pair, bot.Strategy.Label(), bot.Status, bot.PNL, bot.WinRate, query)
}

func PatternPrompt(asset string) string {
	return fmt.Sprintf(`Act as an expert technical analyst. Find the latest technical analysis and chart patterns for the asset: %s.
Identify one dominant, recent pattern (e.g. Bullish Flag, Head and Shoulders).

Provide a concise analysis including:
1. The name of the pattern and the timeframe.
2. A brief explanation of what it signifies.
3. Key price levels to watch (support, resistance, or breakout targets).
4. A concluding sentence on the potential market implication.

Format the output as: PatternName|Timeframe|Full analysis description.`, asset)
}

func BacktestPrompt(pair, timeframe string, components []string) string {
	return fmt.Sprintf(`Act as a Quantitative Analysis Engine. You are running a historical backtest for a trading strategy on the %s pair over the %s timeframe.
The strategy is composed of the following signals: %s.

Based on these components, generate a realistic but fictional backtest result.

Provide the output in the following format, separated by '|':
Net Profit (e.g., 15230.45) | Total Return %% (e.g., 76.15) | Win Rate %% (e.g., 62.5) | Max Drawdown %% (e.g., -15.2) | Total Trades (e.g., 142) | A 2-3 sentence summary of the strategy's performance, strengths, and weaknesses.

Example output:
15230.45|76.15|62.5|-15.2|142|The strategy performed well in trending markets, capturing significant upside. However, it was susceptible to choppy, sideways conditions, leading to a higher number of small losses.`,
		pair, timeframe, strings.Join(components, ", "))
}

func MissionPrompt() string {
	return `Create one multiple-choice quiz question that teaches a concept of algorithmic crypto trading (order types, risk management, grid or DCA strategies, on-chain settlement).
Reply with JSON only, no markdown fences:
{"question": string, "options": [4 strings], "correctAnswer": index 0-3, "reward": number between 10 and 100}`
}

// FormatMarketContext renders the simulated signals relevant to symbols.
// An empty symbol list includes every signal.
func FormatMarketContext(symbols []string, radar []domain.RadarSignal, daily []domain.DailySignal) string {
	want := func(pair string) bool {
		if len(symbols) == 0 {
			return true
		}
		base := BaseAsset(pair)
		for _, s := range symbols {
			if s == base {
				return true
			}
		}
		return false
	}

	var sb strings.Builder
	for _, r := range radar {
		if !want(r.Pair) {
			continue
		}
		if sb.Len() == 0 {
			sb.WriteString("\nRadar Signals:\n")
		}
		sb.WriteString(fmt.Sprintf("  %s %s confidence=%.1f%% projected=%+.2f%%\n",
			r.Pair, strings.ToUpper(string(r.Signal)), r.Confidence, r.ProjectedReturn))
	}

	header := false
	for _, d := range daily {
		if !want(d.Pair) {
			continue
		}
		if !header {
			sb.WriteString("\nDaily Signals:\n")
			header = true
		}
		line := fmt.Sprintf("  %s %s %s entry=%.2f", d.Pair, strings.ToUpper(string(d.Type)), d.Status, d.EntryPrice)
		if d.PNL != nil {
			line += fmt.Sprintf(" pnl=%+.2f%%", *d.PNL)
		}
		sb.WriteString(line + "\n")
	}

	if sb.Len() == 0 {
		return "No market data currently available."
	}
	return sb.String()
}
