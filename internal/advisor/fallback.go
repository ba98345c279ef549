package advisor

import "fmt"

// Canned replies used whenever the text-generation backend is unavailable
// or returns nothing.
const (
	InsightsFallback      = "Market intelligence offline. Retrying link..."
	InsightsEmpty         = "Awaiting signal synchronization..."
	AnalysisFallback      = "Error: AI pipeline disrupted."
	AnalysisEmpty         = "Quant sync failed."
	AgentFallback         = "Neural link failed."
	AgentEmpty            = "Agent offline."
	BacktestFallback      = "7845.12|39.23|58.1|-22.5|188|Backtesting engine offline. Defaulting to baseline metrics. Strategy shows moderate profitability but suffers from significant drawdown during volatile periods. Recommend tightening stop-loss parameters."
	DefaultMissionPayload = `{"question":"Which market condition does a Grid Trading bot profit from most?","options":["A strong one-directional trend","Price oscillating inside a range","Rising funding rates","A token unlock event"],"correctAnswer":1,"reward":50}`
)

func PatternFallback(asset string) string {
	return fmt.Sprintf("Error|Unknown Timeframe|Pattern analysis module offline for %s.", asset)
}

func PatternEmpty(asset string) string {
	return fmt.Sprintf("Error|Unknown Timeframe|Could not retrieve real-time analysis for %s.", asset)
}
