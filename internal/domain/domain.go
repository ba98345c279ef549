package domain

import "time"

type BotStatus string

const (
	BotRunning BotStatus = "RUNNING"
	BotStopped BotStatus = "STOPPED"
)

func (s BotStatus) IsValid() bool {
	return s == BotRunning || s == BotStopped
}

type BotStrategy string

const (
	StrategyGrid       BotStrategy = "GRID"
	StrategyDCA        BotStrategy = "DCA"
	StrategyAIMomentum BotStrategy = "AI_MOMENTUM"
)

var strategyLabels = map[BotStrategy]string{
	StrategyGrid:       "Grid Trading",
	StrategyDCA:        "Dollar Cost Averaging",
	StrategyAIMomentum: "AI Momentum",
}

// Label returns the display name used in prompts and terminal views.
func (s BotStrategy) Label() string {
	if l, ok := strategyLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s BotStrategy) IsValid() bool {
	_, ok := strategyLabels[s]
	return ok
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type Bot struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Pair              string      `json:"pair"`
	Strategy          BotStrategy `json:"strategy"`
	Status            BotStatus   `json:"status"`
	PNL               float64     `json:"pnl"`
	PNLPercent        float64     `json:"pnl_percent"`
	WeeklyPNLPercent  float64     `json:"weekly_pnl_percent"`
	MonthlyPNLPercent float64     `json:"monthly_pnl_percent"`
	TotalTrades       int         `json:"total_trades"`
	WinRate           float64     `json:"win_rate"`
	RiskLevel         RiskLevel   `json:"risk_level"`
	Collateral        float64     `json:"collateral"`
	WalletAddress     string      `json:"wallet_address,omitempty"`
	LastChainSync     *time.Time  `json:"last_chain_sync,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}

// BotData is the deploy form submitted by a user. Investment stays a string
// because the form value is parsed leniently.
type BotData struct {
	Name          string      `json:"name"`
	Pair          string      `json:"pair"`
	Strategy      BotStrategy `json:"strategy"`
	Investment    string      `json:"investment,omitempty"`
	WalletAddress string      `json:"wallet_address,omitempty"`
}

type WalletState struct {
	Available       float64    `json:"available"`
	Allocated       float64    `json:"allocated"`
	Pending         float64    `json:"pending"`
	Currency        string     `json:"currency"`
	AuraBalance     float64    `json:"aura_balance"`
	LastFaucetClaim *time.Time `json:"last_faucet_claim,omitempty"`
}

// Total is the equity across all three buckets.
func (w WalletState) Total() float64 {
	return w.Available + w.Allocated + w.Pending
}

type WhitelistPair struct {
	ID     string `json:"id"`
	Pair   string `json:"pair"`
	Active bool   `json:"active"`
}

type AlertCondition string

const (
	AlertAbove AlertCondition = "above"
	AlertBelow AlertCondition = "below"
)

func (c AlertCondition) IsValid() bool {
	return c == AlertAbove || c == AlertBelow
}

type PriceAlert struct {
	ID          string         `json:"id"`
	Pair        string         `json:"pair"`
	TargetPrice float64        `json:"target_price"`
	Condition   AlertCondition `json:"condition"`
	Active      bool           `json:"active"`
}

// PortfolioMetrics aggregates the bot collection. The rollup fields only
// change on an explicit chain sync.
type PortfolioMetrics struct {
	AvgWinRate  float64    `json:"avg_win_rate"`
	ActiveBots  int        `json:"active_bots"`
	RollupHash  string     `json:"rollup_hash"`
	BlockHeight int64      `json:"block_height"`
	LastRollup  *time.Time `json:"last_rollup,omitempty"`
}

// ComputePortfolio recomputes the bot-derived fields of m.
func ComputePortfolio(bots []Bot, m PortfolioMetrics) PortfolioMetrics {
	m.AvgWinRate = 0
	m.ActiveBots = 0
	if len(bots) == 0 {
		return m
	}
	var sum float64
	for _, b := range bots {
		sum += b.WinRate
		if b.Status == BotRunning {
			m.ActiveBots++
		}
	}
	m.AvgWinRate = sum / float64(len(bots))
	return m
}
