package domain

import "time"

// PatternScanPairs are the assets covered by a pattern recognition scan.
var PatternScanPairs = []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"}

// BacktestComponents lists the strategy building blocks a backtest can use.
var BacktestComponents = map[string]string{
	"ma":            "Moving Average Crossover",
	"trend":         "Bullish Trend Confirmation",
	"institutional": "Institutional Inflow Tracker",
	"congress":      "Congressional Trade Monitor",
	"whale":         "On-Chain Whale Accumulation",
}

// Seed is the starting state of a fresh session.
type Seed struct {
	Wallet       WalletState
	Bots         []Bot
	Radar        []RadarSignal
	Daily        []DailySignal
	Whitelist    []WhitelistPair
	Transactions []Transaction
	Audit        []AuditEntry
}

func floatPtr(v float64) *float64 { return &v }

// DefaultSeed builds the initial session relative to now.
func DefaultSeed(now time.Time) Seed {
	return Seed{
		Wallet: WalletState{
			Available:   15420.50,
			Allocated:   5000,
			Pending:     0,
			Currency:    "USDT",
			AuraBalance: 12500,
		},
		Bots: []Bot{
			{
				ID:                "b-001",
				Name:              "Quantum Alpha BTC",
				Pair:              "BTC/USDT",
				Strategy:          StrategyGrid,
				Status:            BotRunning,
				PNL:               412.55,
				PNLPercent:        8.25,
				WeeklyPNLPercent:  1.85,
				MonthlyPNLPercent: 7.23,
				TotalTrades:       842,
				WinRate:           74.2,
				RiskLevel:         RiskMedium,
				Collateral:        5000,
				WalletAddress:     "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
				CreatedAt:         now.Add(-12 * 24 * time.Hour),
			},
		},
		Radar: []RadarSignal{
			{ID: "rs-1", Pair: "ETH/USDT", Signal: SideBuy, Confidence: 88.2, ProjectedReturn: 3.45},
			{ID: "rs-2", Pair: "SOL/USDT", Signal: SideSell, Confidence: 79.5, ProjectedReturn: -2.10},
			{ID: "rs-3", Pair: "LINK/USDT", Signal: SideBuy, Confidence: 91.0, ProjectedReturn: 5.20},
			{ID: "rs-4", Pair: "AVAX/USDT", Signal: SideBuy, Confidence: 85.7, ProjectedReturn: 2.88},
			{ID: "rs-5", Pair: "DOGE/USDT", Signal: SideSell, Confidence: 72.1, ProjectedReturn: -1.55},
		},
		Daily: []DailySignal{
			{ID: "ds-1", Pair: "LINK/USDT", Type: PositionLong, Status: SignalOpen, EntryPrice: 18.45},
			{ID: "ds-2", Pair: "MATIC/USDT", Type: PositionShort, Status: SignalClosed, EntryPrice: 0.72, PNL: floatPtr(2.15)},
			{ID: "ds-3", Pair: "RNDR/USDT", Type: PositionLong, Status: SignalOpen, EntryPrice: 10.88},
			{ID: "ds-4", Pair: "SUI/USDT", Type: PositionShort, Status: SignalOpen, EntryPrice: 1.13},
		},
		Whitelist: []WhitelistPair{
			{ID: "w1", Pair: "BTC/USDT", Active: true},
			{ID: "w2", Pair: "ETH/USDT", Active: true},
		},
		Transactions: []Transaction{
			{ID: "tx-2", Timestamp: now.Add(-12 * time.Hour), Type: TxAllocation, Amount: 5000, Status: TxCompleted},
			{ID: "tx-1", Timestamp: now.Add(-24 * time.Hour), Type: TxDeposit, Amount: 20000, Status: TxCompleted, TxHash: "0x55a...f91"},
		},
		Audit: []AuditEntry{
			{ID: "aud-2", Timestamp: now.Add(-30 * time.Minute), Event: `New Bot "Quantum Alpha" Initialized`, Severity: SeverityMedium},
			{ID: "aud-1", Timestamp: now.Add(-time.Hour), Event: "API Key Verification Succeeded", Severity: SeverityLow},
		},
	}
}
