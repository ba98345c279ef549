package session

import "auratrade/internal/domain"

const (
	MaxNotifications = 5
	MaxAuditEntries  = 20
)

type ConfirmVariant string

const (
	VariantWarning ConfirmVariant = "warning"
	VariantDanger  ConfirmVariant = "danger"
)

// Confirmation is the visible part of an open confirmation request.
type Confirmation struct {
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	ConfirmText string         `json:"confirm_text"`
	Variant     ConfirmVariant `json:"variant"`
}

type AnalysisPanel struct {
	Loading bool   `json:"loading"`
	BotID   string `json:"bot_id,omitempty"`
	Result  string `json:"result"`
}

type AgentPanel struct {
	Loading      bool                 `json:"loading"`
	BotID        string               `json:"bot_id,omitempty"`
	Conversation []domain.ChatMessage `json:"conversation"`
}

type PatternPanel struct {
	Loading  bool                   `json:"loading"`
	Patterns []domain.MarketPattern `json:"patterns"`
}

type BacktestPanel struct {
	Loading bool                    `json:"loading"`
	Results *domain.BacktestResults `json:"results,omitempty"`
}

type MissionPanel struct {
	Loading bool                `json:"loading"`
	Mission *domain.EarnMission `json:"mission,omitempty"`
}

type InsightsPanel struct {
	Loading bool   `json:"loading"`
	Text    string `json:"text"`
}

type Panels struct {
	Analysis AnalysisPanel `json:"analysis"`
	Agent    AgentPanel    `json:"agent"`
	Patterns PatternPanel  `json:"patterns"`
	Backtest BacktestPanel `json:"backtest"`
	Mission  MissionPanel  `json:"mission"`
	Insights InsightsPanel `json:"insights"`
}

// State is the whole application state of one session. Values handed out by
// the Store are deep copies of the slices; pointer fields are never mutated
// in place, only replaced.
type State struct {
	Authenticated bool                    `json:"authenticated"`
	Syncing       bool                    `json:"syncing"`
	MasterWallet  string                  `json:"master_wallet,omitempty"`
	Wallet        domain.WalletState      `json:"wallet"`
	Portfolio     domain.PortfolioMetrics `json:"portfolio"`
	Bots          []domain.Bot            `json:"bots"`
	Transactions  []domain.Transaction    `json:"transactions"`
	Audit         []domain.AuditEntry     `json:"audit"`
	Notifications []domain.Notification   `json:"notifications"`
	Radar         []domain.RadarSignal    `json:"radar"`
	Daily         []domain.DailySignal    `json:"daily"`
	Whitelist     []domain.WhitelistPair  `json:"whitelist"`
	Alerts        []domain.PriceAlert     `json:"alerts"`
	Confirmation  *Confirmation           `json:"confirmation,omitempty"`
	Panels        Panels                  `json:"panels"`
}

func newState(seed domain.Seed) State {
	st := State{
		Wallet:        seed.Wallet,
		Bots:          Clone(seed.Bots),
		Transactions:  Clone(seed.Transactions),
		Audit:         Clone(seed.Audit),
		Notifications: []domain.Notification{},
		Radar:         Clone(seed.Radar),
		Daily:         Clone(seed.Daily),
		Whitelist:     Clone(seed.Whitelist),
		Alerts:        []domain.PriceAlert{},
	}
	st.Portfolio = domain.ComputePortfolio(st.Bots, st.Portfolio)
	return st
}

func (st State) clone() State {
	out := st
	out.Bots = Clone(st.Bots)
	out.Transactions = Clone(st.Transactions)
	out.Audit = Clone(st.Audit)
	out.Notifications = Clone(st.Notifications)
	out.Radar = Clone(st.Radar)
	out.Daily = Clone(st.Daily)
	out.Whitelist = Clone(st.Whitelist)
	out.Alerts = Clone(st.Alerts)
	out.Panels.Agent.Conversation = Clone(st.Panels.Agent.Conversation)
	out.Panels.Patterns.Patterns = Clone(st.Panels.Patterns.Patterns)
	return out
}

// FindBot returns the bot with id and its index, or -1.
func (st State) FindBot(id string) (domain.Bot, int) {
	for i, b := range st.Bots {
		if b.ID == id {
			return b, i
		}
	}
	return domain.Bot{}, -1
}

// FindTransaction returns the ledger row with id and its index, or -1.
func (st State) FindTransaction(id string) (domain.Transaction, int) {
	for i, tx := range st.Transactions {
		if tx.ID == id {
			return tx, i
		}
	}
	return domain.Transaction{}, -1
}
