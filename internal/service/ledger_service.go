package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotAuthenticated = session.ErrNotAuthenticated
)

const (
	DefaultInvestment = 1000.0
	FaucetCooldown    = 24 * time.Hour
)

// LedgerConfig holds the simulated network latencies and reward amounts.
type LedgerConfig struct {
	DepositDelay           time.Duration
	WithdrawInclusionDelay time.Duration
	WithdrawFinalityDelay  time.Duration
	SignatureDelay         time.Duration
	SyncDelay              time.Duration
	FaucetReward           float64
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		DepositDelay:           4 * time.Second,
		WithdrawInclusionDelay: 3 * time.Second,
		WithdrawFinalityDelay:  5 * time.Second,
		SyncDelay:              3 * time.Second,
		FaucetReward:           100,
	}
}

type inflight struct {
	typ    domain.TxType
	amount float64
}

// LedgerService drives the simulated money movements of a session. Every
// operation commits through the store; delayed stages are keyed by the
// transaction id they created and are dropped once the session ends.
type LedgerService struct {
	tracer trace.Tracer
	store  *session.Store
	sched  Scheduler
	gate   *ConfirmationGate
	cfg    LedgerConfig

	newHash func() string

	// guarded by the store lock; only touched inside transitions
	pending map[string]inflight
}

func NewLedgerService(
	tracer trace.Tracer,
	store *session.Store,
	sched Scheduler,
	gate *ConfirmationGate,
	cfg LedgerConfig,
) *LedgerService {
	return &LedgerService{
		tracer:  tracer,
		store:   store,
		sched:   sched,
		gate:    gate,
		cfg:     cfg,
		newHash: syntheticHash,
		pending: make(map[string]inflight),
	}
}

func syntheticHash() string {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Deposit registers an incoming transfer and credits it after DepositDelay.
// Non-positive amounts are ignored.
func (s *LedgerService) Deposit(ctx context.Context, amount float64) error {
	_, span := s.tracer.Start(ctx, "ledger-service.deposit")
	defer span.End()
	span.SetAttributes(attribute.Float64("amount", amount))

	if !validAmount(amount) {
		return nil
	}

	var txID string
	gen, err := s.store.Mutate(func(tx *session.Tx) {
		row := tx.AppendTransaction(domain.TxDeposit, amount, domain.TxProcessing)
		txID = row.ID
		s.pending[txID] = inflight{typ: domain.TxDeposit, amount: amount}
		cur := tx.State.Wallet.Currency
		tx.Notify("Deposit Incoming", fmt.Sprintf("Network broadcast detected for %s %s.", formatAmount(amount), cur), domain.NotifyInfo)
		tx.Audit(fmt.Sprintf("Deposit request detected for %s %s", formatAmount(amount), cur), domain.SeverityLow)
	})
	if err != nil {
		return err
	}

	s.sched.After(s.cfg.DepositDelay, func() {
		s.store.MutateIf(gen, func(tx *session.Tx) {
			delete(s.pending, txID)
			if !tx.AdvanceTransaction(txID, domain.TxCompleted, s.newHash()) {
				return
			}
			tx.State.Wallet.Available += amount
			cur := tx.State.Wallet.Currency
			tx.Notify("Deposit Confirmed", fmt.Sprintf("%s %s credited to liquidity pool.", formatAmount(amount), cur), domain.NotifySuccess)
			tx.Audit(fmt.Sprintf("Account credited: +%s %s", formatAmount(amount), cur), domain.SeverityLow)
		})
	})
	return nil
}

// Withdraw reserves amount from the available balance and settles it in two
// stages. Amounts that are non-positive or exceed the available balance are
// ignored.
func (s *LedgerService) Withdraw(ctx context.Context, amount float64, address string) error {
	_, span := s.tracer.Start(ctx, "ledger-service.withdraw")
	defer span.End()
	span.SetAttributes(attribute.Float64("amount", amount))

	if !validAmount(amount) {
		return nil
	}

	var txID string
	gen, err := s.store.Mutate(func(tx *session.Tx) {
		w := &tx.State.Wallet
		if amount > w.Available {
			return
		}
		w.Available -= amount
		w.Pending += amount
		row := tx.AppendTransaction(domain.TxWithdraw, amount, domain.TxPending)
		txID = row.ID
		s.pending[txID] = inflight{typ: domain.TxWithdraw, amount: amount}
		tx.Notify("Withdrawal Initiated", fmt.Sprintf("Queueing %s %s for on-chain broadcast.", formatAmount(amount), w.Currency), domain.NotifyInfo)
		tx.Audit(fmt.Sprintf("Withdrawal requested to %s...", shortAddress(address)), domain.SeverityMedium)
	})
	if err != nil || txID == "" {
		return err
	}

	s.sched.After(s.cfg.WithdrawInclusionDelay, func() {
		included := s.store.MutateIf(gen, func(tx *session.Tx) {
			tx.AdvanceTransaction(txID, domain.TxProcessing, "")
		})
		if !included {
			return
		}
		s.sched.After(s.cfg.WithdrawFinalityDelay, func() {
			s.store.MutateIf(gen, func(tx *session.Tx) {
				delete(s.pending, txID)
				if !tx.AdvanceTransaction(txID, domain.TxCompleted, s.newHash()) {
					return
				}
				w := &tx.State.Wallet
				w.Pending -= amount
				tx.Notify("Transaction Confirmed", "On-chain verification complete.", domain.NotifySuccess)
				tx.Audit(fmt.Sprintf("Withdrawal finalized: -%s %s", formatAmount(amount), w.Currency), domain.SeverityLow)
			})
		})
	})
	return nil
}

func shortAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:8]
}

// AbortInFlight fails every transfer whose settlement was cut short by the
// end of a session. Reserved withdrawal funds return to the available
// balance so the wallet total is unchanged.
func (s *LedgerService) AbortInFlight() int {
	var aborted int
	s.store.Update(func(tx *session.Tx) {
		for id, p := range s.pending {
			delete(s.pending, id)
			if !tx.AdvanceTransaction(id, domain.TxFailed, "") {
				continue
			}
			aborted++
			if p.typ == domain.TxWithdraw {
				tx.State.Wallet.Pending -= p.amount
				tx.State.Wallet.Available += p.amount
			}
		}
	})
	return aborted
}

// RequestBotToggle asks for confirmation before starting or halting a bot.
func (s *LedgerService) RequestBotToggle(ctx context.Context, botID string) error {
	_, span := s.tracer.Start(ctx, "ledger-service.request-bot-toggle")
	defer span.End()
	span.SetAttributes(attribute.String("bot_id", botID))

	snap := s.store.Snapshot()
	if !snap.Authenticated {
		return ErrNotAuthenticated
	}
	bot, i := snap.FindBot(botID)
	if i < 0 {
		return ErrNotFound
	}

	activating := bot.Status == domain.BotStopped
	title, verb, confirmText := "Confirm Deactivation", "deactivate", "Deactivate"
	if activating {
		title, verb, confirmText = "Confirm Activation", "activate", "Activate"
	}
	target := domain.BotStopped
	if activating {
		target = domain.BotRunning
	}

	s.gate.Request(
		title,
		fmt.Sprintf("Are you sure you want to %s the %q protocol?", verb, bot.Name),
		func() { s.applyToggle(botID, target) },
		confirmText,
		session.VariantWarning,
	)
	return nil
}

func (s *LedgerService) applyToggle(botID string, target domain.BotStatus) {
	flip := func(tx *session.Tx) {
		b, i := tx.State.FindBot(botID)
		if i < 0 {
			return
		}
		if target == domain.BotRunning {
			tx.Audit("Protocol Start: "+b.Name, domain.SeverityLow)
		} else {
			tx.Audit("Protocol Halt: "+b.Name, domain.SeverityMedium)
		}
		b.Status = target
		tx.ReplaceBot(i, b)
	}

	if s.cfg.SignatureDelay <= 0 {
		s.store.Mutate(flip)
		return
	}
	gen := s.store.Generation()
	s.sched.After(s.cfg.SignatureDelay, func() {
		s.store.MutateIf(gen, flip)
	})
}

// ParseInvestment reads the investment field of a bot form. Blank,
// unparsable and non-positive values fall back to DefaultInvestment.
func ParseInvestment(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !validAmount(v) {
		return DefaultInvestment
	}
	return v
}

// CreateBot allocates capital to a new stopped bot. It reports false when
// the form is incomplete or the available balance is too low.
func (s *LedgerService) CreateBot(ctx context.Context, data domain.BotData) (domain.Bot, bool, error) {
	_, span := s.tracer.Start(ctx, "ledger-service.create-bot")
	defer span.End()

	name := strings.TrimSpace(data.Name)
	pair := strings.TrimSpace(data.Pair)
	strategy := data.Strategy
	if strategy == "" {
		strategy = domain.StrategyGrid
	}
	if name == "" || pair == "" || !strategy.IsValid() {
		return domain.Bot{}, false, nil
	}
	investment := ParseInvestment(data.Investment)

	var created domain.Bot
	var ok bool
	_, err := s.store.Mutate(func(tx *session.Tx) {
		w := &tx.State.Wallet
		if investment > w.Available {
			tx.Notify("Insufficient Capital", "Main wallet balance too low for this allocation.", domain.NotifyWarning)
			return
		}

		wallet := strings.TrimSpace(data.WalletAddress)
		if wallet == "" {
			wallet = tx.State.MasterWallet
		}
		created = domain.Bot{
			ID:            "bot-" + tx.NewID(),
			Name:          name,
			Pair:          pair,
			Strategy:      strategy,
			Status:        domain.BotStopped,
			RiskLevel:     domain.RiskMedium,
			Collateral:    investment,
			WalletAddress: wallet,
			CreatedAt:     tx.Now(),
		}
		w.Available -= investment
		w.Allocated += investment
		tx.SetBots(append(session.Clone(tx.State.Bots), created))
		tx.AppendTransaction(domain.TxAllocation, investment, domain.TxCompleted)
		tx.Notify("Bot Active", fmt.Sprintf("%s is now monitoring the %s stream.", created.Name, created.Pair), domain.NotifySuccess)
		tx.Audit(fmt.Sprintf("Strategic allocation of %s to %s", formatAmount(investment), created.Name), domain.SeverityLow)
		ok = true
	})
	if err != nil {
		return domain.Bot{}, false, err
	}
	return created, ok, nil
}

// RequestSystemReset asks for confirmation before purging every bot.
// Allocated capital is left where it is.
func (s *LedgerService) RequestSystemReset(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "ledger-service.request-system-reset")
	defer span.End()

	if !s.store.Snapshot().Authenticated {
		return ErrNotAuthenticated
	}
	s.gate.Request(
		"System Halt Confirmation",
		"This will immediately stop and delete all active bot protocols. This action is irreversible.",
		func() {
			s.store.Mutate(func(tx *session.Tx) {
				tx.Audit("System Reset Protocol Triggered", domain.SeverityHigh)
				tx.SetBots(nil)
				tx.Notify("System Halt", "All bot protocols have been purged.", domain.NotifyWarning)
			})
		},
		"Confirm System Halt",
		session.VariantDanger,
	)
	return nil
}

// ClaimFaucet credits the daily aura reward. It reports false while the
// previous claim is still cooling down.
func (s *LedgerService) ClaimFaucet(ctx context.Context) (bool, error) {
	_, span := s.tracer.Start(ctx, "ledger-service.claim-faucet")
	defer span.End()

	var claimed bool
	_, err := s.store.Mutate(func(tx *session.Tx) {
		w := &tx.State.Wallet
		now := tx.Now()
		if w.LastFaucetClaim != nil && now.Sub(*w.LastFaucetClaim) < FaucetCooldown {
			return
		}
		reward := s.cfg.FaucetReward
		w.AuraBalance += reward
		w.LastFaucetClaim = &now
		tx.AppendTransaction(domain.TxFaucet, reward, domain.TxCompleted)
		tx.Notify("Energy Reclaimed", fmt.Sprintf("%s AURA added to your balance.", formatAmount(reward)), domain.NotifySuccess)
		tx.Audit(fmt.Sprintf("Faucet claim: +%s AURA", formatAmount(reward)), domain.SeverityLow)
		claimed = true
	})
	return claimed, err
}

// CreditReward pays out an aura reward, e.g. for a completed mission.
func (s *LedgerService) CreditReward(ctx context.Context, amount float64, reason string) error {
	_, span := s.tracer.Start(ctx, "ledger-service.credit-reward")
	defer span.End()

	if !validAmount(amount) {
		return nil
	}
	_, err := s.store.Mutate(func(tx *session.Tx) {
		tx.State.Wallet.AuraBalance += amount
		tx.AppendTransaction(domain.TxReward, amount, domain.TxCompleted)
		tx.Notify("Mission Complete", fmt.Sprintf("+%s AURA. %s", formatAmount(amount), reason), domain.NotifySuccess)
		tx.Audit(fmt.Sprintf("Reward credited: +%s AURA", formatAmount(amount)), domain.SeverityLow)
	})
	return err
}

// SyncChain runs the simulated market re-index. Calls made while a sync is
// already running are ignored.
func (s *LedgerService) SyncChain(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "ledger-service.sync-chain")
	defer span.End()

	var started bool
	gen, err := s.store.Mutate(func(tx *session.Tx) {
		if tx.State.Syncing {
			return
		}
		tx.State.Syncing = true
		tx.Audit("Manual Market Re-index Started", domain.SeverityLow)
		started = true
	})
	if err != nil || !started {
		return err
	}

	s.sched.After(s.cfg.SyncDelay, func() {
		s.store.MutateIf(gen, func(tx *session.Tx) {
			tx.State.Syncing = false
			now := tx.Now()
			bots := session.Clone(tx.State.Bots)
			for i := range bots {
				t := now
				bots[i].LastChainSync = &t
			}
			tx.SetBots(bots)
			tx.Notify("Sync Complete", "Market data stream is now fully indexed with the chain.", domain.NotifyInfo)
			tx.Audit("Market Index Sync Successful", domain.SeverityLow)
		})
	})
	return nil
}

// Rollup merges the current portfolio state into a new simulated block.
func (s *LedgerService) Rollup(ctx context.Context) (domain.PortfolioMetrics, error) {
	_, span := s.tracer.Start(ctx, "ledger-service.rollup")
	defer span.End()

	var out domain.PortfolioMetrics
	_, err := s.store.Mutate(func(tx *session.Tx) {
		now := tx.Now()
		p := &tx.State.Portfolio
		p.BlockHeight++
		p.RollupHash = s.newHash()
		p.LastRollup = &now
		out = *p
	})
	if err == nil {
		span.SetAttributes(attribute.Int64("block_height", out.BlockHeight))
	}
	return out, err
}

// SetMasterWallet records the connected account used as the default bot
// wallet. An empty address clears it.
func (s *LedgerService) SetMasterWallet(address string) {
	s.store.Update(func(tx *session.Tx) {
		if tx.State.MasterWallet == address {
			return
		}
		tx.State.MasterWallet = address
		if address != "" {
			tx.Audit("Master wallet linked: "+shortAddress(address)+"...", domain.SeverityLow)
		}
	})
}

// DismissNotification removes a toast. It reports false for unknown ids.
func (s *LedgerService) DismissNotification(id string) bool {
	var removed bool
	s.store.Update(func(tx *session.Tx) {
		removed = tx.Dismiss(id)
	})
	return removed
}
