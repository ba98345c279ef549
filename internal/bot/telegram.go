package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	tele "gopkg.in/telebot.v3"
)

const relayBuffer = 32

var newBot = tele.NewBot

// Snapshotter is the read side of the session store.
type Snapshotter interface {
	Snapshot() session.State
}

type registrar interface {
	Handle(endpoint interface{}, h tele.HandlerFunc, m ...tele.MiddlewareFunc)
}

type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// StartTelegramBot starts the command bot and returns a relay that forwards
// notifications to chatID. It returns nil when no token is configured.
func StartTelegramBot(ctx context.Context, token string, chatID int64, src Snapshotter) (*Relay, error) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	b, err := newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	registerCommands(b, src)

	log.Println("Telegram bot started")
	go b.Start()
	go func() {
		<-ctx.Done()
		b.Stop()
	}()

	if chatID == 0 {
		log.Println("Warning: TELEGRAM_CHAT_ID not set, notifications will not be relayed")
		return nil, nil
	}
	relay := NewRelay(b, chatID)
	go relay.Run(ctx)
	return relay, nil
}

func registerCommands(r registrar, src Snapshotter) {
	r.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	r.Handle("/wallet", func(c tele.Context) error {
		return c.Send(FormatWallet(src.Snapshot()))
	})
	r.Handle("/bots", func(c tele.Context) error {
		return c.Send(FormatBots(src.Snapshot().Bots))
	})
	r.Handle("/signals", func(c tele.Context) error {
		st := src.Snapshot()
		return c.Send(FormatSignals(st.Radar, st.Daily))
	})
}

// Relay forwards notifications from the session store to one chat. Events
// arriving while the queue is full are dropped.
type Relay struct {
	sender Sender
	chat   tele.Recipient
	queue  chan domain.Notification
}

func NewRelay(sender Sender, chatID int64) *Relay {
	return &Relay{
		sender: sender,
		chat:   tele.ChatID(chatID),
		queue:  make(chan domain.Notification, relayBuffer),
	}
}

// OnEvent implements session.Observer.
func (r *Relay) OnEvent(ev session.Event) {
	if ev.Kind != session.EventNotification || ev.Notification == nil {
		return
	}
	select {
	case r.queue <- *ev.Notification:
	default:
		log.Printf("telegram relay queue full, dropping %q", ev.Notification.Title)
	}
}

// Run sends queued notifications until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-r.queue:
			if _, err := r.sender.Send(r.chat, FormatNotification(n)); err != nil {
				log.Printf("telegram relay send error: %v", err)
			}
		}
	}
}

func FormatNotification(n domain.Notification) string {
	return fmt.Sprintf("[%s] %s\n%s", strings.ToUpper(string(n.Type)), n.Title, n.Message)
}

func FormatWallet(st session.State) string {
	if !st.Authenticated {
		return "Session locked. Log in on the dashboard first."
	}
	w := st.Wallet
	var b strings.Builder
	fmt.Fprintf(&b, "Wallet (%s)\n", w.Currency)
	fmt.Fprintf(&b, "Available: %.2f\n", w.Available)
	fmt.Fprintf(&b, "Allocated: %.2f\n", w.Allocated)
	fmt.Fprintf(&b, "Pending: %.2f\n", w.Pending)
	fmt.Fprintf(&b, "Total: %.2f\n", w.Total())
	fmt.Fprintf(&b, "AURA: %.2f", w.AuraBalance)
	return b.String()
}

func FormatBots(bots []domain.Bot) string {
	if len(bots) == 0 {
		return "No bots deployed."
	}
	var b strings.Builder
	for i, bot := range bots {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s [%s] %s %s  PnL %.2f (%.2f%%)", bot.Name, bot.Status, bot.Pair, bot.Strategy, bot.PNL, bot.PNLPercent)
	}
	return b.String()
}

func FormatSignals(radar []domain.RadarSignal, daily []domain.DailySignal) string {
	var b strings.Builder
	b.WriteString("Radar")
	for _, s := range radar {
		fmt.Fprintf(&b, "\n%s %s %.1f%% conf, %+.2f%%", s.Pair, s.Signal, s.Confidence, s.ProjectedReturn)
	}
	b.WriteString("\n\nDaily")
	for _, s := range daily {
		fmt.Fprintf(&b, "\n%s %s %s @ %.2f", s.Pair, s.Type, s.Status, s.EntryPrice)
		if s.PNL != nil {
			fmt.Fprintf(&b, " pnl %+.2f%%", *s.PNL)
		}
	}
	return b.String()
}
