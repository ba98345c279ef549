// Package tui renders a read-only dashboard of one session for SSH users.
package tui

import (
	"fmt"
	"strings"
	"time"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const RefreshInterval = time.Second

// Source supplies the state to render.
type Source interface {
	Snapshot() session.State
}

type tab int

const (
	tabOverview tab = iota
	tabBots
	tabSignals
	tabLedger
	tabAudit
	tabCount
)

var tabNames = [tabCount]string{"Overview", "Bots", "Signals", "Ledger", "Audit"}

type refreshMsg time.Time

type Model struct {
	src      Source
	username string
	state    session.State
	active   tab
	width    int
	height   int

	bots   table.Model
	radar  table.Model
	daily  table.Model
	ledger table.Model
	audit  table.Model

	keys keyMap
	help help.Model
}

func NewModel(src Source, username string) *Model {
	m := &Model{
		src:      src,
		username: username,
		keys:     defaultKeys,
		help:     help.New(),
		bots: newTable([]table.Column{
			{Title: "Name", Width: 22}, {Title: "Pair", Width: 10}, {Title: "Strategy", Width: 12},
			{Title: "Status", Width: 8}, {Title: "PnL", Width: 10}, {Title: "PnL %", Width: 8},
			{Title: "Trades", Width: 7}, {Title: "Win %", Width: 6},
		}),
		radar: newTable([]table.Column{
			{Title: "Pair", Width: 11}, {Title: "Signal", Width: 6}, {Title: "Conf %", Width: 7}, {Title: "Proj %", Width: 7},
		}),
		daily: newTable([]table.Column{
			{Title: "Pair", Width: 11}, {Title: "Type", Width: 6}, {Title: "Status", Width: 7},
			{Title: "Entry", Width: 9}, {Title: "PnL %", Width: 7},
		}),
		ledger: newTable([]table.Column{
			{Title: "Time", Width: 8}, {Title: "Type", Width: 15}, {Title: "Amount", Width: 12},
			{Title: "Status", Width: 11}, {Title: "Hash", Width: 14},
		}),
		audit: newTable([]table.Column{
			{Title: "Time", Width: 8}, {Title: "Severity", Width: 8}, {Title: "Event", Width: 60},
		}),
	}
	m.refresh()
	m.focus()
	return m
}

func newTable(cols []table.Column) table.Model {
	t := table.New(table.WithColumns(cols), table.WithHeight(10))
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).Foreground(lipgloss.Color("39"))
	t.SetStyles(s)
	return t
}

// SetSize adapts table heights to the terminal.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	h := height - 10
	if h < 3 {
		h = 3
	}
	for _, t := range []*table.Model{&m.bots, &m.ledger, &m.audit} {
		t.SetHeight(h)
	}
	half := h/2 - 1
	if half < 3 {
		half = 3
	}
	m.radar.SetHeight(half)
	m.daily.SetHeight(half)
	m.help.Width = width
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.refresh()
		return m, tick()
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.active = (m.active + 1) % tabCount
			m.focus()
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.active = (m.active + tabCount - 1) % tabCount
			m.focus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.active {
	case tabBots:
		m.bots, cmd = m.bots.Update(msg)
	case tabSignals:
		m.radar, cmd = m.radar.Update(msg)
	case tabLedger:
		m.ledger, cmd = m.ledger.Update(msg)
	case tabAudit:
		m.audit, cmd = m.audit.Update(msg)
	}
	return m, cmd
}

func (m *Model) focus() {
	for _, t := range []*table.Model{&m.bots, &m.radar, &m.daily, &m.ledger, &m.audit} {
		t.Blur()
	}
	switch m.active {
	case tabBots:
		m.bots.Focus()
	case tabSignals:
		m.radar.Focus()
	case tabLedger:
		m.ledger.Focus()
	case tabAudit:
		m.audit.Focus()
	}
}

func (m *Model) refresh() {
	m.state = m.src.Snapshot()
	m.bots.SetRows(botRows(m.state.Bots))
	m.radar.SetRows(radarRows(m.state.Radar))
	m.daily.SetRows(dailyRows(m.state.Daily))
	m.ledger.SetRows(ledgerRows(m.state.Transactions))
	m.audit.SetRows(auditRows(m.state.Audit))
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AURA TRADE // terminal"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.active {
	case tabOverview:
		b.WriteString(renderOverview(m.state))
	case tabBots:
		b.WriteString(panelStyle.Render(m.bots.View()))
	case tabSignals:
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Render("Radar\n"+m.radar.View()),
			panelStyle.Render("Daily\n"+m.daily.View()),
		))
	case tabLedger:
		b.WriteString(panelStyle.Render(m.ledger.View()))
	case tabAudit:
		b.WriteString(panelStyle.Render(m.audit.View()))
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, tabCount)
	for i, name := range tabNames {
		if tab(i) == m.active {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderStatus() string {
	status := lossStyle.Render("LOCKED")
	if m.state.Authenticated {
		status = gainStyle.Render("LIVE")
	}
	parts := []string{"user " + m.username, "session " + status}
	if m.state.Syncing {
		parts = append(parts, "syncing")
	}
	if m.state.Confirmation != nil {
		parts = append(parts, "awaiting: "+m.state.Confirmation.Title)
	}
	return statusBarStyle.Render(strings.Join(parts, "  |  "))
}

func renderOverview(st session.State) string {
	if !st.Authenticated {
		return panelStyle.Render(warnStyle.Render("Session locked. Log in on the dashboard to start the simulation."))
	}
	w := st.Wallet
	p := st.Portfolio
	wallet := strings.Join([]string{
		labelStyle.Render("Available ") + fmt.Sprintf("%.2f %s", w.Available, w.Currency),
		labelStyle.Render("Allocated ") + fmt.Sprintf("%.2f", w.Allocated),
		labelStyle.Render("Pending   ") + fmt.Sprintf("%.2f", w.Pending),
		labelStyle.Render("Total     ") + fmt.Sprintf("%.2f", w.Total()),
		labelStyle.Render("AURA      ") + fmt.Sprintf("%.2f", w.AuraBalance),
	}, "\n")

	rollup := "never"
	if p.LastRollup != nil {
		rollup = p.LastRollup.Format("15:04:05")
	}
	portfolio := strings.Join([]string{
		labelStyle.Render("Active bots  ") + fmt.Sprintf("%d/%d", p.ActiveBots, len(st.Bots)),
		labelStyle.Render("Avg win rate ") + fmt.Sprintf("%.1f%%", p.AvgWinRate),
		labelStyle.Render("Block height ") + fmt.Sprintf("%d", p.BlockHeight),
		labelStyle.Render("Last rollup  ") + rollup,
	}, "\n")

	var notes []string
	for _, n := range st.Notifications {
		notes = append(notes, fmt.Sprintf("%s: %s", n.Title, n.Message))
	}
	if len(notes) == 0 {
		notes = append(notes, labelStyle.Render("No notifications"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Render("Wallet\n"+wallet),
			panelStyle.Render("Portfolio\n"+portfolio),
		),
		panelStyle.Render("Notifications\n"+strings.Join(notes, "\n")),
	)
}

func botRows(bots []domain.Bot) []table.Row {
	rows := make([]table.Row, 0, len(bots))
	for _, b := range bots {
		rows = append(rows, table.Row{
			b.Name, b.Pair, string(b.Strategy), string(b.Status),
			fmt.Sprintf("%.2f", b.PNL),
			fmt.Sprintf("%.2f", b.PNLPercent),
			fmt.Sprintf("%d", b.TotalTrades),
			fmt.Sprintf("%.1f", b.WinRate),
		})
	}
	return rows
}

func radarRows(signals []domain.RadarSignal) []table.Row {
	rows := make([]table.Row, 0, len(signals))
	for _, s := range signals {
		rows = append(rows, table.Row{
			s.Pair, strings.ToUpper(string(s.Signal)),
			fmt.Sprintf("%.1f", s.Confidence),
			fmt.Sprintf("%+.2f", s.ProjectedReturn),
		})
	}
	return rows
}

func dailyRows(signals []domain.DailySignal) []table.Row {
	rows := make([]table.Row, 0, len(signals))
	for _, s := range signals {
		pnl := "-"
		if s.PNL != nil {
			pnl = fmt.Sprintf("%+.2f", *s.PNL)
		}
		rows = append(rows, table.Row{
			s.Pair, strings.ToUpper(string(s.Type)), strings.ToUpper(string(s.Status)),
			fmt.Sprintf("%.4g", s.EntryPrice), pnl,
		})
	}
	return rows
}

func ledgerRows(txs []domain.Transaction) []table.Row {
	rows := make([]table.Row, 0, len(txs))
	for _, tx := range txs {
		hash := tx.TxHash
		if hash == "" {
			hash = "-"
		}
		rows = append(rows, table.Row{
			tx.Timestamp.Format("15:04:05"), string(tx.Type),
			fmt.Sprintf("%.2f", tx.Amount), string(tx.Status), hash,
		})
	}
	return rows
}

func auditRows(entries []domain.AuditEntry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{
			e.Timestamp.Format("15:04:05"), strings.ToUpper(string(e.Severity)), e.Event,
		})
	}
	return rows
}
