// Package wallet tracks the connection to an external wallet account.
package wallet

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

const (
	ErrMsgNotFound    = "MetaMask not found. Please install the browser extension."
	ErrMsgRejected    = "Connection rejected. Please approve the connection in MetaMask."
	ErrMsgConnect     = "Failed to connect wallet."
	ErrMsgCheckFailed = "Failed to check for connected wallet."
)

type ProviderStatus string

const (
	ProviderUnknown ProviderStatus = "unknown"
	ProviderPresent ProviderStatus = "present"
	ProviderAbsent  ProviderStatus = "absent"
)

type Phase string

const (
	PhaseUnknown      Phase = "unknown"
	PhaseNoProvider   Phase = "no-provider"
	PhaseDisconnected Phase = "disconnected"
	PhaseConnected    Phase = "connected"
)

type State struct {
	Account        string         `json:"account,omitempty"`
	Loading        bool           `json:"loading"`
	Error          string         `json:"error,omitempty"`
	ProviderStatus ProviderStatus `json:"provider_status"`
}

func (s State) Phase() Phase {
	switch {
	case s.ProviderStatus == ProviderAbsent:
		return PhaseNoProvider
	case s.ProviderStatus == ProviderUnknown:
		return PhaseUnknown
	case s.Account != "":
		return PhaseConnected
	default:
		return PhaseDisconnected
	}
}

// Connector is the wallet connection state machine. Listeners registered
// with OnChange see every committed state.
type Connector struct {
	tracer   trace.Tracer
	provider Provider

	mu          sync.Mutex
	emitMu      sync.Mutex
	state       State
	subscribed  bool
	requesting  bool
	closed      bool
	unsubscribe func()
	listeners   []func(State)
}

// NewConnector builds a connector. A nil provider behaves as absent.
func NewConnector(tracer trace.Tracer, provider Provider) *Connector {
	return &Connector{
		tracer:   tracer,
		provider: provider,
		state:    State{Loading: true, ProviderStatus: ProviderUnknown},
	}
}

// OnChange registers fn for state changes. Register before Init.
func (c *Connector) OnChange(fn func(State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// resolveLocked settles provider presence once. Caller holds mu.
func (c *Connector) resolveLocked() ProviderStatus {
	if c.state.ProviderStatus == ProviderUnknown {
		if c.provider != nil && c.provider.Detect() {
			c.state.ProviderStatus = ProviderPresent
		} else {
			c.state.ProviderStatus = ProviderAbsent
			c.state.Loading = false
		}
	}
	return c.state.ProviderStatus
}

// Init resolves the provider, silently picks up an already authorized
// account and installs the account-change subscription.
func (c *Connector) Init(ctx context.Context) State {
	ctx, span := c.tracer.Start(ctx, "wallet-connector.init")
	defer span.End()

	c.mu.Lock()
	if c.resolveLocked() == ProviderAbsent {
		st := c.state
		c.mu.Unlock()
		c.emit()
		return st
	}
	c.state.Loading = true
	c.mu.Unlock()

	accounts, err := c.provider.AuthorizedAccounts(ctx)

	c.mu.Lock()
	c.state.Loading = false
	if err != nil {
		c.state.Error = ErrMsgCheckFailed
	} else if len(accounts) > 0 {
		c.state.Account = accounts[0]
	}
	if !c.subscribed && !c.closed {
		c.unsubscribe = c.provider.SubscribeAccountChange(c.handleAccountsChanged)
		c.subscribed = true
	}
	st := c.state
	c.mu.Unlock()

	c.emit()
	return st
}

// Connect asks the provider for account access. It is a no-op while
// already connected or while another request is pending.
func (c *Connector) Connect(ctx context.Context) State {
	ctx, span := c.tracer.Start(ctx, "wallet-connector.connect")
	defer span.End()

	c.mu.Lock()
	if c.resolveLocked() == ProviderAbsent {
		c.state.Error = ErrMsgNotFound
		st := c.state
		c.mu.Unlock()
		c.emit()
		return st
	}
	if c.state.Account != "" || c.requesting {
		st := c.state
		c.mu.Unlock()
		return st
	}
	c.requesting = true
	c.state.Loading = true
	c.state.Error = ""
	c.mu.Unlock()
	c.emit()

	accounts, err := c.provider.RequestAccounts(ctx)

	c.mu.Lock()
	c.requesting = false
	c.state.Loading = false
	switch {
	case errors.Is(err, ErrUserRejected):
		c.state.Error = ErrMsgRejected
	case err != nil, len(accounts) == 0:
		c.state.Error = ErrMsgConnect
	default:
		c.state.Account = accounts[0]
	}
	st := c.state
	c.mu.Unlock()

	c.emit()
	return st
}

// Disconnect forgets the account locally. The provider keeps its
// authorization.
func (c *Connector) Disconnect() State {
	c.mu.Lock()
	c.state.Account = ""
	c.state.Error = ""
	st := c.state
	c.mu.Unlock()
	c.emit()
	return st
}

func (c *Connector) handleAccountsChanged(accounts []string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.Account = ""
	if len(accounts) > 0 {
		c.state.Account = accounts[0]
	}
	c.mu.Unlock()
	c.emit()
}

// Close removes the account-change subscription. Later calls do nothing.
func (c *Connector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// emit delivers the current state. Deliveries are serialised and each reads
// the state afresh, so the last state a listener sees is the latest one.
func (c *Connector) emit() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	st := c.state
	listeners := append(([]func(State))(nil), c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}
