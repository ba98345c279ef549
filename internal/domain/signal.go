package domain

type SignalSide string

const (
	SideBuy  SignalSide = "buy"
	SideSell SignalSide = "sell"
)

// RadarSignal is a live speculative indicator. Confidence is kept within
// [RadarMinConfidence, RadarMaxConfidence].
type RadarSignal struct {
	ID              string     `json:"id"`
	Pair            string     `json:"pair"`
	Signal          SignalSide `json:"signal"`
	Confidence      float64    `json:"confidence"`
	ProjectedReturn float64    `json:"projected_return"`
}

const (
	RadarMinConfidence = 70.0
	RadarMaxConfidence = 99.0
)

type PositionType string

const (
	PositionLong  PositionType = "long"
	PositionShort PositionType = "short"
)

type SignalStatus string

const (
	SignalOpen   SignalStatus = "open"
	SignalClosed SignalStatus = "closed"
)

// DailySignal moves one way from open to closed; PNL is set only once closed.
type DailySignal struct {
	ID         string       `json:"id"`
	Pair       string       `json:"pair"`
	Type       PositionType `json:"type"`
	Status     SignalStatus `json:"status"`
	EntryPrice float64      `json:"entry_price"`
	PNL        *float64     `json:"pnl,omitempty"`
}
