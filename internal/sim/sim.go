// Package sim holds the pure state transitions of the market simulation.
// Every function returns fresh slices and never mutates its input.
package sim

import (
	"math"

	"auratrade/internal/domain"
)

// Rand is the randomness source of a tick. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

const (
	PerformanceFeeRate = 0.05

	pnlBias        = 0.48
	pnlScale       = 1.5
	tradeChance    = 0.95
	winRateStep    = 0.5
	minWinRate     = 40.0
	maxWinRate     = 95.0
	confidenceStep = 1.5
	returnStep     = 0.2
	closeThreshold = 0.7
	closePNLBias   = 0.3
	closePNLScale  = 5.0
)

// FeeCharge is a performance fee taken from a positive PNL delta.
type FeeCharge struct {
	BotID  string
	Amount float64
}

// TickBots advances every running bot by one step. Stopped bots are copied
// through untouched.
func TickBots(bots []domain.Bot, rng Rand) ([]domain.Bot, []FeeCharge) {
	out := make([]domain.Bot, len(bots))
	var fees []FeeCharge
	for i, b := range bots {
		if b.Status != domain.BotRunning {
			out[i] = b
			continue
		}

		delta := (rng.Float64() - pnlBias) * pnlScale
		next, fee := ApplyPNLDelta(b, delta)
		if fee > 0 {
			fees = append(fees, FeeCharge{BotID: b.ID, Amount: fee})
		}

		if rng.Float64() > tradeChance {
			next.TotalTrades++
		}
		next.WinRate = clamp(next.WinRate+(rng.Float64()-0.5)*winRateStep, minWinRate, maxWinRate)

		out[i] = next
	}
	return out, fees
}

// ApplyPNLDelta credits a raw PNL delta to b. Positive deltas pay the
// performance fee first; the returned fee is zero otherwise.
func ApplyPNLDelta(b domain.Bot, delta float64) (domain.Bot, float64) {
	var fee float64
	net := delta
	if delta > 0 {
		fee = delta * PerformanceFeeRate
		net = delta - fee
	}
	b.PNL += net
	if b.Collateral > 0 {
		b.PNLPercent += net / b.Collateral * 100
	}
	return b, fee
}

// TickRadar nudges confidence (bounded) and projected return (unbounded).
func TickRadar(signals []domain.RadarSignal, rng Rand) []domain.RadarSignal {
	out := make([]domain.RadarSignal, len(signals))
	for i, s := range signals {
		s.Confidence = clamp(s.Confidence+(rng.Float64()-0.5)*confidenceStep,
			domain.RadarMinConfidence, domain.RadarMaxConfidence)
		s.ProjectedReturn += (rng.Float64() - 0.5) * returnStep
		out[i] = s
	}
	return out
}

// TickDailySignals may close the first open signal. At most one signal
// changes per call.
func TickDailySignals(signals []domain.DailySignal, rng Rand) []domain.DailySignal {
	out := make([]domain.DailySignal, len(signals))
	copy(out, signals)

	idx := -1
	for i, s := range out {
		if s.Status == domain.SignalOpen {
			idx = i
			break
		}
	}
	if idx == -1 {
		return out
	}
	if rng.Float64() <= closeThreshold {
		return out
	}

	pnl := (rng.Float64() - closePNLBias) * closePNLScale
	closed := out[idx]
	closed.Status = domain.SignalClosed
	closed.PNL = &pnl
	out[idx] = closed
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
