package domain

import "time"

type TxType string

const (
	TxDeposit      TxType = "deposit"
	TxWithdraw     TxType = "withdraw"
	TxAllocation   TxType = "allocation"
	TxPNLSync      TxType = "pnl_sync"
	TxFeeDeduction TxType = "fee_deduction"
	TxReward       TxType = "reward"
	TxFaucet       TxType = "faucet"
)

type TxStatus string

const (
	TxPending    TxStatus = "pending"
	TxProcessing TxStatus = "processing"
	TxCompleted  TxStatus = "completed"
	TxFailed     TxStatus = "failed"
)

var txStatusRank = map[TxStatus]int{
	TxPending:    0,
	TxProcessing: 1,
	TxCompleted:  2,
	TxFailed:     2,
}

// CanAdvanceTo reports whether moving from s to next is a strictly forward
// step. Completed and failed are both terminal.
func (s TxStatus) CanAdvanceTo(next TxStatus) bool {
	from, ok := txStatusRank[s]
	if !ok {
		return false
	}
	to, ok := txStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

type Transaction struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      TxType    `json:"type"`
	Amount    float64   `json:"amount"`
	Status    TxStatus  `json:"status"`
	TxHash    string    `json:"tx_hash,omitempty"`
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type AuditEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Severity  Severity  `json:"severity"`
}

type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyAlert   NotificationType = "alert"
)

type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
}
