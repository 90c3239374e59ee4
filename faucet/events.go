package faucet

import (
	"context"
	"time"
)

// TransferCompleted is emitted after a transfer was accepted by a node
// and committed to the ledger.
type TransferCompleted struct {
	TransferID      string    `json:"transfer_id"`
	Recipient       string    `json:"recipient"`
	Amount          Amount    `json:"amount"`
	Fee             Amount    `json:"fee"`
	Date            DateStamp `json:"date"`
	Node            string    `json:"node"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// EventPublisher receives completed-transfer events. Publishing is
// best-effort: a failure never fails the transfer that produced it.
type EventPublisher interface {
	PublishTransferCompleted(ctx context.Context, ev TransferCompleted) error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTransferCompleted(context.Context, TransferCompleted) error { return nil }
