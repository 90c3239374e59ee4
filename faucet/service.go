/*
service.go - The transfer orchestrator

PURPOSE:
  Composes the ledger, the limit policy, the transaction collaborators,
  and the broadcaster into the single SendTransfer operation:

    validate -> build -> sign -> broadcast -> commit to ledger

ORDERING GUARANTEES:
  The ledger is incremented only after a node confirmed acceptance,
  never before. A crash between broadcast success and the ledger write
  is an accepted, documented gap: the transfer happened but the ledger
  undercounts it. The reverse (counting a transfer that never happened)
  cannot occur.

CONCURRENCY:
  Invocations are independent; the only shared mutable state is the
  ledger. Limit checks read totals that may be stale relative to
  concurrent in-flight transfers - two simultaneous requests can both
  pass validation and jointly exceed a ceiling. The atomic Increment
  prevents lost updates; closing the check-to-commit window is
  deliberately not attempted here.
*/
package faucet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// COLLABORATOR CONTRACTS - Implemented by the nem package
// =============================================================================

// UnsignedTransaction is a built transfer transaction awaiting a
// signature. Bytes returns the canonical encoding that gets signed.
type UnsignedTransaction interface {
	Bytes() ([]byte, error)
	Fee() Amount
	Timestamp() int64
}

// TransactionBuilder constructs transfer transactions with an
// estimated fee.
type TransactionBuilder interface {
	BuildTransfer(recipient string, amount Amount) (UnsignedTransaction, error)
}

// Signer produces a signature over a transaction's canonical bytes.
type Signer interface {
	Sign(raw, publicKey, privateKey []byte) ([]byte, error)
}

// KeySource retrieves the master account's signing key material.
type KeySource interface {
	Keys(ctx context.Context) (publicKey, privateKey []byte, err error)
}

// =============================================================================
// TRANSFER RESULT
// =============================================================================

// TransferResult is the classified outcome of a transfer request.
// Every result - acceptance, limit rejection, terminal node failure,
// exhaustion - is a value, not an error; the front end serializes all
// of them the same way.
type TransferResult struct {
	TransferID      string    `json:"transfer_id"`
	Recipient       string    `json:"recipient"`
	Amount          Amount    `json:"amount"`
	Fee             Amount    `json:"fee"`
	Status          string    `json:"status"`
	Accepted        bool      `json:"accepted"`
	Code            int       `json:"code"`
	Message         string    `json:"message,omitempty"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
	Date            DateStamp `json:"date"`
	Timestamp       int64     `json:"timestamp,omitempty"`
}

// =============================================================================
// SERVICE - The orchestrator
// =============================================================================

// Service orchestrates transfers. All dependencies are injected; the
// Service holds no mutable state of its own and is safe for concurrent
// use.
type Service struct {
	store     LedgerStore
	builder   TransactionBuilder
	signer    Signer
	keys      KeySource
	broadcast *Broadcaster
	events    EventPublisher
	limits    Limits
	log       zerolog.Logger
}

// NewService wires the orchestrator. A nil events publisher defaults
// to NopPublisher.
func NewService(store LedgerStore, builder TransactionBuilder, signer Signer, keys KeySource,
	broadcast *Broadcaster, events EventPublisher, limits Limits, log zerolog.Logger) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		store:     store,
		builder:   builder,
		signer:    signer,
		keys:      keys,
		broadcast: broadcast,
		events:    events,
		limits:    limits,
		log:       log,
	}
}

// SendTransfer validates amount against the ledger ceilings, builds and
// signs a transfer to recipient, broadcasts it across nodes, and on
// confirmed acceptance commits the amount to the ledger.
//
// Limit rejections and broadcast failures come back as a classified
// TransferResult with a nil error. A non-nil error means the request
// could not be processed at all (store unreachable, key material
// missing, build or sign failure).
func (s *Service) SendTransfer(ctx context.Context, recipient string, amount Amount, nodes []string) (*TransferResult, error) {
	result := &TransferResult{
		TransferID: uuid.NewString(),
		Recipient:  recipient,
		Amount:     amount,
		Date:       Today(),
	}

	// Validate against current ledger state. Reads are re-done on every
	// call; nothing is cached across invocations.
	addressTotal, err := s.store.TotalByAddress(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("read address total: %w", err)
	}
	dailyTotal, err := s.store.TotalByDate(ctx, result.Date)
	if err != nil {
		return nil, fmt.Errorf("read daily total: %w", err)
	}
	if err := s.limits.Check(amount, addressTotal, dailyTotal); err != nil {
		var limitErr *LimitError
		if !errors.As(err, &limitErr) {
			return nil, fmt.Errorf("limit check: %w", err)
		}
		s.log.Info().Str("transfer_id", result.TransferID).Str("recipient", recipient).
			Stringer("amount", amount).Str("verdict", string(limitErr.Verdict)).
			Msg("transfer refused by limit policy")
		result.Status = string(limitErr.Verdict)
		result.Code = 400
		result.Message = limitErr.Error()
		return result, nil
	}

	// Build and sign.
	tx, err := s.builder.BuildTransfer(recipient, amount)
	if err != nil {
		return nil, fmt.Errorf("build transfer: %w", err)
	}
	raw, err := tx.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode transfer: %w", err)
	}
	pub, priv, err := s.keys.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch signing keys: %w", err)
	}
	sig, err := s.signer.Sign(raw, pub, priv)
	if err != nil {
		return nil, fmt.Errorf("sign transfer: %w", err)
	}
	result.Fee = tx.Fee()
	result.Timestamp = tx.Timestamp()

	// Broadcast with node failover.
	announce := s.broadcast.Broadcast(ctx, SignedTransaction{Data: raw, Signature: sig}, nodes)
	result.Code = announce.Code
	result.Message = announce.Message
	result.TransactionHash = announce.TransactionHash

	switch announce.Outcome {
	case OutcomeAccepted:
		result.Status = OutcomeAccepted.String()
		result.Accepted = true
	case OutcomeExhausted:
		result.Status = "bad_request"
	default:
		result.Status = announce.Outcome.String()
	}
	if !result.Accepted {
		s.log.Info().Str("transfer_id", result.TransferID).Str("status", result.Status).
			Str("message", result.Message).Msg("broadcast did not succeed")
		return result, nil
	}

	// Commit after confirmed acceptance, never before. A failure here is
	// logged and swallowed: the transfer already happened on the network
	// and the caller must be told so.
	if _, err := s.store.Increment(ctx, recipient, amount); err != nil {
		s.log.Error().Err(err).Str("transfer_id", result.TransferID).
			Str("recipient", recipient).Stringer("amount", amount).
			Msg("ledger increment failed after accepted broadcast")
	}

	ev := TransferCompleted{
		TransferID:      result.TransferID,
		Recipient:       recipient,
		Amount:          amount,
		Fee:             result.Fee,
		Date:            result.Date,
		Node:            announce.Node,
		TransactionHash: announce.TransactionHash,
		OccurredAt:      time.Now().UTC(),
	}
	if err := s.events.PublishTransferCompleted(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("transfer_id", result.TransferID).
			Msg("transfer event publish failed")
	}

	s.log.Info().Str("transfer_id", result.TransferID).Str("recipient", recipient).
		Stringer("amount", amount).Str("node", announce.Node).Msg("transfer accepted")
	return result, nil
}
