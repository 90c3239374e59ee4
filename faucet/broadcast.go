/*
broadcast.go - Node-failover broadcast of a signed transaction

PURPOSE:
  Walks the configured node list in order, probes each node's liveness,
  and announces the signed transaction to the first healthy node. Node
  health and transaction validity are orthogonal failure axes: a sick
  node means "try the next one", an invalid transaction means "stop,
  no node can help".

CLASSIFICATION:
  The node client maps the remote announce response to a closed Outcome
  once; nothing downstream matches on message strings.

  OutcomeAccepted             terminal success
  OutcomeInsufficientFee      terminal failure (transaction property)
  OutcomeInsufficientBalance  terminal failure (transaction property)
  OutcomeNodeError            node-local, fail over to the next node
  OutcomeExhausted            every node tried, generic bad request

CONCURRENCY:
  Strictly sequential scan. Per-call timeouts belong to the node
  client; there is no overall deadline composed across nodes, and no
  cancellation once an announce is in flight.
*/
package faucet

import (
	"context"

	"github.com/rs/zerolog"
)

// HeartbeatHealthy is the status code a live node reports.
const HeartbeatHealthy = 1

// HeartbeatStatus is a node's liveness report.
type HeartbeatStatus struct {
	Code    int
	Message string
}

// Healthy reports whether the node is fit to receive an announce.
func (h HeartbeatStatus) Healthy() bool { return h.Code == HeartbeatHealthy }

// Outcome is the closed classification of a broadcast attempt.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeInsufficientFee
	OutcomeInsufficientBalance
	OutcomeNodeError
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeInsufficientFee:
		return "insufficient_fee"
	case OutcomeInsufficientBalance:
		return "insufficient_balance"
	case OutcomeNodeError:
		return "node_error"
	default:
		return "exhausted"
	}
}

// Terminal reports whether the outcome ends the node scan. Terminal
// failures are a property of the transaction itself, so retrying a
// different node cannot change them.
func (o Outcome) Terminal() bool {
	switch o {
	case OutcomeAccepted, OutcomeInsufficientFee, OutcomeInsufficientBalance:
		return true
	}
	return false
}

// AnnounceResult is the classified response to a transaction announce.
type AnnounceResult struct {
	Outcome         Outcome
	Code            int
	Message         string
	TransactionHash string
	Node            string // endpoint that produced this result
}

// NodeClient is the wire-level contract to a single network node.
// Implemented by nem.Client.
type NodeClient interface {
	Heartbeat(ctx context.Context) (HeartbeatStatus, error)
	Announce(ctx context.Context, signed SignedTransaction) (AnnounceResult, error)
}

// NodeDialer turns a node endpoint into a client. Injectable in tests.
type NodeDialer func(endpoint string) NodeClient

// Broadcaster submits signed transactions with linear node failover.
type Broadcaster struct {
	dial NodeDialer
	log  zerolog.Logger
}

// NewBroadcaster creates a broadcaster using dial to reach nodes.
func NewBroadcaster(dial NodeDialer, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{dial: dial, log: log}
}

// Broadcast announces the signed transaction to the first healthy node
// in list order. It returns on the first terminal outcome; if every
// node is exhausted the result carries OutcomeExhausted.
func (b *Broadcaster) Broadcast(ctx context.Context, signed SignedTransaction, nodes []string) AnnounceResult {
	for _, endpoint := range nodes {
		client := b.dial(endpoint)

		hb, err := client.Heartbeat(ctx)
		if err != nil || !hb.Healthy() {
			b.log.Debug().Str("node", endpoint).Err(err).Int("code", hb.Code).
				Msg("skipping unhealthy node")
			continue
		}

		result, err := client.Announce(ctx, signed)
		if err != nil {
			b.log.Debug().Str("node", endpoint).Err(err).Msg("announce failed, failing over")
			continue
		}
		result.Node = endpoint

		if result.Outcome.Terminal() {
			return result
		}
		b.log.Debug().Str("node", endpoint).Str("message", result.Message).
			Msg("node-local announce error, failing over")
	}

	// Mirrors the upstream protocol's default: exhaustion is reported as
	// a generic bad request, not attributed to any single node.
	return AnnounceResult{Outcome: OutcomeExhausted, Code: 400, Message: "Bad Request"}
}
