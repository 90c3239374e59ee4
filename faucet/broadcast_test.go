package faucet_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/qora/testnet-faucet/faucet"
)

// fakeNode scripts one node's behavior and records what was called.
type fakeNode struct {
	heartbeatCode int
	heartbeatErr  error
	announce      faucet.AnnounceResult
	announceErr   error

	probed    bool
	announced bool
}

func (f *fakeNode) Heartbeat(context.Context) (faucet.HeartbeatStatus, error) {
	f.probed = true
	return faucet.HeartbeatStatus{Code: f.heartbeatCode}, f.heartbeatErr
}

func (f *fakeNode) Announce(context.Context, faucet.SignedTransaction) (faucet.AnnounceResult, error) {
	f.announced = true
	return f.announce, f.announceErr
}

// fakeNet maps endpoints to fake nodes and records contact order.
type fakeNet struct {
	nodes map[string]*fakeNode
	order []string
}

func (n *fakeNet) dial(endpoint string) faucet.NodeClient {
	n.order = append(n.order, endpoint)
	return n.nodes[endpoint]
}

func newBroadcaster(net *fakeNet) *faucet.Broadcaster {
	return faucet.NewBroadcaster(net.dial, zerolog.Nop())
}

func signedTx() faucet.SignedTransaction {
	return faucet.SignedTransaction{Data: []byte{1, 2}, Signature: []byte{3, 4}}
}

func TestBroadcast_FailoverOrdering(t *testing.T) {
	// A's heartbeat fails, B is healthy but returns a node-local announce
	// error, C succeeds. The broadcaster must contact A, B, C in order
	// and return C's success - never short-circuit at B.
	net := &fakeNet{nodes: map[string]*fakeNode{
		"a": {heartbeatErr: errors.New("dial timeout")},
		"b": {heartbeatCode: 1, announce: faucet.AnnounceResult{
			Outcome: faucet.OutcomeNodeError, Code: 5, Message: "FAILURE_PAST_DEADLINE"}},
		"c": {heartbeatCode: 1, announce: faucet.AnnounceResult{
			Outcome: faucet.OutcomeAccepted, Code: 1, Message: "SUCCESS", TransactionHash: "abcd"}},
	}}

	result := newBroadcaster(net).Broadcast(context.Background(), signedTx(), []string{"a", "b", "c"})

	assert.Equal(t, []string{"a", "b", "c"}, net.order)
	assert.False(t, net.nodes["a"].announced, "dead node must not receive an announce")
	assert.True(t, net.nodes["b"].announced)
	assert.Equal(t, faucet.OutcomeAccepted, result.Outcome)
	assert.Equal(t, "abcd", result.TransactionHash)
	assert.Equal(t, "c", result.Node)
}

func TestBroadcast_TerminalFailureShortCircuits(t *testing.T) {
	// Insufficient balance is a property of the transaction, not the
	// node: the second node must never be probed.
	net := &fakeNet{nodes: map[string]*fakeNode{
		"a": {heartbeatCode: 1, announce: faucet.AnnounceResult{
			Outcome: faucet.OutcomeInsufficientBalance, Code: 5, Message: "FAILURE_INSUFFICIENT_BALANCE"}},
		"b": {heartbeatCode: 1},
	}}

	result := newBroadcaster(net).Broadcast(context.Background(), signedTx(), []string{"a", "b"})

	assert.Equal(t, faucet.OutcomeInsufficientBalance, result.Outcome)
	assert.False(t, net.nodes["b"].probed, "terminal failure must stop the scan")
}

func TestBroadcast_InsufficientFeeIsTerminal(t *testing.T) {
	net := &fakeNet{nodes: map[string]*fakeNode{
		"a": {heartbeatCode: 1, announce: faucet.AnnounceResult{
			Outcome: faucet.OutcomeInsufficientFee, Code: 5, Message: "FAILURE_INSUFFICIENT_FEE"}},
		"b": {heartbeatCode: 1},
	}}

	result := newBroadcaster(net).Broadcast(context.Background(), signedTx(), []string{"a", "b"})

	assert.Equal(t, faucet.OutcomeInsufficientFee, result.Outcome)
	assert.False(t, net.nodes["b"].probed)
}

func TestBroadcast_ExhaustionIsGenericBadRequest(t *testing.T) {
	net := &fakeNet{nodes: map[string]*fakeNode{
		"a": {heartbeatCode: 0}, // alive but not healthy
		"b": {heartbeatCode: 1, announceErr: errors.New("connection reset")},
	}}

	result := newBroadcaster(net).Broadcast(context.Background(), signedTx(), []string{"a", "b"})

	assert.Equal(t, faucet.OutcomeExhausted, result.Outcome)
	assert.Equal(t, 400, result.Code)
	assert.Equal(t, "Bad Request", result.Message)
	assert.False(t, net.nodes["a"].announced, "unhealthy node must be skipped without announce")
}

func TestBroadcast_EmptyNodeList(t *testing.T) {
	net := &fakeNet{nodes: map[string]*fakeNode{}}
	result := newBroadcaster(net).Broadcast(context.Background(), signedTx(), nil)
	assert.Equal(t, faucet.OutcomeExhausted, result.Outcome)
}

func TestOutcome_Terminality(t *testing.T) {
	assert.True(t, faucet.OutcomeAccepted.Terminal())
	assert.True(t, faucet.OutcomeInsufficientFee.Terminal())
	assert.True(t, faucet.OutcomeInsufficientBalance.Terminal())
	assert.False(t, faucet.OutcomeNodeError.Terminal())
	assert.False(t, faucet.OutcomeExhausted.Terminal())
}
