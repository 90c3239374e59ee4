package faucet_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qora/testnet-faucet/faucet"
	"github.com/qora/testnet-faucet/store/memory"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type stubTx struct {
	raw []byte
	fee faucet.Amount
	ts  int64
}

func (s stubTx) Bytes() ([]byte, error) { return s.raw, nil }
func (s stubTx) Fee() faucet.Amount     { return s.fee }
func (s stubTx) Timestamp() int64       { return s.ts }

type stubBuilder struct {
	calls int
	err   error
}

func (b *stubBuilder) BuildTransfer(string, faucet.Amount) (faucet.UnsignedTransaction, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return stubTx{raw: []byte{0xaa, 0xbb}, fee: faucet.NewAmount(150_000), ts: 12345}, nil
}

type stubSigner struct{}

func (stubSigner) Sign(raw, _, _ []byte) ([]byte, error) { return append([]byte("sig:"), raw...), nil }

type stubKeys struct{ err error }

func (k stubKeys) Keys(context.Context) ([]byte, []byte, error) {
	return []byte("pub"), []byte("priv"), k.err
}

type capturingPublisher struct {
	events []faucet.TransferCompleted
	err    error
}

func (p *capturingPublisher) PublishTransferCompleted(_ context.Context, ev faucet.TransferCompleted) error {
	p.events = append(p.events, ev)
	return p.err
}

// failingIncrementStore lets everything through except Increment.
type failingIncrementStore struct {
	faucet.LedgerStore
}

func (f failingIncrementStore) Increment(context.Context, string, faucet.Amount) (faucet.Amount, error) {
	return faucet.Amount{}, faucet.StoreUnavailable("increment", errors.New("boom"))
}

type serviceFixture struct {
	store     *memory.Store
	builder   *stubBuilder
	net       *fakeNet
	publisher *capturingPublisher
	service   *faucet.Service
}

func newServiceFixture(t *testing.T, net *fakeNet) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:     memory.New(),
		builder:   &stubBuilder{},
		net:       net,
		publisher: &capturingPublisher{},
	}
	f.service = faucet.NewService(
		f.store, f.builder, stubSigner{}, stubKeys{},
		faucet.NewBroadcaster(net.dial, zerolog.Nop()),
		f.publisher, testLimits(), zerolog.Nop(),
	)
	return f
}

func acceptingNet() *fakeNet {
	return &fakeNet{nodes: map[string]*fakeNode{
		"n1": {heartbeatCode: 1, announce: faucet.AnnounceResult{
			Outcome: faucet.OutcomeAccepted, Code: 1, Message: "SUCCESS", TransactionHash: "feed"}},
	}}
}

// =============================================================================
// VALIDATION SHORT-CIRCUITS
// =============================================================================

func TestSendTransfer_InvalidAmount_NoBuildNoBroadcastNoWrite(t *testing.T) {
	f := newServiceFixture(t, acceptingNet())
	ctx := context.Background()

	result, err := f.service.SendTransfer(ctx, "TBADDR", faucet.NewAmount(0), []string{"n1"})
	require.NoError(t, err)

	assert.Equal(t, string(faucet.VerdictInvalidAmount), result.Status)
	assert.False(t, result.Accepted)
	assert.Zero(t, f.builder.calls, "no transaction may be built")
	assert.Empty(t, f.net.order, "no node may be contacted")

	total, err := f.store.TotalByAddress(ctx, "TBADDR")
	require.NoError(t, err)
	assert.True(t, total.IsZero(), "ledger must be untouched")
}

func TestSendTransfer_AddressLimitExceeded_NoBroadcast(t *testing.T) {
	f := newServiceFixture(t, acceptingNet())
	ctx := context.Background()

	_, err := f.store.Increment(ctx, "TBADDR", faucet.NewAmount(95))
	require.NoError(t, err)

	result, err := f.service.SendTransfer(ctx, "TBADDR", faucet.NewAmount(10), []string{"n1"})
	require.NoError(t, err)

	assert.Equal(t, string(faucet.VerdictAddressLimitExceeded), result.Status)
	assert.Empty(t, f.net.order)

	total, err := f.store.TotalByAddress(ctx, "TBADDR")
	require.NoError(t, err)
	assert.Equal(t, int64(95), total.Micro(), "rejected request must not change the ledger")
}

func TestSendTransfer_DailyLimitExceeded_EvenForTinyAmount(t *testing.T) {
	f := newServiceFixture(t, acceptingNet())
	ctx := context.Background()

	// Prior activity by other addresses pushed the day over its ceiling.
	_, err := f.store.Increment(ctx, "OTHER1", faucet.NewAmount(600))
	require.NoError(t, err)
	_, err = f.store.Increment(ctx, "OTHER2", faucet.NewAmount(500))
	require.NoError(t, err)

	result, err := f.service.SendTransfer(ctx, "TBADDR", faucet.NewAmount(1), []string{"n1"})
	require.NoError(t, err)

	assert.Equal(t, string(faucet.VerdictDailyLimitExceeded), result.Status)
	assert.Empty(t, f.net.order)
}

// =============================================================================
// BROADCAST AND COMMIT
// =============================================================================

func TestSendTransfer_Success_CommitsExactAmountAfterBroadcast(t *testing.T) {
	f := newServiceFixture(t, acceptingNet())
	ctx := context.Background()

	result, err := f.service.SendTransfer(ctx, "TBADDR", faucet.NewAmount(40), []string{"n1"})
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, "accepted", result.Status)
	assert.Equal(t, "feed", result.TransactionHash)
	assert.Equal(t, int64(150_000), result.Fee.Micro())
	assert.Equal(t, int64(12345), result.Timestamp)
	assert.NotEmpty(t, result.TransferID)

	today, err := f.store.Get(ctx, "TBADDR")
	require.NoError(t, err)
	assert.Equal(t, int64(40), today.Micro(), "ledger must grow by exactly the sent amount")

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	assert.Equal(t, result.TransferID, ev.TransferID)
	assert.Equal(t, "TBADDR", ev.Recipient)
	assert.Equal(t, int64(40), ev.Amount.Micro())
	assert.Equal(t, "n1", ev.Node)
}

func TestSendTransfer_ExhaustedBroadcast_LeavesLedgerUnchanged(t *testing.T) {
	net := &fakeNet{nodes: map[string]*fakeNode{
		"n1": {heartbeatErr: errors.New("unreachable")},
		"n2": {heartbeatCode: 0},
	}}
	f := newServiceFixture(t, net)
	ctx := context.Background()

	result, err := f.service.SendTransfer(ctx, "TBADDR", faucet.NewAmount(40), []string{"n1", "n2"})
	require.NoError(t, err)

	assert.False(t, result.Accepted)
	assert.Equal(t, "bad_request", result.Status)
	assert.Equal(t, 400, result.Code)

	_, err = f.store.Get(ctx, "TBADDR")
	assert.ErrorIs(t, err, faucet.ErrNotFound, "failed broadcast must not create a ledger entry")
	assert.Empty(t, f.publisher.events)
}

func TestSendTransfer_TerminalFailure_SurfacedUnchanged(t *testing.T) {
	net := &fakeNet{nodes: map[string]*fakeNode{
		"n1": {heartbeatCode: 1, announce: faucet.AnnounceResult{
			Outcome: faucet.OutcomeInsufficientBalance, Code: 5, Message: "FAILURE_INSUFFICIENT_BALANCE"}},
	}}
	f := newServiceFixture(t, net)
	ctx := context.Background()

	result, err := f.service.SendTransfer(ctx, "TBADDR", faucet.NewAmount(40), []string{"n1"})
	require.NoError(t, err)

	assert.Equal(t, "insufficient_balance", result.Status)
	assert.Equal(t, "FAILURE_INSUFFICIENT_BALANCE", result.Message)

	_, err = f.store.Get(ctx, "TBADDR")
	assert.ErrorIs(t, err, faucet.ErrNotFound)
}

func TestSendTransfer_IncrementFailureDoesNotFailAcceptedTransfer(t *testing.T) {
	f := newServiceFixture(t, acceptingNet())
	broken := faucet.NewService(
		failingIncrementStore{f.store}, f.builder, stubSigner{}, stubKeys{},
		faucet.NewBroadcaster(f.net.dial, zerolog.Nop()),
		f.publisher, testLimits(), zerolog.Nop(),
	)

	result, err := broken.SendTransfer(context.Background(), "TBADDR", faucet.NewAmount(40), []string{"n1"})
	require.NoError(t, err, "an accepted broadcast must be reported even if the ledger write failed")
	assert.True(t, result.Accepted)
}

func TestSendTransfer_StoreReadFailureFailsRequest(t *testing.T) {
	f := newServiceFixture(t, acceptingNet())
	brokenRead := brokenTotalsStore{f.store}
	svc := faucet.NewService(
		brokenRead, f.builder, stubSigner{}, stubKeys{},
		faucet.NewBroadcaster(f.net.dial, zerolog.Nop()),
		f.publisher, testLimits(), zerolog.Nop(),
	)

	_, err := svc.SendTransfer(context.Background(), "TBADDR", faucet.NewAmount(1), []string{"n1"})
	assert.ErrorIs(t, err, faucet.ErrStoreUnavailable)
	assert.Empty(t, f.net.order, "no broadcast on a failed limit read")
}

type brokenTotalsStore struct {
	faucet.LedgerStore
}

func (b brokenTotalsStore) TotalByAddress(context.Context, string) (faucet.Amount, error) {
	return faucet.Amount{}, faucet.StoreUnavailable("total by address", errors.New("down"))
}
