/*
transaction.go - Transfer transaction construction and fee estimation

Builds version-2 transfer transactions carrying the configured mosaic.
The quantity travels in the mosaic attachment; the transaction-level
amount stays zero. Fees are deliberately over-estimated: a transfer
refused for an over-generous fee does not happen, one refused for a
stingy fee wastes a broadcast round.

Byte layout follows the network's little-endian serialization; the
signature is computed over exactly these bytes.
*/
package nem

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qora/testnet-faucet/faucet"
)

// Network constants.
const (
	transferType   = 0x0101
	testnetVersion = 0x98000002 // testnet byte, relative version 2

	addressLength = 40
	publicKeyLen  = 32

	deadlineWindow = time.Hour
)

// nemEpoch is the network's time origin; timestamps are seconds since.
var nemEpoch = time.Date(2015, time.March, 29, 0, 6, 25, 0, time.UTC)

// feeUnit is the micro-unit value of one fee unit (0.05 of the base
// currency after the 0.6.82 fee change).
const feeUnit = 50_000

// MosaicDefinition describes the mosaic this faucet dispenses. Supply
// and divisibility feed fee estimation.
type MosaicDefinition struct {
	Namespace    string `json:"namespace"`
	Name         string `json:"name"`
	Divisibility int    `json:"divisibility"`
	Supply       int64  `json:"supply"`
}

// MessageDefinition is the fixed message attached to every transfer.
type MessageDefinition struct {
	Payload string `json:"payload"`
	Type    int    `json:"type"`
}

// Mosaic is a quantity of a mosaic attached to a transfer.
type Mosaic struct {
	Namespace string
	Name      string
	Quantity  int64
}

// =============================================================================
// FEE ESTIMATION
// =============================================================================

// EstimateMessageFee returns the fee owed for a message, in micro-units.
func EstimateMessageFee(msg MessageDefinition) faucet.Amount {
	if msg.Payload == "" {
		return faucet.ZeroAmount()
	}
	units := int64(len(msg.Payload)/32 + 1)
	return faucet.NewAmount(units * feeUnit)
}

// EstimateMosaicFee over-estimates the fee for transferring quantity of
// the mosaic. The quantity is scaled to its base-currency equivalent by
// supply and divisibility, then charged on the transfer fee curve,
// clamped to [1, 25] fee units. Exact decimal arithmetic; the
// intermediate product does not fit int64 for large quantities.
func EstimateMosaicFee(def MosaicDefinition, quantity int64) faucet.Amount {
	divisor := decimal.New(def.Supply, int32(def.Divisibility))
	if divisor.Sign() <= 0 {
		divisor = decimal.New(1, 0)
	}
	xemEquivalent := decimal.NewFromInt(quantity).
		Mul(decimal.NewFromInt(8_999_999_999)).
		Div(divisor)

	units := xemEquivalent.Div(decimal.NewFromInt(10_000)).Floor().IntPart()
	if units < 1 {
		units = 1
	}
	if units > 25 {
		units = 25
	}
	return faucet.NewAmount(units * feeUnit)
}

// =============================================================================
// TRANSFER TRANSACTION
// =============================================================================

// TransferTransaction is an unsigned version-2 transfer.
type TransferTransaction struct {
	TimeStamp uint32
	Deadline  uint32
	FeeMicro  uint64
	Signer    []byte // 32-byte public key
	Recipient string // 40-char address, normalized
	Message   MessageDefinition
	Mosaics   []Mosaic
}

var _ faucet.UnsignedTransaction = (*TransferTransaction)(nil)

func (t *TransferTransaction) Fee() faucet.Amount { return faucet.NewAmount(int64(t.FeeMicro)) }
func (t *TransferTransaction) Timestamp() int64   { return int64(t.TimeStamp) }

// Bytes returns the canonical little-endian encoding. This is the
// exact byte string that gets signed and announced.
func (t *TransferTransaction) Bytes() ([]byte, error) {
	if len(t.Signer) != publicKeyLen {
		return nil, fmt.Errorf("signer public key must be %d bytes, got %d", publicKeyLen, len(t.Signer))
	}
	if len(t.Recipient) != addressLength {
		return nil, fmt.Errorf("recipient address must be %d characters, got %d", addressLength, len(t.Recipient))
	}

	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	// Common header.
	w(uint32(transferType))
	w(uint32(testnetVersion))
	w(t.TimeStamp)
	w(uint32(publicKeyLen))
	buf.Write(t.Signer)
	w(t.FeeMicro)
	w(t.Deadline)

	// Transfer body.
	w(uint32(addressLength))
	buf.WriteString(t.Recipient)
	w(uint64(0)) // quantity carried by the mosaic attachment

	if t.Message.Payload == "" {
		w(uint32(0))
	} else {
		payload := []byte(t.Message.Payload)
		w(uint32(8 + len(payload)))
		w(uint32(t.Message.Type))
		w(uint32(len(payload)))
		buf.Write(payload)
	}

	// Version 2: mosaic attachments.
	w(uint32(len(t.Mosaics)))
	for _, m := range t.Mosaics {
		ns, name := []byte(m.Namespace), []byte(m.Name)
		idLen := 4 + len(ns) + 4 + len(name)
		w(uint32(4 + idLen + 8))
		w(uint32(idLen))
		w(uint32(len(ns)))
		buf.Write(ns)
		w(uint32(len(name)))
		buf.Write(name)
		w(uint64(m.Quantity))
	}

	return buf.Bytes(), nil
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder constructs transfers for the faucet's master account. It
// satisfies faucet.TransactionBuilder.
type Builder struct {
	mosaic  MosaicDefinition
	message MessageDefinition
	signer  []byte

	now func() time.Time
}

// NewBuilder creates a builder from the configured mosaic and message
// definitions and the master account's hex public key.
func NewBuilder(mosaic MosaicDefinition, message MessageDefinition, publicKeyHex string) (*Builder, error) {
	signer, err := hex.DecodeString(strings.TrimSpace(publicKeyHex))
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(signer) != publicKeyLen {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", publicKeyLen, len(signer))
	}
	return &Builder{mosaic: mosaic, message: message, signer: signer, now: time.Now}, nil
}

// NetworkTime returns seconds since the network epoch.
func (b *Builder) NetworkTime() uint32 {
	return uint32(b.now().UTC().Sub(nemEpoch) / time.Second)
}

// BuildTransfer constructs an unsigned transfer of amount to recipient,
// with the fee estimated from the mosaic and message definitions and a
// one-hour deadline.
func (b *Builder) BuildTransfer(recipient string, amount faucet.Amount) (faucet.UnsignedTransaction, error) {
	addr, err := NormalizeAddress(recipient)
	if err != nil {
		return nil, err
	}

	quantity := amount.Micro()
	fee := EstimateMosaicFee(b.mosaic, quantity).Add(EstimateMessageFee(b.message))
	ts := b.NetworkTime()

	return &TransferTransaction{
		TimeStamp: ts,
		Deadline:  ts + uint32(deadlineWindow/time.Second),
		FeeMicro:  uint64(fee.Micro()),
		Signer:    b.signer,
		Recipient: addr,
		Message:   b.message,
		Mosaics: []Mosaic{{
			Namespace: b.mosaic.Namespace,
			Name:      b.mosaic.Name,
			Quantity:  quantity,
		}},
	}, nil
}

// NormalizeAddress upper-cases an address and strips the conventional
// dash grouping, then checks the fixed length.
func NormalizeAddress(address string) (string, error) {
	addr := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(address), "-", ""))
	if len(addr) != addressLength {
		return "", fmt.Errorf("address %q: want %d characters after normalization, got %d",
			address, addressLength, len(addr))
	}
	return addr, nil
}
