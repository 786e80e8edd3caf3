// Package lnrpc carries the minimal slice of lnd's RPC surface that zapd
// itself depends on: unlock, get-info, and stop, plus the transaction
// subscription stream. Messages are encoded and decoded directly with
// protowire rather than generated stubs; everything else on the lnd API is
// passed through verbatim as raw bytes on behalf of the renderer.
package lnrpc

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Service names as they appear in gRPC method paths.
const (
	WalletUnlockerService = "lnrpc.WalletUnlocker"
	LightningService      = "lnrpc.Lightning"
)

// Full method names for the calls zapd issues itself.
const (
	MethodUnlockWallet          = "/lnrpc.WalletUnlocker/UnlockWallet"
	MethodGetInfo               = "/lnrpc.Lightning/GetInfo"
	MethodStopDaemon            = "/lnrpc.Lightning/StopDaemon"
	MethodSubscribeTransactions = "/lnrpc.Lightning/SubscribeTransactions"
)

// lnrpc.GetInfoResponse field numbers.
const (
	getInfoFieldIdentityPubkey = 1
	getInfoFieldAlias          = 2
	getInfoFieldBlockHeight    = 6
	getInfoFieldSyncedToChain  = 9
)

// lnrpc.UnlockWalletRequest field numbers.
const (
	unlockFieldWalletPassword = 1
	unlockFieldRecoveryWindow = 4
)

// lnrpc.Transaction field numbers.
const (
	txFieldTxHash           = 1
	txFieldAmount           = 2
	txFieldNumConfirmations = 3
	txFieldBlockHeight      = 5
)

// Info is the subset of GetInfoResponse the controller consumes.
type Info struct {
	IdentityPubkey string
	Alias          string
	BlockHeight    uint32
	SyncedToChain  bool
}

// Transaction is the subset of lnrpc.Transaction relayed to the renderer.
type Transaction struct {
	TxHash           string
	Amount           int64
	NumConfirmations int32
	BlockHeight      int32
}

// EncodeUnlockWallet builds an UnlockWalletRequest.
func EncodeUnlockWallet(password []byte, recoveryWindow int32) []byte {
	var b []byte
	b = protowire.AppendTag(b, unlockFieldWalletPassword, protowire.BytesType)
	b = protowire.AppendBytes(b, password)
	if recoveryWindow != 0 {
		b = protowire.AppendTag(b, unlockFieldRecoveryWindow, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(recoveryWindow))
	}
	return b
}

// EmptyRequest is the wire form of an empty message (GetInfoRequest,
// StopRequest).
func EmptyRequest() []byte {
	return []byte{}
}

// DecodeGetInfo parses the fields of interest out of a GetInfoResponse,
// skipping everything it does not know about.
func DecodeGetInfo(b []byte) (Info, error) {
	var info Info
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case getInfoFieldIdentityPubkey:
			info.IdentityPubkey = string(payload)
		case getInfoFieldAlias:
			info.Alias = string(payload)
		case getInfoFieldBlockHeight:
			v, n := protowire.ConsumeVarint(payload)
			if n < 0 {
				return protowire.ParseError(n)
			}
			info.BlockHeight = uint32(v)
		case getInfoFieldSyncedToChain:
			v, n := protowire.ConsumeVarint(payload)
			if n < 0 {
				return protowire.ParseError(n)
			}
			info.SyncedToChain = v != 0
		}
		return nil
	})
	if err != nil {
		return Info{}, fmt.Errorf("malformed GetInfoResponse: %w", err)
	}
	return info, nil
}

// DecodeTransaction parses a single streamed lnrpc.Transaction.
func DecodeTransaction(b []byte) (Transaction, error) {
	var tx Transaction
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch num {
		case txFieldTxHash:
			tx.TxHash = string(payload)
		case txFieldAmount:
			v, n := protowire.ConsumeVarint(payload)
			if n < 0 {
				return protowire.ParseError(n)
			}
			tx.Amount = int64(v)
		case txFieldNumConfirmations:
			v, n := protowire.ConsumeVarint(payload)
			if n < 0 {
				return protowire.ParseError(n)
			}
			tx.NumConfirmations = int32(v)
		case txFieldBlockHeight:
			v, n := protowire.ConsumeVarint(payload)
			if n < 0 {
				return protowire.ParseError(n)
			}
			tx.BlockHeight = int32(v)
		}
		return nil
	})
	if err != nil {
		return Transaction{}, fmt.Errorf("malformed Transaction: %w", err)
	}
	return tx, nil
}

// walkFields iterates a wire-format message, handing each field to fn. For
// bytes fields the payload is the unwrapped bytes; for varint fields it is
// the raw varint so fn can consume it with the width it expects.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, payload []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			payload, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if err := fn(num, typ, payload); err != nil {
				return err
			}
			b = b[n:]
		case protowire.VarintType:
			_, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if err := fn(num, typ, b[:n]); err != nil {
				return err
			}
			b = b[n:]
		case protowire.Fixed32Type:
			_, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		case protowire.Fixed64Type:
			_, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		default:
			return fmt.Errorf("unsupported wire type %v for field %d", typ, num)
		}
	}
	return nil
}
