package lnrpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestEncodeUnlockWallet(t *testing.T) {
	b := EncodeUnlockWallet([]byte("passw0rd"), 250)

	num, typ, n := protowire.ConsumeTag(b)
	assert.Greater(t, n, 0)
	assert.Equal(t, protowire.Number(1), num)
	assert.Equal(t, protowire.BytesType, typ)
	b = b[n:]

	password, n := protowire.ConsumeBytes(b)
	assert.Greater(t, n, 0)
	assert.Equal(t, "passw0rd", string(password))
	b = b[n:]

	num, typ, n = protowire.ConsumeTag(b)
	assert.Greater(t, n, 0)
	assert.Equal(t, protowire.Number(4), num)
	assert.Equal(t, protowire.VarintType, typ)
	b = b[n:]

	window, n := protowire.ConsumeVarint(b)
	assert.Greater(t, n, 0)
	assert.Equal(t, uint64(250), window)
	assert.Empty(t, b[n:])
}

func TestEncodeUnlockWalletOmitsZeroWindow(t *testing.T) {
	b := EncodeUnlockWallet([]byte("pw"), 0)

	_, _, n := protowire.ConsumeTag(b)
	b = b[n:]
	_, n = protowire.ConsumeBytes(b)
	assert.Empty(t, b[n:])
}

func buildGetInfoResponse(pubkey, alias string, height uint64, synced bool) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(pubkey))
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(alias))
	// An unknown field the decoder must skip.
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, 3)
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, height)
	var syncedBit uint64
	if synced {
		syncedBit = 1
	}
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, syncedBit)
	return b
}

func TestDecodeGetInfo(t *testing.T) {
	b := buildGetInfoResponse("02abcdef", "zap-node", 434403, true)

	info, err := DecodeGetInfo(b)
	assert.Nil(t, err)
	assert.Equal(t, "02abcdef", info.IdentityPubkey)
	assert.Equal(t, "zap-node", info.Alias)
	assert.Equal(t, uint32(434403), info.BlockHeight)
	assert.True(t, info.SyncedToChain)
}

func TestDecodeGetInfoEmpty(t *testing.T) {
	info, err := DecodeGetInfo(nil)
	assert.Nil(t, err)
	assert.Equal(t, Info{}, info)
}

func TestDecodeGetInfoMalformed(t *testing.T) {
	_, err := DecodeGetInfo([]byte{0xff})
	assert.NotNil(t, err)
}

func TestDecodeTransaction(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("deadbeef"))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, 21000)
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, 6)
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, 434400)

	tx, err := DecodeTransaction(b)
	assert.Nil(t, err)
	assert.Equal(t, "deadbeef", tx.TxHash)
	assert.Equal(t, int64(21000), tx.Amount)
	assert.Equal(t, int32(6), tx.NumConfirmations)
	assert.Equal(t, int32(434400), tx.BlockHeight)
}
