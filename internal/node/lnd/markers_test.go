package lnd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/05nelsonm/zap-desktop/internal/node/chainsync"
)

func TestParserServiceMarkers(t *testing.T) {
	p := &lineParser{}

	events := p.parse("2026-08-25 10:00:01.000 [INF] RPCS: password RPC server listening on 127.0.0.1:10009")
	assert.Equal(t, []Event{UnlockerActiveEvent{}}, events)

	// Once only.
	events = p.parse("[INF] RPCS: password RPC server listening on 127.0.0.1:10009")
	assert.Empty(t, events)

	events = p.parse("2026-08-25 10:00:09.000 [INF] RPCS: RPC server listening on 127.0.0.1:10009")
	assert.Equal(t, []Event{LightningActiveEvent{}}, events)

	events = p.parse("[INF] RPCS: RPC server listening on 127.0.0.1:10009")
	assert.Empty(t, events)
}

func TestParserUnlockerMarkerDoesNotShadowLightning(t *testing.T) {
	p := &lineParser{}

	// The password marker contains the lightning marker as a substring;
	// seeing it must not consume the lightning event.
	p.parse("[INF] RPCS: password RPC server listening on 127.0.0.1:10009")
	events := p.parse("[INF] RPCS: RPC server listening on 127.0.0.1:10009")
	assert.Equal(t, []Event{LightningActiveEvent{}}, events)
}

func TestParserSyncMarkers(t *testing.T) {
	p := &lineParser{}

	events := p.parse("[INF] LTND: Waiting for chain backend to finish sync, start_height=434000")
	assert.Equal(t, []Event{SyncWaitingEvent{}}, events)

	events = p.parse("[INF] BTCN: Syncing to block height 434403 from peer 1.2.3.4:8333")
	assert.Equal(t, []Event{
		SyncStartedEvent{},
		HeightUpdateEvent{Kind: chainsync.HeightChain, Value: 434403},
	}, events)

	// SyncStarted fires once; later reference updates are heights only.
	events = p.parse("[INF] BTCN: Syncing to block height 434500 from peer 1.2.3.4:8333")
	assert.Equal(t, []Event{
		HeightUpdateEvent{Kind: chainsync.HeightChain, Value: 434500},
	}, events)

	events = p.parse("[INF] LTND: Chain backend is fully synced (end_height=434500)!")
	assert.Equal(t, []Event{SyncFinishedEvent{}}, events)
}

func TestParserHeightMarkers(t *testing.T) {
	tests := []struct {
		line string
		want HeightUpdateEvent
	}{
		{
			line: "[INF] NTFN: New block: height=434100, sha=00000000000000000001",
			want: HeightUpdateEvent{Kind: chainsync.HeightBlock, Value: 434100},
		},
		{
			line: "[INF] BTCN: Caught up to height 434200",
			want: HeightUpdateEvent{Kind: chainsync.HeightBlock, Value: 434200},
		},
		{
			line: "[INF] BTCN: Fully caught up with cfheaders at height 434300, waiting at tip for new blocks",
			want: HeightUpdateEvent{Kind: chainsync.HeightFilter, Value: 434300},
		},
		{
			line: "[INF] BTCN: Writing cfheaders at height=434250 to next checkpoint",
			want: HeightUpdateEvent{Kind: chainsync.HeightFilter, Value: 434250},
		},
	}

	for _, tt := range tests {
		p := &lineParser{}
		events := p.parse(tt.line)
		assert.Equal(t, []Event{tt.want}, events, tt.line)
	}
}

func TestParserRecordsLastError(t *testing.T) {
	p := &lineParser{}

	events := p.parse("[ERR] LTND: unable to create chain control: connection refused")
	assert.Empty(t, events)
	assert.Contains(t, p.lastError, "unable to create chain control")
}

func TestParserIgnoresNoise(t *testing.T) {
	p := &lineParser{}
	assert.Empty(t, p.parse("[INF] LTND: Version: 0.18.0-beta"))
	assert.Empty(t, p.parse(""))
}
