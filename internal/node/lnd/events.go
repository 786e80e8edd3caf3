package lnd

import "github.com/05nelsonm/zap-desktop/internal/node/chainsync"

// Event is a discrete lifecycle notification from the supervised lnd
// process. Events are delivered through the pubsub channel in the order the
// underlying log lines were observed.
type Event interface {
	event()
}

// UnlockerActiveEvent fires once, when log evidence shows the wallet
// unlocker gRPC endpoint is listening.
type UnlockerActiveEvent struct{}

// LightningActiveEvent fires once, when the main lightning gRPC endpoint is
// listening (after the wallet has been unlocked).
type LightningActiveEvent struct{}

// SyncWaitingEvent fires when lnd reports it is waiting on the chain
// backend before sync can begin.
type SyncWaitingEvent struct{}

// SyncStartedEvent fires once, on the first evidence of active chain sync.
type SyncStartedEvent struct{}

// SyncFinishedEvent fires when lnd reports the chain backend fully synced.
type SyncFinishedEvent struct{}

// HeightUpdateEvent carries one counter update for the sync tracker.
type HeightUpdateEvent struct {
	Kind  chainsync.HeightKind
	Value uint64
}

// ProcessErrorEvent reports a supervision failure that is not a process
// exit, such as losing the log pipe.
type ProcessErrorEvent struct {
	Err error
}

// ProcessExitedEvent fires when the lnd process terminates, expectedly or
// not. LastError is the last [ERR] log line seen, if any.
type ProcessExitedEvent struct {
	Code      int
	LastError string
}

func (UnlockerActiveEvent) event()  {}
func (LightningActiveEvent) event() {}
func (SyncWaitingEvent) event()     {}
func (SyncStartedEvent) event()     {}
func (SyncFinishedEvent) event()    {}
func (HeightUpdateEvent) event()    {}
func (ProcessErrorEvent) event()    {}
func (ProcessExitedEvent) event()   {}
