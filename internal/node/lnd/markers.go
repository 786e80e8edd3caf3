package lnd

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/05nelsonm/zap-desktop/internal/node/chainsync"
)

// lnd's structured log lines are the only channel for lifecycle
// information; no health-check port is polled. These markers are matched
// against every stdout/stderr line.
var (
	reSyncingTo       = regexp.MustCompile(`Syncing to block height (\d+)`)
	reNewBlock        = regexp.MustCompile(`New block: height=(\d+)`)
	reCaughtUp        = regexp.MustCompile(`Caught up to height (\d+)`)
	reCFHeadersCaught = regexp.MustCompile(`Fully caught up with cfheaders at height (\d+)`)
	reCFHeadersWrite  = regexp.MustCompile(`Writing cfheaders at height=(\d+)`)
)

const (
	markerUnlockerListening  = "password RPC server listening"
	markerLightningListening = "RPC server listening"
	markerSyncWaiting        = "Waiting for chain backend to finish sync"
	markerSyncFinished       = "Chain backend is fully synced"
	markerErrLevel           = "[ERR]"
)

// lineParser turns raw log lines into events. It keeps just enough state to
// emit the once-only events exactly once and to remember the last error
// line for the exit report.
type lineParser struct {
	unlockerSeen  bool
	lightningSeen bool
	syncStarted   bool
	lastError     string
}

func (p *lineParser) parse(line string) []Event {
	if strings.Contains(line, markerErrLevel) {
		p.lastError = line
	}

	var events []Event

	switch {
	case strings.Contains(line, markerUnlockerListening):
		if !p.unlockerSeen {
			p.unlockerSeen = true
			events = append(events, UnlockerActiveEvent{})
		}
		return events

	// The unlocker marker is a superstring of this one, so this case
	// must come second.
	case strings.Contains(line, markerLightningListening):
		if !p.lightningSeen {
			p.lightningSeen = true
			events = append(events, LightningActiveEvent{})
		}
		return events

	case strings.Contains(line, markerSyncWaiting):
		return append(events, SyncWaitingEvent{})

	case strings.Contains(line, markerSyncFinished):
		return append(events, SyncFinishedEvent{})
	}

	if m := reSyncingTo.FindStringSubmatch(line); m != nil {
		if !p.syncStarted {
			p.syncStarted = true
			events = append(events, SyncStartedEvent{})
		}
		return appendHeight(events, chainsync.HeightChain, m[1])
	}
	if m := reNewBlock.FindStringSubmatch(line); m != nil {
		return appendHeight(events, chainsync.HeightBlock, m[1])
	}
	if m := reCaughtUp.FindStringSubmatch(line); m != nil {
		return appendHeight(events, chainsync.HeightBlock, m[1])
	}
	if m := reCFHeadersCaught.FindStringSubmatch(line); m != nil {
		return appendHeight(events, chainsync.HeightFilter, m[1])
	}
	if m := reCFHeadersWrite.FindStringSubmatch(line); m != nil {
		return appendHeight(events, chainsync.HeightFilter, m[1])
	}

	return events
}

func appendHeight(events []Event, kind chainsync.HeightKind, raw string) []Event {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return events
	}
	return append(events, HeightUpdateEvent{Kind: kind, Value: v})
}
