package controller

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/05nelsonm/zap-desktop/api/types"
	"github.com/05nelsonm/zap-desktop/internal/node/chainsync"
	"github.com/05nelsonm/zap-desktop/internal/node/lnd"
	"github.com/05nelsonm/zap-desktop/internal/node/rpc"
)

// The controller is the sole subscriber of process lifecycle events. Events
// arrive one at a time, in the order the process log produced them.

func (c *Controller) Name() string {
	return "controller"
}

func (c *Controller) ConsumeEvent(e lnd.Event) error {
	switch ev := e.(type) {
	case lnd.UnlockerActiveEvent:
		c.handleUnlockerActive()
	case lnd.LightningActiveEvent:
		c.handleLightningActive()
	case lnd.SyncWaitingEvent:
		c.setSyncStatus(types.SyncWaiting)
	case lnd.SyncStartedEvent:
		c.setSyncStatus(types.SyncInProgress)
	case lnd.SyncFinishedEvent:
		c.finishSync()
	case lnd.HeightUpdateEvent:
		c.handleHeightUpdate(ev)
	case lnd.ProcessErrorEvent:
		log.Warn().Err(ev.Err).Msg("lnd supervision error")
	case lnd.ProcessExitedEvent:
		c.handleProcessExited(ev)
	}
	return nil
}

// handleUnlockerActive connects the wallet unlocker once log evidence shows
// its endpoint listening. No macaroon exists at this point; the channel
// authenticates with TLS alone.
func (c *Controller) handleUnlockerActive() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.state != StateStartingNode {
		c.mu.Unlock()
		return
	}
	nodeCfg := c.nodeCfg
	sessionCtx := c.sessionCtx
	c.mu.Unlock()

	cert := rpc.Source{Path: nodeCfg.CertPath, Bytes: nodeCfg.Cert}
	unlocker := c.deps.NewConnector(rpc.ServiceWalletUnlocker, nodeCfg.Host, cert, rpc.Source{})
	if err := unlocker.Connect(sessionCtx); err != nil {
		log.Error().Err(err).Msg("unable to connect wallet unlocker")
		c.notifyOnboardingError(err)
		return
	}

	c.mu.Lock()
	state, err := next(c.state, TransitionServiceActive)
	if err != nil {
		c.mu.Unlock()
		c.disconnect(unlocker)
		return
	}
	c.unlocker = unlocker
	c.state = state
	c.mu.Unlock()

	c.notifier.Notify(types.Notification{Type: types.NotifyUnlockerActive, Config: nodeCfg})
}

// handleLightningActive connects the authenticated lightning service once
// the process reports it listening, which only happens after unlock.
func (c *Controller) handleLightningActive() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	sessionCtx := c.sessionCtx
	c.mu.Unlock()

	if err := c.connectLightning(sessionCtx); err != nil {
		log.Error().Err(err).Msg("unable to connect lightning service")
	}
}

func (c *Controller) handleHeightUpdate(ev lnd.HeightUpdateEvent) {
	state := c.tracker.Update(ev.Kind, ev.Value)

	var t types.NotificationType
	var height uint64
	switch ev.Kind {
	case chainsync.HeightChain:
		t, height = types.NotifyCurrentHeight, state.ChainHeight
	case chainsync.HeightBlock:
		t, height = types.NotifyNodeHeight, state.BlockHeight
	case chainsync.HeightFilter:
		t, height = types.NotifyCfilterHeight, state.FilterHeight
	default:
		return
	}

	n := types.Notification{Type: t, Height: height}
	if pct, ok := chainsync.Percentage(state); ok {
		n.Percentage = &pct
	}
	c.notifier.Notify(n)

	// A wallet that synced before may already be at the tip when the
	// markers start arriving.
	if state.ChainHeight > 0 &&
		state.BlockHeight >= state.ChainHeight &&
		state.FilterHeight >= state.ChainHeight {
		c.finishSync()
	}
}

func (c *Controller) setSyncStatus(status types.SyncStatus) {
	c.mu.Lock()
	if c.syncStatus == status {
		c.mu.Unlock()
		return
	}
	c.syncStatus = status
	c.mu.Unlock()

	c.notifier.Notify(types.Notification{Type: types.NotifySyncStatus, Status: status})
}

// handleProcessExited deals with the supervised process going away. During
// termination the exit is expected and already handled; any other time it is
// a failure the user has to hear about.
func (c *Controller) handleProcessExited(ev lnd.ProcessExitedEvent) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.state == StateTerminated || c.state == StateNew || c.state == StateOnboarding {
		c.mu.Unlock()
		return
	}
	state, _ := next(c.state, TransitionTerminate)
	cancel := c.cancel
	unlocker, lightning := c.unlocker, c.lightning
	c.cancel = nil
	c.unlocker, c.lightning = nil, nil
	c.daemon = nil
	c.state = state
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.disconnect(unlocker)
	c.disconnect(lightning)

	msg := fmt.Sprintf("lnd exited unexpectedly with code %d", ev.Code)
	if ev.LastError != "" {
		msg = fmt.Sprintf("%s: %s", msg, ev.LastError)
	}
	log.Error().Msg(msg)
	c.notifier.Notify(types.Notification{Type: types.NotifyNodeError, Message: msg})
}
