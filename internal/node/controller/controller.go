// Package controller drives the node session lifecycle: onboarding, local
// process supervision, service connection ordering, sync tracking and
// shutdown. All lifecycle decisions funnel through the Controller; the other
// packages only report what they observe.
package controller

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/05nelsonm/zap-desktop/api/types"
	"github.com/05nelsonm/zap-desktop/internal/node/chainsync"
	"github.com/05nelsonm/zap-desktop/internal/node/config"
	"github.com/05nelsonm/zap-desktop/internal/node/constants"
	"github.com/05nelsonm/zap-desktop/internal/node/lnd"
	"github.com/05nelsonm/zap-desktop/internal/node/lnrpc"
	"github.com/05nelsonm/zap-desktop/internal/node/pubsub"
	"github.com/05nelsonm/zap-desktop/internal/node/rpc"
	"github.com/05nelsonm/zap-desktop/internal/node/store"
)

// Daemon supervises a local lnd process.
type Daemon interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context, stop func(context.Context) error) error
	Running() bool
}

// ServiceConn fronts one lnd gRPC service.
type ServiceConn interface {
	Kind() rpc.ServiceKind
	State() rpc.State
	Connect(ctx context.Context) error
	Disconnect() error
	Invoke(ctx context.Context, method string, payload []byte) ([]byte, error)
	Subscribe(ctx context.Context, method string, payload []byte) (<-chan []byte, error)
}

// Persistence is the slice of the store the controller writes through.
type Persistence interface {
	UpsertWallet(w store.Wallet) error
	MarkSynced(id string) error
	SetActiveConnection(summary config.Summary) error
}

// Notifier delivers fire-and-forget notifications to the renderer.
type Notifier interface {
	Notify(n types.Notification)
}

// Deps carries the constructors and process hooks the controller invokes,
// injectable so tests can substitute fakes.
type Deps struct {
	NewDaemon    func(cfg *config.NodeConfig) Daemon
	NewConnector func(kind rpc.ServiceKind, target string, cert, macaroon rpc.Source) ServiceConn

	// Exit terminates the whole daemon process. Only the unrecoverable
	// duplicate-instance failure reaches it.
	Exit func(code int)
}

// DefaultDeps wires the real daemon and connector constructors. Events from
// spawned processes flow through publisher.
func DefaultDeps(publisher pubsub.Publisher[lnd.Event], exit func(code int)) Deps {
	return Deps{
		NewDaemon: func(cfg *config.NodeConfig) Daemon {
			return lnd.NewDaemon(cfg, publisher)
		},
		NewConnector: func(kind rpc.ServiceKind, target string, cert, macaroon rpc.Source) ServiceConn {
			return rpc.NewConnector(kind, target, cert, macaroon)
		},
		Exit: exit,
	}
}

type Controller struct {
	cfg      *config.Config
	db       Persistence
	notifier Notifier
	deps     Deps

	settle time.Duration

	// opMu serializes lifecycle transitions end to end, teardown and
	// settle delay included. A transition that is mid-flight blocks the
	// next one until it resolves or fails. mu below only guards field
	// snapshots and is never held across blocking work.
	opMu sync.Mutex

	mu         sync.Mutex
	state      State
	nodeCfg    *config.NodeConfig
	daemon     Daemon
	unlocker   ServiceConn
	lightning  ServiceConn
	syncStatus types.SyncStatus
	sessionCtx context.Context
	cancel     context.CancelFunc

	tracker *chainsync.Tracker
}

func NewController(cfg *config.Config, db Persistence, notifier Notifier, deps Deps) *Controller {
	return &Controller{
		cfg:        cfg,
		db:         db,
		notifier:   notifier,
		deps:       deps,
		settle:     constants.SettleDelay,
		state:      StateNew,
		syncStatus: types.SyncPending,
		sessionCtx: context.Background(),
		tracker:    chainsync.NewTracker(),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartOnboarding tears down whatever session exists and presents a fresh
// default configuration to the user. The settle delay between teardown and
// the new session lets closed gRPC channels finish dying before new ones are
// opened against the same target.
func (c *Controller) StartOnboarding(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	state, err := next(c.state, TransitionOnboard)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	cancel := c.cancel
	unlocker, lightning := c.unlocker, c.lightning
	daemon := c.daemon
	c.cancel = nil
	c.unlocker, c.lightning = nil, nil
	c.daemon = nil
	c.syncStatus = types.SyncPending
	c.tracker.Reset()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.disconnect(unlocker)
	c.disconnect(lightning)
	if daemon != nil {
		if err := daemon.Shutdown(ctx, nil); err != nil {
			log.Warn().Err(err).Msg("unable to stop previous node during re-onboarding")
		}
	}
	time.Sleep(c.settle)

	// The onboarding state only becomes observable once its config is in
	// place; nothing may ever see the state without the config.
	nodeCfg := config.DefaultNodeConfig(c.cfg)
	c.mu.Lock()
	c.nodeCfg = nodeCfg
	c.state = state
	c.mu.Unlock()

	c.notifier.Notify(types.Notification{Type: types.NotifyOnboardingStarted, Config: nodeCfg})
	return nil
}

// StartLocalNode spawns a supervised lnd process for the current session.
// From here the lifecycle is driven by process events: the controller
// connects the unlocker when the process reports its endpoint listening.
func (c *Controller) StartLocalNode(ctx context.Context, req types.OnboardingRequest) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	state, err := next(c.state, TransitionStartNode)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	nodeCfg := *c.nodeCfg
	nodeCfg.Kind = config.KindLocal
	if req.Network != "" {
		nodeCfg.Network = req.Network
		nodeCfg.MacaroonPath = c.cfg.AdminMacaroonPath(req.Network)
	}
	if req.Alias != "" {
		nodeCfg.Alias = req.Alias
	}
	nodeCfg.Autopilot = req.Autopilot

	daemon := c.deps.NewDaemon(&nodeCfg)
	sessionCtx, cancel := context.WithCancel(context.Background())

	c.nodeCfg = &nodeCfg
	c.daemon = daemon
	c.sessionCtx = sessionCtx
	c.cancel = cancel
	c.state = state
	c.mu.Unlock()

	if err := c.persistSession(&nodeCfg); err != nil {
		c.mu.Lock()
		c.state = StateOnboarding
		c.daemon = nil
		c.cancel = nil
		c.mu.Unlock()
		cancel()

		c.notifyOnboardingError(err)
		return err
	}

	if err := daemon.Start(ctx); err != nil {
		if errors.Is(err, lnd.ErrAlreadyRunning) {
			// Another writer on the same data dir would corrupt it.
			// Nothing can be recovered from here.
			log.Error().Err(err).Msg("refusing to start a second lnd instance")
			c.notifier.Notify(types.Notification{
				Type:  types.NotifyOnboardingError,
				Error: &types.OnboardingError{Message: err.Error()},
			})
			_ = c.terminate(ctx)
			c.deps.Exit(1)
			return err
		}

		c.mu.Lock()
		c.state = StateOnboarding
		c.daemon = nil
		c.cancel = nil
		c.mu.Unlock()
		cancel()

		c.notifyOnboardingError(err)
		return err
	}
	return nil
}

// ConnectRemote connects the current session to an lnd instance run
// elsewhere. The lightning service is probed first; a target that answers
// but does not implement it has a locked wallet, so the controller falls
// back to the unlocker endpoint on the same listener.
func (c *Controller) ConnectRemote(ctx context.Context, req types.OnboardingRequest) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.state != StateOnboarding {
		err := &TransitionError{From: c.state, Transition: TransitionConnect}
		c.mu.Unlock()
		return err
	}
	nodeCfg := *c.nodeCfg
	nodeCfg.Kind = config.KindRemote
	nodeCfg.Host = req.Host
	nodeCfg.BinaryPath = ""
	nodeCfg.DataDir = ""
	if req.Network != "" {
		nodeCfg.Network = req.Network
	}
	c.mu.Unlock()

	cert, macaroon, err := sourcesFromRequest(req, &nodeCfg)
	if err != nil {
		c.notifyOnboardingError(err)
		return err
	}

	lightning := c.deps.NewConnector(rpc.ServiceLightning, nodeCfg.Host, cert, macaroon)
	if err := lightning.Connect(ctx); err != nil {
		c.notifyOnboardingError(err)
		return err
	}

	raw, err := lightning.Invoke(ctx, lnrpc.MethodGetInfo, lnrpc.EmptyRequest())
	if err != nil {
		c.disconnect(lightning)

		if errors.Is(err, rpc.ErrServiceUnimplemented) {
			time.Sleep(c.settle)
			return c.connectRemoteUnlocker(ctx, &nodeCfg, cert)
		}

		c.notifyOnboardingError(err)
		return err
	}

	info, err := lnrpc.DecodeGetInfo(raw)
	if err != nil {
		c.disconnect(lightning)
		c.notifyOnboardingError(err)
		return err
	}

	c.mu.Lock()
	state, terr := next(c.state, TransitionConnect)
	if terr != nil {
		c.mu.Unlock()
		c.disconnect(lightning)
		return terr
	}
	sessionCtx, cancel := context.WithCancel(context.Background())
	c.nodeCfg = &nodeCfg
	c.lightning = lightning
	c.sessionCtx = sessionCtx
	c.cancel = cancel
	c.state = state
	c.mu.Unlock()

	if err := c.persistSession(&nodeCfg); err != nil {
		return err
	}
	c.beginLightningSession(sessionCtx, lightning, info)
	return nil
}

func (c *Controller) connectRemoteUnlocker(ctx context.Context, nodeCfg *config.NodeConfig, cert rpc.Source) error {
	unlocker := c.deps.NewConnector(rpc.ServiceWalletUnlocker, nodeCfg.Host, cert, rpc.Source{})
	if err := unlocker.Connect(ctx); err != nil {
		c.notifyOnboardingError(err)
		return err
	}

	c.mu.Lock()
	state, err := next(c.state, TransitionServiceActive)
	if err != nil {
		c.mu.Unlock()
		c.disconnect(unlocker)
		return err
	}
	sessionCtx, cancel := context.WithCancel(context.Background())
	c.nodeCfg = nodeCfg
	c.unlocker = unlocker
	c.sessionCtx = sessionCtx
	c.cancel = cancel
	c.state = state
	c.mu.Unlock()

	c.notifier.Notify(types.Notification{Type: types.NotifyUnlockerActive, Config: nodeCfg})
	return nil
}

// UnlockWallet forwards the user's password to the wallet unlocker. For a
// remote node the controller then dials the lightning service itself; for a
// local one the process log announces it.
func (c *Controller) UnlockWallet(ctx context.Context, password []byte, recoveryWindow int32) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.state != StateRunning || c.unlocker == nil {
		err := fmt.Errorf("no wallet unlocker connection in state %q", c.state)
		c.mu.Unlock()
		return err
	}
	unlocker := c.unlocker
	kind := c.nodeCfg.Kind
	c.mu.Unlock()

	if _, err := unlocker.Invoke(ctx, lnrpc.MethodUnlockWallet, lnrpc.EncodeUnlockWallet(password, recoveryWindow)); err != nil {
		return err
	}

	// The unlocker service goes away once the wallet is unlocked; drop
	// the channel rather than keep invoking a dead service.
	c.mu.Lock()
	c.unlocker = nil
	c.mu.Unlock()
	c.disconnect(unlocker)
	time.Sleep(c.settle)

	if kind == config.KindRemote {
		return c.connectLightning(ctx)
	}
	return nil
}

// connectLightning dials the authenticated lightning service for the current
// session and, on success, moves the session to connected.
func (c *Controller) connectLightning(ctx context.Context) error {
	c.mu.Lock()
	nodeCfg := c.nodeCfg
	sessionCtx := c.sessionCtx
	c.mu.Unlock()

	cert := rpc.Source{Path: nodeCfg.CertPath, Bytes: nodeCfg.Cert}
	macaroon := rpc.Source{Path: nodeCfg.MacaroonPath, Bytes: nodeCfg.Macaroon}

	lightning := c.deps.NewConnector(rpc.ServiceLightning, nodeCfg.Host, cert, macaroon)
	if err := lightning.Connect(ctx); err != nil {
		c.notifyOnboardingError(err)
		return err
	}

	raw, err := lightning.Invoke(ctx, lnrpc.MethodGetInfo, lnrpc.EmptyRequest())
	if err != nil {
		c.disconnect(lightning)
		c.notifyOnboardingError(err)
		return err
	}
	info, err := lnrpc.DecodeGetInfo(raw)
	if err != nil {
		c.disconnect(lightning)
		return err
	}

	c.mu.Lock()
	state, terr := next(c.state, TransitionConnect)
	if terr != nil {
		c.mu.Unlock()
		c.disconnect(lightning)
		return terr
	}
	c.lightning = lightning
	c.state = state
	c.mu.Unlock()

	if err := c.persistSession(nodeCfg); err != nil {
		return err
	}
	c.beginLightningSession(sessionCtx, lightning, info)
	return nil
}

// beginLightningSession starts the per-session background work and announces
// the connected node to the renderer.
func (c *Controller) beginLightningSession(ctx context.Context, lightning ServiceConn, info lnrpc.Info) {
	log.Info().Msgf("Connected to lightning node %s (%s)", info.Alias, info.IdentityPubkey)

	c.tracker.Update(chainsync.HeightBlock, uint64(info.BlockHeight))
	if info.SyncedToChain {
		c.finishSync()
	}

	go c.pollGetInfo(ctx, lightning)
	go c.streamTransactions(ctx, lightning)

	c.mu.Lock()
	nodeCfg := c.nodeCfg
	c.mu.Unlock()
	c.notifier.Notify(types.Notification{Type: types.NotifyLightningActive, Config: nodeCfg})
	c.notifier.Notify(types.Notification{Type: types.NotifyOnboardingFinished, Config: nodeCfg})
}

// Invoke forwards one raw RPC on behalf of the renderer.
func (c *Controller) Invoke(ctx context.Context, service string, method string, payload []byte) ([]byte, error) {
	c.mu.Lock()
	var conn ServiceConn
	switch service {
	case "unlocker":
		conn = c.unlocker
	case "lightning":
		conn = c.lightning
	default:
		c.mu.Unlock()
		return nil, fmt.Errorf("unknown service %q", service)
	}
	c.mu.Unlock()

	if conn == nil {
		return nil, rpc.ErrNotReady
	}
	return conn.Invoke(ctx, method, payload)
}

// Terminate ends the session for good. A supervised process is asked to stop
// gracefully when an authenticated channel is available for the stop RPC;
// otherwise, or if the grace deadline passes, it is killed. Terminate always
// resolves.
func (c *Controller) Terminate(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.terminate(ctx)
}

// terminate is Terminate's body, callable by transitions that already hold
// opMu.
func (c *Controller) terminate(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateTerminated {
		c.mu.Unlock()
		return nil
	}
	state, _ := next(c.state, TransitionTerminate)
	cancel := c.cancel
	unlocker, lightning := c.unlocker, c.lightning
	daemon := c.daemon
	c.cancel = nil
	c.unlocker, c.lightning = nil, nil
	c.daemon = nil
	c.state = state
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var stop func(context.Context) error
	if lightning != nil && lightning.State() == rpc.StateReady {
		stop = func(ctx context.Context) error {
			_, err := lightning.Invoke(ctx, lnrpc.MethodStopDaemon, lnrpc.EmptyRequest())
			return err
		}
	}
	if daemon != nil {
		if err := daemon.Shutdown(ctx, stop); err != nil {
			log.Warn().Err(err).Msg("unable to shut down lnd cleanly")
		}
	}

	c.disconnect(unlocker)
	c.disconnect(lightning)
	log.Info().Msg("Node session terminated")
	return nil
}

// Status snapshots the session for the renderer's poll endpoint.
func (c *Controller) Status() types.StatusResponse {
	c.mu.Lock()
	state := c.state
	syncStatus := c.syncStatus
	nodeCfg := c.nodeCfg
	c.mu.Unlock()

	s := c.tracker.State()
	resp := types.StatusResponse{
		State:         string(state),
		SyncStatus:    syncStatus,
		ChainHeight:   s.ChainHeight,
		BlockHeight:   s.BlockHeight,
		CfilterHeight: s.FilterHeight,
	}
	if pct, ok := chainsync.Percentage(s); ok {
		resp.Percentage = &pct
	}
	if nodeCfg != nil {
		summary := nodeCfg.Summary()
		resp.Active = &summary
	}
	return resp
}

// pollGetInfo periodically refreshes node info while the lightning service
// is connected. It keeps height and sync state current for nodes whose logs
// we cannot observe.
func (c *Controller) pollGetInfo(ctx context.Context, lightning ServiceConn) {
	ticker := time.NewTicker(constants.GetInfoPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		raw, err := lightning.Invoke(ctx, lnrpc.MethodGetInfo, lnrpc.EmptyRequest())
		if err != nil {
			log.Debug().Err(err).Msg("GetInfo poll failed")
			continue
		}
		info, err := lnrpc.DecodeGetInfo(raw)
		if err != nil {
			log.Warn().Err(err).Msg("GetInfo poll returned a malformed response")
			continue
		}

		state := c.tracker.Update(chainsync.HeightBlock, uint64(info.BlockHeight))
		n := types.Notification{Type: types.NotifyNodeHeight, Height: state.BlockHeight}
		if pct, ok := chainsync.Percentage(state); ok {
			n.Percentage = &pct
		}
		c.notifier.Notify(n)

		if info.SyncedToChain {
			c.finishSync()
		}
	}
}

// streamTransactions relays on-chain transaction events to the renderer for
// the lifetime of the session.
func (c *Controller) streamTransactions(ctx context.Context, lightning ServiceConn) {
	ch, err := lightning.Subscribe(ctx, lnrpc.MethodSubscribeTransactions, lnrpc.EmptyRequest())
	if err != nil {
		log.Warn().Err(err).Msg("unable to subscribe to transactions")
		return
	}

	for raw := range ch {
		tx, err := lnrpc.DecodeTransaction(raw)
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed transaction event")
			continue
		}
		c.notifier.Notify(types.Notification{
			Type: types.NotifyTransaction,
			Transaction: &types.TransactionView{
				TxHash:           tx.TxHash,
				Amount:           tx.Amount,
				NumConfirmations: tx.NumConfirmations,
				BlockHeight:      tx.BlockHeight,
			},
		})
	}
}

// persistSession records the wallet and active connection so a restarted
// daemon knows what it was attached to. An existing sync flag survives.
func (c *Controller) persistSession(nodeCfg *config.NodeConfig) error {
	err := c.db.UpsertWallet(store.Wallet{
		ID:      nodeCfg.ID,
		Network: nodeCfg.Network,
		Alias:   nodeCfg.Alias,
	})
	if err != nil {
		return fmt.Errorf("unable to persist wallet: %w", err)
	}
	if err := c.db.SetActiveConnection(nodeCfg.Summary()); err != nil {
		return fmt.Errorf("unable to persist active connection: %w", err)
	}
	return nil
}

func (c *Controller) finishSync() {
	c.mu.Lock()
	if c.syncStatus == types.SyncComplete {
		c.mu.Unlock()
		return
	}
	c.syncStatus = types.SyncComplete
	walletID := ""
	if c.nodeCfg != nil {
		walletID = c.nodeCfg.ID
	}
	c.mu.Unlock()

	c.notifier.Notify(types.Notification{Type: types.NotifySyncStatus, Status: types.SyncComplete})
	if walletID != "" {
		if err := c.db.MarkSynced(walletID); err != nil {
			log.Warn().Err(err).Msg("unable to record wallet sync")
		}
	}
}

func (c *Controller) notifyOnboardingError(err error) {
	c.notifier.Notify(types.Notification{
		Type:  types.NotifyOnboardingError,
		Error: classifyOnboardingError(err),
	})
}

func (c *Controller) disconnect(conn ServiceConn) {
	if conn == nil {
		return
	}
	if err := conn.Disconnect(); err != nil {
		log.Warn().Err(err).Msgf("unable to disconnect %s connector", conn.Kind())
	}
}

// sourcesFromRequest turns the onboarding form's credential material into
// loader sources, also recording it on the session config. Pasted bytes win
// over paths.
func sourcesFromRequest(req types.OnboardingRequest, nodeCfg *config.NodeConfig) (cert, macaroon rpc.Source, err error) {
	nodeCfg.CertPath = req.CertPath
	nodeCfg.MacaroonPath = req.MacaroonPath
	nodeCfg.Cert = nil
	nodeCfg.Macaroon = nil
	if req.Cert != "" {
		nodeCfg.Cert = []byte(req.Cert)
	}
	if req.Macaroon != "" {
		mac, derr := hex.DecodeString(req.Macaroon)
		if derr != nil {
			return cert, macaroon, &rpc.MacaroonError{Source: "onboarding form", Err: derr}
		}
		nodeCfg.Macaroon = mac
	}

	cert = rpc.Source{Path: nodeCfg.CertPath, Bytes: nodeCfg.Cert}
	macaroon = rpc.Source{Path: nodeCfg.MacaroonPath, Bytes: nodeCfg.Macaroon}
	return cert, macaroon, nil
}
