package lnd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ps "github.com/mitchellh/go-ps"
	"github.com/rs/zerolog/log"

	"github.com/05nelsonm/zap-desktop/internal/node/config"
	"github.com/05nelsonm/zap-desktop/internal/node/constants"
	"github.com/05nelsonm/zap-desktop/internal/node/pubsub"
)

// ErrAlreadyRunning means another lnd instance is using the same binary and
// data directory. Spawning a second writer would corrupt the data dir, so
// this is treated as fatal by the controller.
var ErrAlreadyRunning = errors.New("an lnd instance is already running")

// process is the part of os.Process the daemon needs; split out so shutdown
// paths are testable without spawning anything.
type process interface {
	Kill() error
}

// Daemon owns the local lnd subprocess. Nothing else holds the process
// handle; the controller observes it purely through published events and
// may request termination via Shutdown.
type Daemon struct {
	cfg       *config.NodeConfig
	publisher pubsub.Publisher[Event]

	// listProcesses is swapped in tests.
	listProcesses func() ([]ps.Process, error)

	grace time.Duration

	mu      sync.Mutex
	running bool
	proc    process
	exited  chan struct{}
	parser  *lineParser
}

func NewDaemon(cfg *config.NodeConfig, publisher pubsub.Publisher[Event]) *Daemon {
	return &Daemon{
		cfg:           cfg,
		publisher:     publisher,
		listProcesses: ps.Processes,
		grace:         constants.ShutdownGraceDeadline,
	}
}

func (d *Daemon) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Start spawns lnd and begins translating its log output into events. It
// fails fast, before spawning, if an instance of the same binary is already
// running anywhere on the system.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon has already been started")
	}

	conflict, err := d.instanceRunning()
	if err != nil {
		return fmt.Errorf("unable to scan for running lnd instances: %w", err)
	}
	if conflict {
		return ErrAlreadyRunning
	}

	cmd := exec.Command(d.cfg.BinaryPath, d.cfg.LndArgs()...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to spawn %s: %w", d.cfg.BinaryPath, err)
	}
	log.Info().Msgf("Spawned %s (pid=%d) on %s", d.cfg.BinaryPath, cmd.Process.Pid, d.cfg.Network)

	d.running = true
	d.proc = cmd.Process
	d.exited = make(chan struct{})
	d.parser = &lineParser{}

	var scanners sync.WaitGroup
	scanners.Add(2)
	go d.scan(stdout, &scanners)
	go d.scan(stderr, &scanners)

	go d.wait(cmd, &scanners)

	return nil
}

func (d *Daemon) scan(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		log.Debug().Msgf("lnd: %s", line)

		d.mu.Lock()
		events := d.parser.parse(line)
		d.mu.Unlock()

		for _, e := range events {
			if err := d.publisher.PublishEvent(e); err != nil {
				return
			}
		}
	}
	// The pipe closing on process exit is normal; anything else is not.
	if err := scanner.Err(); err != nil {
		_ = d.publisher.PublishEvent(ProcessErrorEvent{Err: err})
	}
}

func (d *Daemon) wait(cmd *exec.Cmd, scanners *sync.WaitGroup) {
	scanners.Wait()
	err := cmd.Wait()

	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}

	d.mu.Lock()
	d.running = false
	lastError := d.parser.lastError
	exited := d.exited
	d.mu.Unlock()

	close(exited)
	log.Info().Msgf("lnd exited with code %d", code)
	_ = d.publisher.PublishEvent(ProcessExitedEvent{Code: code, LastError: lastError})
}

// Shutdown terminates the process, always resolving. stop issues the
// graceful stop RPC over a live authenticated channel; when it is nil there
// is no graceful path and the process is killed outright. A graceful stop
// that does not produce a process exit within the grace deadline also falls
// back to a kill.
func (d *Daemon) Shutdown(ctx context.Context, stop func(context.Context) error) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	proc := d.proc
	exited := d.exited
	d.mu.Unlock()

	if stop == nil {
		return d.kill(proc)
	}

	if err := stop(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful stop RPC failed, killing lnd")
		return d.kill(proc)
	}

	timer := time.NewTimer(d.grace)
	defer timer.Stop()

	select {
	case <-exited:
		return nil
	case <-timer.C:
		log.Warn().Msgf("lnd did not exit within %s, killing it", d.grace)
		return d.kill(proc)
	case <-ctx.Done():
		return d.kill(proc)
	}
}

func (d *Daemon) kill(proc process) error {
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// instanceRunning reports whether any process with the same executable name
// as the configured binary exists.
func (d *Daemon) instanceRunning() (bool, error) {
	procs, err := d.listProcesses()
	if err != nil {
		return false, err
	}

	base := filepath.Base(d.cfg.BinaryPath)
	for _, p := range procs {
		if p.Pid() == os.Getpid() {
			continue
		}
		if strings.EqualFold(p.Executable(), base) {
			return true, nil
		}
	}
	return false, nil
}
