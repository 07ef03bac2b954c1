// Package bridge manages the external parser child process and the
// request/reply cycle with it.
//
// The protocol is line oriented in one direction and JSON in the
// other: the bridge writes one file path plus a newline to the child's
// stdin, then reads exactly one JSON value from its stdout. Anything
// the child writes after that value stays buffered for the next
// request. The child's stderr passes straight through.
package bridge

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"xtags/internal/errors"
	"xtags/internal/logging"
)

// State represents the lifecycle state of the parser process. The
// state only ever moves forward: uninitialized, running, terminated.
type State string

const (
	// StateUninitialized indicates the child has not been spawned yet
	StateUninitialized State = "uninitialized"
	// StateRunning indicates the child is live and serving requests
	StateRunning State = "running"
	// StateTerminated indicates the child has been shut down
	StateTerminated State = "terminated"
)

// Config holds the spawn settings for the external parser.
type Config struct {
	// Command is the parser command line, split on whitespace into
	// the executable and its arguments.
	Command string

	// Dir is the child's working directory. Empty means inherit.
	Dir string

	// Stderr receives the child's stderr. Defaults to this process's
	// stderr.
	Stderr io.Writer
}

// Bridge is a handle on one external parser process. All methods are
// safe for concurrent use, though requests are answered strictly one
// at a time.
type Bridge struct {
	cfg    Config
	logger *logging.Logger

	mu     sync.Mutex
	state  State
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	w      *bufio.Writer
	dec    *json.Decoder
}

// New creates a bridge. The child is not spawned until the first
// request or an explicit Start.
func New(cfg Config, logger *logging.Logger) *Bridge {
	return &Bridge{cfg: cfg, logger: logger, state: StateUninitialized}
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Running reports whether the child is live.
func (b *Bridge) Running() bool {
	return b.State() == StateRunning
}

// Start spawns the parser process. Starting a running bridge is a
// no-op; starting a terminated one fails.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startLocked()
}

func (b *Bridge) startLocked() error {
	switch b.state {
	case StateRunning:
		return nil
	case StateTerminated:
		return errors.NewXtagsError(errors.ParserTerminated,
			"parser has been shut down", nil)
	}

	argv := strings.Fields(b.cfg.Command)
	if len(argv) == 0 {
		return errors.NewXtagsError(errors.ParserUnconfigured,
			"no parser command", nil)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = b.cfg.Dir
	if b.cfg.Stderr != nil {
		cmd.Stderr = b.cfg.Stderr
	} else {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.NewXtagsError(errors.ParserSpawnFailed,
			"failed to create stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.NewXtagsError(errors.ParserSpawnFailed,
			"failed to create stdout pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return errors.NewXtagsError(errors.ParserSpawnFailed,
			"cannot execute "+argv[0], err)
	}

	b.cmd = cmd
	b.stdin = stdin
	b.stdout = stdout
	b.w = bufio.NewWriter(stdin)
	b.dec = json.NewDecoder(stdout)
	b.state = StateRunning

	b.logger.Info("Started external parser", map[string]interface{}{
		"command": b.cfg.Command,
		"pid":     cmd.Process.Pid,
	})
	return nil
}

// Request sends one file path to the parser and returns its raw JSON
// reply. The child is spawned on first use.
func (b *Bridge) Request(path string) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateUninitialized {
		if err := b.startLocked(); err != nil {
			return nil, err
		}
	}
	if b.state != StateRunning {
		return nil, errors.NewXtagsError(errors.ParserTerminated,
			"request after parser shutdown", nil)
	}

	if _, err := b.w.WriteString(path); err != nil {
		return nil, errors.NewXtagsError(errors.ParserIO,
			"failed to write request", err)
	}
	if err := b.w.WriteByte('\n'); err != nil {
		return nil, errors.NewXtagsError(errors.ParserIO,
			"failed to write request", err)
	}
	if err := b.w.Flush(); err != nil {
		return nil, errors.NewXtagsError(errors.ParserIO,
			"failed to flush request", err)
	}

	var raw json.RawMessage
	if err := b.dec.Decode(&raw); err != nil {
		return nil, errors.NewXtagsError(errors.ResponseInvalid,
			"cannot parse reply from parser", err)
	}
	return raw, nil
}

// Shutdown closes both pipes and reaps the child. It is idempotent
// and never fails once the child has been reaped.
func (b *Bridge) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateRunning {
		b.state = StateTerminated
		return nil
	}
	b.state = StateTerminated

	if err := b.stdin.Close(); err != nil {
		b.logger.Debug("closing parser stdin", map[string]interface{}{"error": err.Error()})
	}
	if err := b.stdout.Close(); err != nil {
		b.logger.Debug("closing parser stdout", map[string]interface{}{"error": err.Error()})
	}

	// Closing stdin is the termination signal; the child exits on
	// EOF and Wait reaps it, retrying interrupted waits internally.
	if err := b.cmd.Wait(); err != nil {
		b.logger.Debug("parser exit", map[string]interface{}{"error": err.Error()})
	}

	b.logger.Info("External parser stopped", nil)
	return nil
}
