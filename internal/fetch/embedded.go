package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// DefaultTorStartupTimeout is how long EmbeddedTor waits for bootstrap.
const DefaultTorStartupTimeout = 3 * time.Minute

// EmbeddedTor is a private Tor daemon used as a fallback route to the sheet
// service when the local network blocks or filters docs.qq.com and no SOCKS
// proxy is at hand (extract --tor). Sheet pages are fetched through its
// SOCKS port like any other proxy.
//
// Bootstrap builds circuits from scratch, so Start usually takes one to three
// minutes. The daemon is started once per extract run and shared by all
// documents in the batch.
type EmbeddedTor struct {
	process        *tornago.TorProcess
	startupTimeout time.Duration
}

// EmbeddedTorOption configures an EmbeddedTor.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout bounds how long Start waits for bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		e.startupTimeout = timeout
	}
}

// NewEmbeddedTor returns a stopped daemon; call Start to launch it.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{startupTimeout: DefaultTorStartupTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon on OS-assigned ports and blocks until it has
// bootstrapped or the startup timeout expires. If ctx is cancelled while
// bootstrapping, the daemon is stopped again and ctx.Err() is returned.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("invalid Tor launch settings: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon (startup timeout %s): %w", e.startupTimeout, err)
	}
	if err := ctx.Err(); err != nil {
		_ = process.Stop() //nolint:errcheck // already returning ctx.Err()
		return err
	}

	e.process = process
	return nil
}

// Stop shuts the daemon down. Calling it on a stopped daemon does nothing.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	return err
}

// SocksAddr returns the SOCKS5 address of the running daemon, or "".
func (e *EmbeddedTor) SocksAddr() string {
	if e.process == nil {
		return ""
	}
	return e.process.SocksAddr()
}

// IsRunning reports whether Start succeeded and Stop has not been called.
func (e *EmbeddedTor) IsRunning() bool {
	return e.process != nil
}

// ProxyClient returns a client that fetches sheet pages through the daemon.
// timeout applies to each page request.
func (e *EmbeddedTor) ProxyClient(timeout time.Duration) (*ProxyClient, error) {
	if !e.IsRunning() {
		return nil, ErrTorNotRunning
	}
	return NewProxyClient(e.SocksAddr(), timeout)
}
