package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectInProgress rejects a second Connect on a connector whose
	// previous attempt has not resolved yet.
	ErrConnectInProgress = errors.New("connection attempt already in progress")

	// ErrNotReady rejects Invoke on a connector that is not in the ready
	// state.
	ErrNotReady = errors.New("service connection is not ready")

	// ErrDialTimeout means the channel never reported ready within the
	// bounded wait and was abandoned.
	ErrDialTimeout = errors.New("timed out waiting for gRPC channel to become ready")

	// ErrServiceUnimplemented means the target answered but does not
	// expose the requested service. For lnd this is the signature of a
	// locked wallet: the lightning service only comes up after unlock.
	ErrServiceUnimplemented = errors.New("service not implemented on target: wallet may need to be unlocked first")
)

// HostError reports that the configured host failed the pre-dial
// reachability or format check. Surfaced as a user-correctable field error.
type HostError struct {
	Host string
	Err  error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host %s is unreachable: %v", e.Host, e.Err)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// CertError reports broken or unreadable TLS certificate material.
type CertError struct {
	Source string
	Err    error
}

func (e *CertError) Error() string {
	return fmt.Sprintf("unable to load TLS certificate from %s: %v", e.Source, e.Err)
}

func (e *CertError) Unwrap() error {
	return e.Err
}

// MacaroonError reports broken or unreadable authentication token material.
type MacaroonError struct {
	Source string
	Err    error
}

func (e *MacaroonError) Error() string {
	return fmt.Sprintf("unable to load macaroon from %s: %v", e.Source, e.Err)
}

func (e *MacaroonError) Unwrap() error {
	return e.Err
}
