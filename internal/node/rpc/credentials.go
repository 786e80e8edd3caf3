package rpc

import (
	"context"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/credentials"
)

// Source names certificate or macaroon material either by path or as raw
// bytes pasted into the onboarding form. Bytes take precedence.
type Source struct {
	Path  string
	Bytes []byte
}

func (s Source) load() ([]byte, string, error) {
	if len(s.Bytes) > 0 {
		return s.Bytes, "inline bytes", nil
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, s.Path, err
	}
	return b, s.Path, nil
}

// Credentials is the transport security and per-RPC authentication pair a
// connector dials with. It is owned by the connector that built it and is
// discarded on disconnect.
type Credentials struct {
	Transport credentials.TransportCredentials
	PerRPC    credentials.PerRPCCredentials
}

// BuildCredentials loads the certificate and macaroon concurrently. The
// first failure cancels the other load, but the error always identifies
// which artifact was broken so the renderer can point at the right field.
// A zero macaroon Source skips per-RPC auth entirely; the wallet unlocker
// is dialed before any macaroon exists.
func BuildCredentials(ctx context.Context, cert, macaroon Source) (*Credentials, error) {
	var creds Credentials

	eg, _ := errgroup.WithContext(ctx)

	eg.Go(func() error {
		pem, source, err := cert.load()
		if err != nil {
			return &CertError{Source: source, Err: err}
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return &CertError{Source: source, Err: fmt.Errorf("no certificate found in PEM data")}
		}
		creds.Transport = credentials.NewClientTLSFromCert(pool, "")
		return nil
	})

	skipMacaroon := macaroon.Path == "" && len(macaroon.Bytes) == 0

	eg.Go(func() error {
		if skipMacaroon {
			return nil
		}
		raw, source, err := macaroon.load()
		if err != nil {
			return &MacaroonError{Source: source, Err: err}
		}
		if len(raw) == 0 {
			return &MacaroonError{Source: source, Err: fmt.Errorf("macaroon is empty")}
		}
		creds.PerRPC = macaroonCredential{hex: hex.EncodeToString(raw)}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &creds, nil
}

// macaroonCredential attaches the hex-encoded macaroon to every call, the
// way lnd expects it in request metadata.
type macaroonCredential struct {
	hex string
}

func (m macaroonCredential) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{"macaroon": m.hex}, nil
}

func (m macaroonCredential) RequireTransportSecurity() bool {
	return true
}
