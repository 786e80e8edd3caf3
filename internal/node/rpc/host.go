package rpc

import (
	"fmt"
	"net"

	"github.com/05nelsonm/zap-desktop/internal/node/constants"
)

// ValidateHost checks that host is a well-formed host:port and that a TCP
// connection can be established within the probe timeout. Running this
// before any gRPC dial lets host problems surface as a distinct, addressable
// error instead of a generic transport failure buried in a dial attempt.
func ValidateHost(host string) error {
	_, port, err := net.SplitHostPort(host)
	if err != nil {
		return &HostError{Host: host, Err: err}
	}
	if port == "" {
		return &HostError{Host: host, Err: fmt.Errorf("missing port")}
	}

	conn, err := net.DialTimeout("tcp", host, constants.HostProbeTimeout)
	if err != nil {
		return &HostError{Host: host, Err: err}
	}
	_ = conn.Close()
	return nil
}
