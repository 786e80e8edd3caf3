package config

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/05nelsonm/zap-desktop/internal/node/constants"
)

type ConnectionKind string

const (
	// KindLocal means zapd spawns and supervises its own lnd process.
	KindLocal ConnectionKind = "local"
	// KindRemote means zapd connects to an lnd instance run elsewhere.
	KindRemote ConnectionKind = "remote"
)

// NodeConfig describes one node connection for one session. It is built when
// the user completes onboarding and must not be mutated once a connection
// attempt has begun; a new onboarding cycle builds a new instance.
type NodeConfig struct {
	ID      string         `json:"id"`
	Kind    ConnectionKind `json:"kind"`
	Network string         `json:"network"`

	// Host is the gRPC target. Filled in from the onboarding form for
	// remote nodes; always the local listener for supervised ones.
	Host string `json:"host"`

	// Certificate and macaroon material may arrive as paths or as raw
	// bytes pasted into the onboarding form. Bytes win when both are set.
	CertPath     string `json:"cert_path,omitempty"`
	Cert         []byte `json:"cert,omitempty"`
	MacaroonPath string `json:"macaroon_path,omitempty"`
	Macaroon     []byte `json:"macaroon,omitempty"`

	// Local-node fields.
	BinaryPath string `json:"binary_path,omitempty"`
	DataDir    string `json:"data_dir,omitempty"`
	Alias      string `json:"alias,omitempty"`
	Autopilot  bool   `json:"autopilot,omitempty"`
}

// DefaultNodeConfig is what onboarding starts from before the user has made
// a choice.
func DefaultNodeConfig(cfg *Config) *NodeConfig {
	return &NodeConfig{
		ID:           uuid.New().String(),
		Kind:         KindLocal,
		Network:      cfg.Network(),
		Host:         constants.DefaultRPCHost,
		CertPath:     cfg.TLSCertPath(),
		MacaroonPath: cfg.AdminMacaroonPath(cfg.Network()),
		BinaryPath:   cfg.LndBin(),
		DataDir:      cfg.LndDir(),
		Alias:        constants.DefaultAlias,
	}
}

// LndArgs derives the argument vector for spawning lnd with a neutrino
// backend on the configured network.
func (n *NodeConfig) LndArgs() []string {
	args := []string{
		fmt.Sprintf("--lnddir=%s", n.DataDir),
		fmt.Sprintf("--rpclisten=%s", n.Host),
		"--bitcoin.active",
		"--bitcoin.node=neutrino",
		fmt.Sprintf("--bitcoin.%s", n.Network),
	}
	if n.Alias != "" {
		args = append(args, fmt.Sprintf("--alias=%s", n.Alias))
	}
	if n.Autopilot {
		args = append(args, "--autopilot.active")
	}
	return args
}

// Summary is the part of a NodeConfig persisted for restart continuity.
type Summary struct {
	Kind     ConnectionKind `json:"kind"`
	Network  string         `json:"network"`
	WalletID string         `json:"wallet_id"`
}

func (n *NodeConfig) Summary() Summary {
	return Summary{
		Kind:     n.Kind,
		Network:  n.Network,
		WalletID: n.ID,
	}
}
