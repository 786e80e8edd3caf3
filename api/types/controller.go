// Package types defines the wire format between the zapd daemon and the
// renderer process. Notifications flow out, fire and forget; requests flow
// in over the HTTP API.
package types

import "github.com/05nelsonm/zap-desktop/internal/node/config"

type NotificationType string

const (
	NotifyOnboardingStarted  NotificationType = "onboarding-started"
	NotifyOnboardingError    NotificationType = "onboarding-error"
	NotifyOnboardingFinished NotificationType = "onboarding-finished"
	NotifyUnlockerActive     NotificationType = "unlocker-active"
	NotifyLightningActive    NotificationType = "lightning-active"
	NotifySyncStatus         NotificationType = "sync-status"
	NotifyCurrentHeight      NotificationType = "current-height"
	NotifyNodeHeight         NotificationType = "node-height"
	NotifyCfilterHeight      NotificationType = "cfilter-height"
	NotifyNodeError          NotificationType = "node-error"
	NotifyTransaction        NotificationType = "transaction"
)

type SyncStatus string

const (
	SyncPending    SyncStatus = "pending"
	SyncWaiting    SyncStatus = "waiting"
	SyncInProgress SyncStatus = "in-progress"
	SyncComplete   SyncStatus = "complete"
)

// Notification is one outbound message to the renderer. Only the fields
// relevant to Type are set.
type Notification struct {
	Type NotificationType `json:"type"`

	Config *config.NodeConfig `json:"config,omitempty"`
	Status SyncStatus         `json:"status,omitempty"`
	Height uint64             `json:"height,omitempty"`

	// Percentage is present only when sync progress is defined; an
	// absent value means unknown, not zero.
	Percentage *int `json:"percentage,omitempty"`

	Error       *OnboardingError `json:"error,omitempty"`
	Message     string           `json:"message,omitempty"`
	Transaction *TransactionView `json:"transaction,omitempty"`
}

// OnboardingError is field addressable so the renderer can highlight the
// exact onboarding input that needs correcting.
type OnboardingError struct {
	Host     string `json:"host,omitempty"`
	Cert     string `json:"cert,omitempty"`
	Macaroon string `json:"macaroon,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (e OnboardingError) IsZero() bool {
	return e == OnboardingError{}
}

// TransactionView is the slice of a streamed transaction the renderer shows.
type TransactionView struct {
	TxHash           string `json:"tx_hash"`
	Amount           int64  `json:"amount"`
	NumConfirmations int32  `json:"num_confirmations"`
	BlockHeight      int32  `json:"block_height"`
}

// OnboardingRequest is the user's onboarding choice.
type OnboardingRequest struct {
	Kind    string `json:"kind"` // "local" or "remote"
	Network string `json:"network,omitempty"`

	// Remote connections.
	Host         string `json:"host,omitempty"`
	Cert         string `json:"cert,omitempty"` // PEM text
	CertPath     string `json:"cert_path,omitempty"`
	Macaroon     string `json:"macaroon,omitempty"` // hex
	MacaroonPath string `json:"macaroon_path,omitempty"`

	// Local nodes.
	Alias     string `json:"alias,omitempty"`
	Autopilot bool   `json:"autopilot,omitempty"`
}

type UnlockRequest struct {
	Password       string `json:"password"`
	RecoveryWindow int32  `json:"recovery_window,omitempty"`
}

// InvokeRequest forwards one raw RPC to a connected service. Payload is the
// protobuf wire form, base64 in JSON.
type InvokeRequest struct {
	Service string `json:"service"` // "unlocker" or "lightning"
	Method  string `json:"method"`
	Payload []byte `json:"payload,omitempty"`
}

type InvokeResponse struct {
	Payload []byte `json:"payload,omitempty"`
}

// StatusResponse answers the renderer's status poll.
type StatusResponse struct {
	State         string          `json:"state"`
	SyncStatus    SyncStatus      `json:"sync_status"`
	ChainHeight   uint64          `json:"chain_height"`
	BlockHeight   uint64          `json:"block_height"`
	CfilterHeight uint64          `json:"cfilter_height"`
	Percentage    *int            `json:"percentage,omitempty"`
	Active        *config.Summary `json:"active,omitempty"`
}
