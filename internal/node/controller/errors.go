package controller

import (
	"errors"

	"github.com/05nelsonm/zap-desktop/api/types"
	"github.com/05nelsonm/zap-desktop/internal/node/rpc"
)

// classifyOnboardingError sorts a connection failure into the onboarding
// form field it belongs to, so the renderer can highlight the exact input
// that needs correcting. Anything unrecognized lands in Message.
func classifyOnboardingError(err error) *types.OnboardingError {
	var hostErr *rpc.HostError
	if errors.As(err, &hostErr) {
		return &types.OnboardingError{Host: hostErr.Error()}
	}

	var certErr *rpc.CertError
	if errors.As(err, &certErr) {
		return &types.OnboardingError{Cert: certErr.Error()}
	}

	var macErr *rpc.MacaroonError
	if errors.As(err, &macErr) {
		return &types.OnboardingError{Macaroon: macErr.Error()}
	}

	if errors.Is(err, rpc.ErrDialTimeout) {
		return &types.OnboardingError{Host: err.Error()}
	}

	return &types.OnboardingError{Message: err.Error()}
}
