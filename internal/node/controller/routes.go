package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/05nelsonm/zap-desktop/api/types"
	"github.com/05nelsonm/zap-desktop/internal/node/config"
)

// StartOnboardingRoute calls controller.StartOnboarding()
type StartOnboardingRoute struct {
	controller *Controller
}

func NewStartOnboardingRoute(controller *Controller) *StartOnboardingRoute {
	return &StartOnboardingRoute{
		controller: controller,
	}
}

func (h *StartOnboardingRoute) Pattern() string {
	return "/v1/onboarding/start"
}

func (h *StartOnboardingRoute) Method() string {
	return http.MethodPost
}

func (h *StartOnboardingRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.StartOnboarding(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// OnboardRoute submits the user's onboarding choice, dispatching on the
// requested connection kind.
type OnboardRoute struct {
	controller *Controller
}

func NewOnboardRoute(controller *Controller) *OnboardRoute {
	return &OnboardRoute{
		controller: controller,
	}
}

func (h *OnboardRoute) Pattern() string {
	return "/v1/onboarding"
}

func (h *OnboardRoute) Method() string {
	return http.MethodPost
}

func (h *OnboardRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	switch config.ConnectionKind(req.Kind) {
	case config.KindLocal:
		err = h.controller.StartLocalNode(r.Context(), req)
	case config.KindRemote:
		err = h.controller.ConnectRemote(r.Context(), req)
	default:
		http.Error(w, fmt.Sprintf("unknown connection kind %q", req.Kind), http.StatusBadRequest)
		return
	}
	if err != nil {
		// The renderer already received a field-addressable error
		// notification; the status code is informational.
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// UnlockRoute calls controller.UnlockWallet()
type UnlockRoute struct {
	controller *Controller
}

func NewUnlockRoute(controller *Controller) *UnlockRoute {
	return &UnlockRoute{
		controller: controller,
	}
}

func (h *UnlockRoute) Pattern() string {
	return "/v1/wallet/unlock"
}

func (h *UnlockRoute) Method() string {
	return http.MethodPost
}

func (h *UnlockRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.controller.UnlockWallet(r.Context(), []byte(req.Password), req.RecoveryWindow); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// InvokeRoute forwards one raw RPC to the connected node.
type InvokeRoute struct {
	controller *Controller
}

func NewInvokeRoute(controller *Controller) *InvokeRoute {
	return &InvokeRoute{
		controller: controller,
	}
}

func (h *InvokeRoute) Pattern() string {
	return "/v1/rpc/invoke"
}

func (h *InvokeRoute) Method() string {
	return http.MethodPost
}

func (h *InvokeRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := h.controller.Invoke(r.Context(), req.Service, req.Method, req.Payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	respBody, err := json.Marshal(types.InvokeResponse{Payload: payload})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(respBody)
}

// StatusRoute reports the session snapshot.
type StatusRoute struct {
	controller *Controller
}

func NewStatusRoute(controller *Controller) *StatusRoute {
	return &StatusRoute{
		controller: controller,
	}
}

func (h *StatusRoute) Pattern() string {
	return "/v1/status"
}

func (h *StatusRoute) Method() string {
	return http.MethodGet
}

func (h *StatusRoute) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	respBody, err := json.Marshal(h.controller.Status())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(respBody)
}
