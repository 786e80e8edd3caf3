package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/05nelsonm/zap-desktop/api/types"
)

func testServer(t *testing.T, h *harness) *httptest.Server {
	t.Helper()

	router := mux.NewRouter()
	for _, route := range []interface {
		http.Handler
		Pattern() string
		Method() string
	}{
		NewStartOnboardingRoute(h.controller),
		NewOnboardRoute(h.controller),
		NewUnlockRoute(h.controller),
		NewInvokeRoute(h.controller),
		NewStatusRoute(h.controller),
	} {
		router.Handle(route.Pattern(), route).Methods(route.Method())
	}

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestOnboardingRoutes(t *testing.T) {
	h := newHarness(t)
	server := testServer(t, h)
	client := server.Client()

	resp, err := client.Post(server.URL+"/v1/onboarding/start", "application/json", nil)
	require.Nil(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, StateOnboarding, h.controller.State())

	// Unknown connection kind is a client error.
	body, _ := json.Marshal(types.OnboardingRequest{Kind: "carrier-pigeon"})
	resp, err = client.Post(server.URL+"/v1/onboarding", "application/json", bytes.NewBuffer(body))
	require.Nil(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, _ = json.Marshal(types.OnboardingRequest{Kind: "local"})
	resp, err = client.Post(server.URL+"/v1/onboarding", "application/json", bytes.NewBuffer(body))
	require.Nil(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, StateStartingNode, h.controller.State())

	resp, err = client.Post(server.URL+"/v1/onboarding", "application/json", bytes.NewBuffer([]byte("invalid")))
	require.Nil(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnlockRouteRequiresUnlockerConnection(t *testing.T) {
	h := newHarness(t)
	server := testServer(t, h)

	body, _ := json.Marshal(types.UnlockRequest{Password: "password"})
	resp, err := server.Client().Post(server.URL+"/v1/wallet/unlock", "application/json", bytes.NewBuffer(body))
	require.Nil(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusRoute(t *testing.T) {
	h := newHarness(t)
	server := testServer(t, h)

	require.Nil(t, h.controller.StartOnboarding(context.Background()))

	resp, err := server.Client().Get(server.URL + "/v1/status")
	require.Nil(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	require.Nil(t, err)

	var status types.StatusResponse
	require.Nil(t, json.Unmarshal(respBody, &status))
	assert.Equal(t, string(StateOnboarding), status.State)
	assert.Equal(t, types.SyncPending, status.SyncStatus)
	// Progress is undefined before a chain height is known.
	assert.Nil(t, status.Percentage)
	require.NotNil(t, status.Active)
	assert.NotEmpty(t, status.Active.WalletID)
}
