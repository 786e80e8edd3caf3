package api

import "net/http"

const Version = "v0.7.0"

type VersionHandler struct {
}

func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

func (h *VersionHandler) Pattern() string {
	return "/v1/version"
}

func (h *VersionHandler) Method() string {
	return http.MethodGet
}

func (h *VersionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(Version))
}

// HealthHandler answers the renderer's liveness probe during startup.
type HealthHandler struct {
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Pattern() string {
	return "/v1/health"
}

func (h *HealthHandler) Method() string {
	return http.MethodGet
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
