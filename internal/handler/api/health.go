// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"runtime"
	"time"
)

// Status handles GET /status with build and uptime information.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	env := ""
	if h.cfg != nil {
		env = h.cfg.Env
	}
	h.writeData(w, http.StatusOK, map[string]any{
		"service":     "katchincms",
		"version":     h.verInfo.Version,
		"gitCommit":   h.verInfo.GitCommit,
		"buildTime":   h.verInfo.BuildTime,
		"goVersion":   runtime.Version(),
		"environment": env,
		"uptime":      time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Health handles GET /health. It reports overall health including a
// database ping so load balancers can act on storage failures.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "unhealthy",
			"database": "down",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"database": "up",
	})
}

// HealthLive handles GET /health/live. Process-only liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// HealthReady handles GET /health/ready. Readiness requires storage.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
