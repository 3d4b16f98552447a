package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/yieldlens/yieldlens/internal/state"
	"github.com/yieldlens/yieldlens/internal/types"
)

type portfolioResponse struct {
	Wallet    string                 `json:"wallet"`
	Positions []types.Position       `json:"positions"`
	Metrics   types.PortfolioMetrics `json:"metrics"`
	Timestamp time.Time              `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (ws *WebServer) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !common.IsHexAddress(address) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid wallet address"})
		return
	}

	configs, err := state.ListEnabledConfigs()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to list enabled protocol configs")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load protocol configs"})
		return
	}

	positions, metrics, err := ws.aggregator.Portfolio(r.Context(), address, configs)
	if err != nil {
		webLogger.Error().Err(err).Str("wallet", address).Msg("Portfolio aggregation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "portfolio aggregation failed"})
		return
	}

	writeJSON(w, http.StatusOK, portfolioResponse{
		Wallet:    address,
		Positions: positions,
		Metrics:   metrics,
		Timestamp: time.Now().UTC(),
	})
}

func (ws *WebServer) handleListProtocols(w http.ResponseWriter, r *http.Request) {
	configs, err := state.ListConfigs()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to list protocol configs")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load protocol configs"})
		return
	}
	if configs == nil {
		configs = []types.ProtocolConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

func (ws *WebServer) handleCreateProtocol(w http.ResponseWriter, r *http.Request) {
	var cfg types.ProtocolConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	saved, err := state.SaveConfig(cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, state.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (ws *WebServer) handleUpdateProtocol(w http.ResponseWriter, r *http.Request) {
	var cfg types.ProtocolConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	cfg.ID = mux.Vars(r)["id"]

	if err := state.UpdateConfig(cfg); err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (ws *WebServer) handleToggleProtocol(w http.ResponseWriter, r *http.Request) {
	enabled, err := state.ToggleConfig(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

func (ws *WebServer) handleDeleteProtocol(w http.ResponseWriter, r *http.Request) {
	if err := state.DeleteConfig(mux.Vars(r)["id"]); err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, state.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
