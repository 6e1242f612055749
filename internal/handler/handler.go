package handler

import (
	"encoding/json"
	"net/http"

	"github.com/itchan-dev/userhub/internal/config"
	"github.com/itchan-dev/userhub/internal/logger"
	"github.com/itchan-dev/userhub/internal/service"
)

type Handler struct {
	auth service.AuthService
	cfg  *config.Config
}

func New(auth service.AuthService, cfg *config.Config) *Handler {
	return &Handler{auth, cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}
