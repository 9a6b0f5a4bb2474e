package handler

import (
	"log/slog"

	"github.com/leca/dt-serving-urls/internal/config"
	"github.com/leca/dt-serving-urls/internal/database"
	"github.com/leca/dt-serving-urls/internal/media"
	"github.com/leca/dt-serving-urls/internal/storage"
)

// Handler holds dependencies for HTTP handlers. Store is optional; without
// it uploads are disabled and deletes leave stored objects in place.
type Handler struct {
	DB       database.Database
	Store    storage.Storage
	Pipeline *media.Pipeline
	Config   *config.Config
	Log      *slog.Logger
}

func (h *Handler) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}
