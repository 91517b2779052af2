package controllers

import (
	"context"
	"net/http"

	"github.com/nathanrivera/shopstream-backend/api/responses"
	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Liveness reports process health only.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// Readiness verifies the backing stores answer before traffic is admitted.
func Readiness(database pinger, cache pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
