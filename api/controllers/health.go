package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/atelierjamel/traiteur-backend/api/responses"
	"github.com/atelierjamel/traiteur-backend/pkg/config"
	pkgerrors "github.com/atelierjamel/traiteur-backend/pkg/errors"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
)

// Pinger is the health surface a backing service exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Traiteur-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every backing service and reports per-dependency status.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Traiteur-Env", cfg.App.Env)

		statuses := map[string]string{}
		var failures error
		for name, dep := range deps {
			if dep == nil {
				statuses[name] = "not configured"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				statuses[name] = "unreachable"
				failures = multierr.Append(failures, err)
				continue
			}
			statuses[name] = "ok"
		}

		if failures != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, failures, "dependency check failed").WithDetails(statuses))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": statuses})
	}
}
