package worker

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/matheus3301/floodline/internal/logging"
	"go.uber.org/zap"
)

// maxPushBody caps the size of a push payload accepted by the gateway.
const maxPushBody = 64 << 10

// NewGateway returns the HTTP face of the worker. Routes under /_offline
// administer the worker; every other request is proxied through it to the
// origin, or to its own URL when sent in absolute form.
func NewGateway(l *Lifecycle, logger *zap.Logger) http.Handler {
	logger = logging.OrNop(logger)
	m := l.Manager()

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			if pr.In.URL.IsAbs() {
				u := *pr.In.URL
				pr.Out.URL = &u
				pr.Out.Host = ""
				return
			}
			pr.SetURL(m.origin)
		},
		Transport: l,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("request failed", zap.String("url", r.URL.String()), zap.Error(err))
			status := http.StatusBadGateway
			if errors.Is(err, ErrOffline) {
				status = http.StatusGatewayTimeout
			}
			http.Error(w, err.Error(), status)
		},
	}

	r := chi.NewRouter()
	r.Route("/_offline", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "ok",
				"phase":   string(l.Phase()),
				"version": m.Version(),
			})
		})
		r.Get("/caches", func(w http.ResponseWriter, req *http.Request) {
			caches, err := m.Caches()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, caches)
		})
		r.Post("/refresh", controlHandler(l, ControlRefreshManifest))
		r.Post("/skip-waiting", controlHandler(l, ControlSkipWaiting))
		r.Post("/push", func(w http.ResponseWriter, req *http.Request) {
			body, err := io.ReadAll(io.LimitReader(req.Body, maxPushBody))
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusAccepted, m.HandlePush(body))
		})
		r.Post("/click", func(w http.ResponseWriter, req *http.Request) {
			var click struct {
				Action string           `json:"action"`
				Data   NotificationData `json:"data"`
			}
			if err := json.NewDecoder(req.Body).Decode(&click); err != nil && !errors.Is(err, io.EOF) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{
				"target": m.HandleNotificationClick(click.Action, click.Data),
			})
		})
	})
	r.NotFound(proxy.ServeHTTP)
	return r
}

func controlHandler(l *Lifecycle, kind ControlKind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := l.Send(req.Context(), kind); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrNotInstalled) || errors.Is(err, ErrInstallFailed) {
				status = http.StatusConflict
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
