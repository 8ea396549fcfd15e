package devtools

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/sharedstate/internal/errors"
)

// MaxBodySize limits PUT request bodies.
const MaxBodySize = 1 << 20

// Handler returns the inspector HTTP API:
//
//	GET /api/states          list every registered state
//	GET /api/states/{name}   one state
//	PUT /api/states/{name}   replace the value (JSON body)
//	GET /api/ws              WebSocket change stream
//	GET /metrics             Prometheus metrics, when WithGatherer is set
func (i *Inspector) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/states", i.handleList)
	r.Get("/api/states/{name}", i.handleGet)
	r.Put("/api/states/{name}", i.handlePut)
	r.Get("/api/ws", i.handleWS)
	if i.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(i.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Serve runs the inspector on addr until ctx is cancelled.
func (i *Inspector) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           i.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		i.logger.Info("inspector listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.New(errors.CodeInspectorServer).WithDetailf("listen on %s", addr).Wrap(err)
	case <-ctx.Done():
	}

	i.hub.close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New(errors.CodeInspectorServer).WithDetail("shutdown").Wrap(err)
	}
	return nil
}

func (i *Inspector) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, i.States())
}

func (i *Inspector) handleGet(w http.ResponseWriter, r *http.Request) {
	info, err := i.State(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (i *Inspector) handlePut(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	e, err := i.lookup(name)
	if err != nil {
		writeError(w, err)
		return
	}
	if i.readOnly || e.readOnly() {
		writeError(w, errors.New(errors.CodeStateReadOnly).WithDetailf("state %q cannot be written", name))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		writeError(w, errors.New(errors.CodeInvalidPayload).WithDetail("cannot read body").Wrap(err))
		return
	}
	apply, err := e.decode(body)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := i.apply(r.Context(), apply); err != nil {
		writeError(w, err)
		return
	}
	i.logger.Info("state written by inspector", "state", name)

	info, err := e.info()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// apply runs fn on the dispatcher, if any, and waits for it.
func (i *Inspector) apply(ctx context.Context, fn func()) error {
	if i.dispatcher == nil {
		fn()
		return nil
	}

	done := make(chan struct{})
	i.dispatcher.Dispatch(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New(errors.CodeInspectorServer).WithDetail("write was not applied in time").Wrap(ctx.Err())
	}
}

func (i *Inspector) handleWS(w http.ResponseWriter, r *http.Request) {
	i.hub.serve(w, r, func(id string) Event {
		return Event{Type: EventSnapshot, Client: id, States: i.States()}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var se *errors.Error
	if !stderrors.As(err, &se) {
		se = errors.FromError(err, errors.CodeInspectorServer)
	}
	writeJSON(w, statusFor(se.Code), map[string]*errors.Error{"error": se})
}

func statusFor(code string) int {
	switch code {
	case errors.CodeUnknownState:
		return http.StatusNotFound
	case errors.CodeInvalidPayload:
		return http.StatusBadRequest
	case errors.CodeStateReadOnly:
		return http.StatusForbidden
	case errors.CodeDuplicateState:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}
