// Package monitor serves a live websocket dashboard of chain progress: one
// row per inference slot, updated as the driver reports new snapshots.
// Adapted from server/server.go, server/root_view/root_view.go and
// server/cell_views/* — the websocket/ping-pong/broadcast machinery is kept,
// the per-cell value dashboard replaced by a per-slot progress table.
package monitor

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/hopkinsidd/flepimop-inference/monitor/fastview"
	"github.com/hopkinsidd/flepimop-inference/monitor/view"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// MetricsHandler is satisfied by metrics.Registry; kept as an interface here
// so monitor does not need to import the metrics package's Prometheus types
// directly.
type MetricsHandler interface {
	Handler() http.Handler
}

// Server serves the dashboard's index page, its websocket update stream, and
// (if configured) a Prometheus scrape endpoint, all on one address.
type Server struct {
	addr      string
	dashboard *Dashboard
	slots     []int
	metrics   MetricsHandler
	log       zerolog.Logger
}

// NewServer builds the dashboard and its http handlers. slots lists every
// slot id known at startup, so the table has a row for each slot before the
// first snapshot arrives.
func NewServer(
	ctx context.Context,
	addr string,
	slots []int,
	snapshotUpdates <-chan []view.SlotSnapshot,
	metricsHandler MetricsHandler,
	log zerolog.Logger,
) (*Server, error) {
	dashboard, err := NewDashboard(ctx, snapshotUpdates)
	if err != nil {
		return nil, err
	}

	return &Server{
		addr:      addr,
		dashboard: dashboard,
		slots:     slots,
		metrics:   metricsHandler,
		log:       log,
	}, nil
}

// Serve blocks, serving the dashboard until the listener errors.
func (s *Server) Serve() error {
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebsocket).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	if err := http.ListenAndServe(s.addr, r); err != nil {
		return fmt.Errorf("monitor serve: %w", err)
	}
	return nil
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(s.dashboard.Updates(), w, r)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	if err := cli.Sync(); err != nil {
		s.log.Debug().Err(err).Msg("dashboard client disconnected")
	}
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := s.renderIndex(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) renderIndex(w io.Writer) error {
	t := template.New("index.html")
	name, err := s.dashboard.Parse(t)
	if err != nil {
		return err
	}
	if _, err := t.Parse(`{{ template "` + name + `" . }}`); err != nil {
		return err
	}
	return t.Execute(w, view.IndexData{Slots: s.slots})
}
