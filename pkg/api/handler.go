// Package api implements the thin HTTP query/cluster surface named in
// SPEC_FULL.md's supplemented features: GET /query, GET /clusters, GET
// /healthz. Grounded on cmd/tempo-federated-querier/handler's
// gorilla/mux-routed handler struct and RegisterRoutes convention.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/grafana/nexlog/modules/scheduler"
	"github.com/grafana/nexlog/pkg/logrecord"
)

// Scheduler is the subset of *scheduler.Scheduler the HTTP surface drives.
type Scheduler interface {
	PushQuery(q scheduler.Query)
	PushRefreshClusters()
	Results() <-chan scheduler.ResultChanged
	Clusters() <-chan scheduler.ClusterList
}

// Handler serves the query/cluster HTTP surface. §4.6's results/clusters
// output queues are single-subscriber, capacity-1 channels -- the core's
// intended consumer is a single WebSocket stream (§6), not arbitrary
// concurrent HTTP polling -- so Handler serializes /query and /clusters
// requests behind a mutex, turning each into one push-then-await roundtrip.
type Handler struct {
	sched Scheduler
	cfg   Config

	mu sync.Mutex
}

// NewHandler returns a Handler driving sched.
func NewHandler(sched Scheduler, cfg Config) *Handler {
	return &Handler{sched: sched, cfg: cfg}
}

// RegisterRoutes wires the handler's endpoints onto router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	router.HandleFunc("/query", h.Query).Methods(http.MethodGet)
	router.HandleFunc("/clusters", h.Clusters).Methods(http.MethodGet)
}

// Healthz always reports ready; nexlog has no dependency to probe.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type queryResponse struct {
	Page      []recordView `json:"page"`
	ChartPage []recordView `json:"chart_page"`
}

type recordView struct {
	Seq       uint64 `json:"seq"`
	Level     string `json:"level"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
	SourceID  string `json:"source_id"`
}

// Query handles GET /query?text=...&length=...&offset=....
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	q := scheduler.Query{
		Text:   r.URL.Query().Get("text"),
		Length: intParam(r, "length", 100),
		Offset: intParam(r, "offset", 0),
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.QueryTimeout)
	defer cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.sched.PushQuery(q)
	select {
	case rc := <-h.sched.Results():
		writeJSON(w, queryResponse{Page: viewRecords(rc.Page), ChartPage: viewRecords(rc.ChartPage)})
	case <-ctx.Done():
		writeError(w, http.StatusGatewayTimeout, errors.New("timed out waiting for query result"))
	}
}

type clustersResponse struct {
	Clusters []scheduler.Cluster `json:"clusters"`
}

// Clusters handles GET /clusters.
func (h *Handler) Clusters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.QueryTimeout)
	defer cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.sched.PushRefreshClusters()
	select {
	case cl := <-h.sched.Clusters():
		writeJSON(w, clustersResponse{Clusters: cl.Clusters})
	case <-ctx.Done():
		writeError(w, http.StatusGatewayTimeout, errors.New("timed out waiting for cluster refresh"))
	}
}

func viewRecords(records []*logrecord.Record) []recordView {
	out := make([]recordView, len(records))
	for i, r := range records {
		out[i] = recordView{Seq: r.Seq, Level: r.Level.String(), Timestamp: r.Timestamp, Message: r.Message, SourceID: r.SourceID}
	}
	return out
}

func intParam(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
