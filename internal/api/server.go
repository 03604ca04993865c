package api

import (
	"PcapSpectra/internal/model"
	"PcapSpectra/internal/report"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownTimeout = 5 * time.Second

// Handler serves a finished report over HTTP.
type Handler struct {
	report *model.Report
	log    log.FieldLogger
}

// NewRouter wires the report browser routes.
func NewRouter(rep *model.Report, logger log.FieldLogger) *mux.Router {
	h := &Handler{report: rep, log: logger}

	r := mux.NewRouter()
	r.HandleFunc("/", h.indexHandler).Methods("GET")
	r.HandleFunc("/api/v1/report", h.reportHandler).Methods("GET")
	r.HandleFunc("/api/v1/dimensions", h.dimensionsHandler).Methods("GET")
	r.HandleFunc("/api/v1/dimensions/{dim}/summary", h.summaryHandler).Methods("GET")
	r.HandleFunc("/api/v1/dimensions/{dim}/series", h.seriesHandler).Methods("GET")
	return r
}

// Serve runs the report browser on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, rep *model.Report, logger log.FieldLogger) error {
	server := &http.Server{
		Addr:    addr,
		Handler: NewRouter(rep, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("Report server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	logger.Info("Report server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (h *Handler) indexHandler(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.RenderHTML(&buf, h.report); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (h *Handler) reportHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.report)
}

type dimensionInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Keys  int    `json:"keys"`
}

func (h *Handler) dimensionsHandler(w http.ResponseWriter, r *http.Request) {
	dims := make([]dimensionInfo, 0, len(h.report.Dimensions))
	for _, d := range h.report.Dimensions {
		dims = append(dims, dimensionInfo{Name: d.Name, Title: d.Title, Keys: len(d.Series)})
	}
	h.writeJSON(w, dims)
}

type summaryResponse struct {
	Dimension string               `json:"dimension"`
	Mode      model.Mode           `json:"mode"`
	NoData    bool                 `json:"no_data"`
	Entries   []model.SummaryEntry `json:"entries"`
}

func (h *Handler) summaryHandler(w http.ResponseWriter, r *http.Request) {
	dim, ok := h.dimension(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, summaryResponse{
		Dimension: dim.Name,
		Mode:      h.report.Mode,
		NoData:    len(dim.Summary) == 0,
		Entries:   dim.Summary,
	})
}

type seriesResponse struct {
	Dimension    string              `json:"dimension"`
	Key          string              `json:"key"`
	Observations []model.Observation `json:"observations"`
}

func (h *Handler) seriesHandler(w http.ResponseWriter, r *http.Request) {
	dim, ok := h.dimension(w, r)
	if !ok {
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "missing key parameter", http.StatusBadRequest)
		return
	}
	series, ok := dim.Series[key]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown key %q in %s", key, dim.Name), http.StatusNotFound)
		return
	}
	h.writeJSON(w, seriesResponse{Dimension: dim.Name, Key: key, Observations: series})
}

func (h *Handler) dimension(w http.ResponseWriter, r *http.Request) (*model.DimensionReport, bool) {
	name := mux.Vars(r)["dim"]
	dim := h.report.Dimension(name)
	if dim == nil {
		http.Error(w, fmt.Sprintf("unknown dimension %q", name), http.StatusNotFound)
		return nil, false
	}
	return dim, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.WithError(err).Debug("Failed to write response")
	}
}
