package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/UnknownOlympus/landscout/internal/app"
	"github.com/UnknownOlympus/landscout/internal/daterange"
	"github.com/UnknownOlympus/landscout/internal/models"
	"github.com/UnknownOlympus/landscout/internal/service"
	"github.com/UnknownOlympus/landscout/internal/status"
)

//go:embed static/index.html
var indexHTML []byte

// Datasets accepted by POST /start.
const (
	DatasetLand       = "land"
	DatasetApartments = "apartments"
)

const (
	defaultHeartbeat = time.Second
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// Runner executes the collection jobs. app.Runner implements it.
type Runner interface {
	RunLand(ctx context.Context, opts app.LandOptions, progress service.Progress) (service.Result, error)
	RunApartments(ctx context.Context, opts app.ApartmentOptions, progress service.Progress) (service.Result, error)
}

// RunLister reads archived runs. repository.Repository implements it.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
}

// Pinger checks a dependency for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Defaults fill in what a start request leaves out.
type Defaults struct {
	Headless    bool
	MaxSpanDays int
	BatchSize   int
	JusoKey     string
	KakaoKey    string
	OpenAPIKey  string
}

// Deps are the collaborators of the handlers. Runs and DB may be nil.
type Deps struct {
	Runner   Runner
	Manager  *status.Manager
	Logs     *status.Broadcaster
	Runs     RunLister
	DB       Pinger
	Defaults Defaults
	Log      *slog.Logger
}

// Handler serves the web interface routes.
type Handler struct {
	deps      Deps
	heartbeat time.Duration
}

// NewHandler creates the handlers.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, heartbeat: defaultHeartbeat}
}

// WithHeartbeat changes how long the log stream may stay silent.
func (h *Handler) WithHeartbeat(d time.Duration) *Handler {
	h.heartbeat = d
	return h
}

// Index serves the embedded form.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(indexHTML); err != nil {
		h.deps.Log.Error("failed to write reply", "error", err)
	}
}

// Start validates the request and launches a run in the background.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if h.deps.Manager.Status().IsRunning {
		writeJSONError(w, http.StatusBadRequest, status.ErrAlreadyRunning.Error())
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.deps.Log.DebugContext(r.Context(), "Failed to decode start request", "error", err)
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Dataset == "" {
		req.Dataset = DatasetLand
	}

	var (
		dataset string
		job     status.Job
		err     error
	)
	switch req.Dataset {
	case DatasetLand:
		dataset, job, err = h.landJob(req)
	case DatasetApartments:
		dataset, job, err = h.apartmentJob(req)
	default:
		err = fmt.Errorf("unknown dataset %q", req.Dataset)
	}
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID, err := h.deps.Manager.Start(dataset, job)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.deps.Log.InfoContext(r.Context(), "Collection started", "dataset", dataset, "run_id", runID)
	respondWithJSON(w, http.StatusOK, StartResponse{Message: "Collection started", RunID: runID})
}

var errMissingKeys = errors.New("api_key and kakao_api_key are required")

func (h *Handler) landJob(req StartRequest) (string, status.Job, error) {
	opts := app.LandOptions{
		JusoKey:   firstNonEmpty(req.APIKey, h.deps.Defaults.JusoKey),
		KakaoKey:  firstNonEmpty(req.KakaoAPIKey, h.deps.Defaults.KakaoKey),
		OutputDir: req.SavePath,
		Headless:  h.deps.Defaults.Headless,
	}
	if opts.JusoKey == "" || opts.KakaoKey == "" {
		return "", nil, errMissingKeys
	}
	if req.Headless != nil {
		opts.Headless = *req.Headless
	}

	rng, err := daterange.Parse(req.StartDate, req.EndDate, h.deps.Defaults.MaxSpanDays)
	if err != nil {
		return "", nil, err
	}
	opts.Range = rng

	return models.LandPermitDataset, func(ctx context.Context, tracker *status.Tracker) (status.Outcome, error) {
		h.deps.Log.InfoContext(ctx, "Search period", "range", rng.String())
		opts.RunID = tracker.Snapshot().RunID
		res, errRun := h.deps.Runner.RunLand(ctx, opts, tracker)
		return status.Outcome(res), errRun
	}, nil
}

func (h *Handler) apartmentJob(req StartRequest) (string, status.Job, error) {
	opts := app.ApartmentOptions{
		APIKey:    firstNonEmpty(req.APIKey, h.deps.Defaults.OpenAPIKey),
		KakaoKey:  firstNonEmpty(req.KakaoAPIKey, h.deps.Defaults.KakaoKey),
		OutputDir: req.SavePath,
		BatchSize: req.BatchSize,
	}
	if opts.APIKey == "" || opts.KakaoKey == "" {
		return "", nil, errMissingKeys
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = h.deps.Defaults.BatchSize
	}

	return models.ApartmentDataset, func(ctx context.Context, tracker *status.Tracker) (status.Outcome, error) {
		opts.RunID = tracker.Snapshot().RunID
		res, errRun := h.deps.Runner.RunApartments(ctx, opts, tracker)
		return status.Outcome(res), errRun
	}, nil
}

// Stop asks the current run to stop at its next checkpoint.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	if h.deps.Manager.Stop() {
		h.deps.Log.InfoContext(r.Context(), "Stop requested")
	}
	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Stop requested"})
}

// Status returns the current run state.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, h.deps.Manager.Status())
}

// Logs streams log lines as server-sent events, with a heartbeat whenever
// no line arrived for a second.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lines, unsubscribe := h.deps.Logs.Subscribe()
	defer unsubscribe()

	timer := time.NewTimer(h.heartbeat)
	defer timer.Stop()

	for {
		var event any
		select {
		case <-r.Context().Done():
			return
		case line := <-lines:
			event = logEvent{Message: line}
		case <-timer.C:
			event = heartbeatEvent{Heartbeat: true}
		}
		timer.Reset(h.heartbeat)

		if err := writeEvent(w, event); err != nil {
			h.deps.Log.DebugContext(r.Context(), "Log stream closed", "error", err)
			return
		}
		flusher.Flush()
	}
}

// Runs lists archived runs, newest first.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.deps.Runs == nil {
		writeJSONError(w, http.StatusNotFound, "Run archive is not configured")
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.deps.Runs.RecentRuns(r.Context(), limit)
	if err != nil {
		h.deps.Log.ErrorContext(r.Context(), "Failed to list runs", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	out := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	respondWithJSON(w, http.StatusOK, out)
}

// Health reports OK, or 503 when the archive database does not answer.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	code, body := http.StatusOK, "OK"
	if h.deps.DB != nil {
		if err := h.deps.DB.Ping(r.Context()); err != nil {
			code, body = http.StatusServiceUnavailable, "DB ping failed"
		}
	}

	w.WriteHeader(code)
	if _, err := w.Write([]byte(body)); err != nil {
		h.deps.Log.ErrorContext(r.Context(), "failed to write reply", "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
