package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/UnknownOlympus/landscout/internal/models"
)

// StartRequest is the body of POST /start.
type StartRequest struct {
	Dataset     string `json:"dataset"` // land (default) or apartments
	APIKey      string `json:"api_key"` // juso key for land, open data key for apartments
	KakaoAPIKey string `json:"kakao_api_key"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	SavePath    string `json:"save_path"`
	Headless    *bool  `json:"headless"`
	BatchSize   int    `json:"batch_size"`
}

// StartResponse acknowledges a started run.
type StartResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// MessageResponse carries a plain message.
type MessageResponse struct {
	Message string `json:"message"`
}

// RunResponse is one archived run.
type RunResponse struct {
	ID         string `json:"run_id"`
	Dataset    string `json:"dataset"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	OutputPath string `json:"output_path"`
	RowCount   int    `json:"row_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type logEvent struct {
	Message string `json:"message"`
}

type heartbeatEvent struct {
	Heartbeat bool `json:"heartbeat"`
}

func toRunResponse(run models.RunRecord) RunResponse {
	return RunResponse{
		ID:         run.ID,
		Dataset:    run.Dataset,
		StartedAt:  run.StartedAt.Format(time.RFC3339),
		FinishedAt: run.FinishedAt.Format(time.RFC3339),
		OutputPath: run.OutputPath,
		RowCount:   run.RowCount,
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

// writeEvent writes one server-sent event with a JSON payload.
func writeEvent(w io.Writer, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)

	return err
}
