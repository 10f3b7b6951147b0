package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/efisher/tiktrends/internal/application"
	"github.com/efisher/tiktrends/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// TriggerRunResponse is the JSON body returned by the manual dispatch endpoint.
type TriggerRunResponse struct {
	RunID int64 `json:"run_id"`
}

// RunResponse is the JSON representation of a collection run. DurationMS
// reflects elapsed time so far while the run is still in progress.
type RunResponse struct {
	ID            int64  `json:"id"`
	Trigger       string `json:"trigger"`
	Status        string `json:"status"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
	Creators      int    `json:"creators"`
	CreatorErrors int    `json:"creator_errors"`
	Rows          int    `json:"rows"`
	Error         string `json:"error,omitempty"`
}

// CreatorResponse is the JSON representation of a tracked creator.
type CreatorResponse struct {
	Username        string `json:"username"`
	AddedAt         string `json:"added_at"`
	LastCollectedAt string `json:"last_collected_at,omitempty"`
	DaysTracked     int    `json:"days_tracked"`
}

// TrendPointResponse is one creator-day of aggregated engagement. Rolling
// averages are null until a full window of days exists.
type TrendPointResponse struct {
	Date        string   `json:"date"`
	Views       int64    `json:"views"`
	Likes       int64    `json:"likes"`
	Videos      int      `json:"videos"`
	ViewsAvg28  *float64 `json:"views_28day_avg"`
	LikesAvg28  *float64 `json:"likes_28day_avg"`
	VideosAvg28 *float64 `json:"videos_28day_avg"`
}

// CreatorTrendsResponse is the daily stat series for one creator.
type CreatorTrendsResponse struct {
	Username string               `json:"username"`
	Points   []TrendPointResponse `json:"points"`
}

// SetCredentialRequest is the JSON body accepted by the credential put
// endpoint.
type SetCredentialRequest struct {
	Value string `json:"value"`
}

// CredentialResponse is credential metadata. The stored value is write-only
// and never serialized.
type CredentialResponse struct {
	Service   string `json:"service"`
	Key       string `json:"key"`
	UpdatedAt string `json:"updated_at"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status           string `json:"status"`
	Time             string `json:"time"`
	NextScheduledRun string `json:"next_scheduled_run,omitempty"`
}

// toRunResponse converts a domain Run to its JSON response representation.
func toRunResponse(run model.Run) RunResponse {
	resp := RunResponse{
		ID:            run.ID,
		Trigger:       string(run.Trigger),
		Status:        string(run.Status),
		StartedAt:     run.StartedAt.UTC().Format(time.RFC3339),
		DurationMS:    run.Duration().Milliseconds(),
		Creators:      run.Creators,
		CreatorErrors: run.CreatorErrors,
		Rows:          run.Rows,
		Error:         run.Error,
	}
	if !run.FinishedAt.IsZero() {
		resp.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// toCreatorResponse converts a domain Creator to its JSON response representation.
func toCreatorResponse(creator model.Creator, daysTracked int) CreatorResponse {
	resp := CreatorResponse{
		Username:    creator.Username,
		AddedAt:     creator.AddedAt.UTC().Format(time.RFC3339),
		DaysTracked: daysTracked,
	}
	if !creator.LastCollectedAt.IsZero() {
		resp.LastCollectedAt = creator.LastCollectedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// toTrendPointResponse converts a domain DailyStat to its JSON representation.
func toTrendPointResponse(stat model.DailyStat) TrendPointResponse {
	return TrendPointResponse{
		Date:        stat.Day(),
		Views:       stat.Views,
		Likes:       stat.Likes,
		Videos:      stat.Videos,
		ViewsAvg28:  stat.ViewsAvg28,
		LikesAvg28:  stat.LikesAvg28,
		VideosAvg28: stat.VideosAvg28,
	}
}

// toCredentialResponse converts a stored credential to its metadata-only
// representation.
func toCredentialResponse(cred model.Credential) CredentialResponse {
	return CredentialResponse{
		Service:   cred.Service,
		Key:       cred.Key,
		UpdatedAt: cred.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// newHealthResponse builds the health body, including the next activation
// when a scheduler is attached.
func newHealthResponse(scheduler *application.Scheduler) HealthResponse {
	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	if scheduler != nil {
		resp.NextScheduledRun = scheduler.NextActivation(time.Now()).Format(time.RFC3339)
	}
	return resp
}
