package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"readiness/internal/engine"
	"readiness/internal/journal"
	"readiness/internal/schema"
	"readiness/internal/session"
	"readiness/internal/store"
)

// ApiV1Router manages routes for API version 1: collecting profile facts
// and answers per session token, returning evaluated run reports, and
// serving static files.
type ApiV1Router struct {
	eng      *engine.Engine
	sessions *session.Repository
	// reports persists evaluated reports; optional.
	reports *store.Store
	// journal appends evaluated reports to the JSONL journal; optional.
	journal *journal.ReportJournal
	// static is the directory with static files; empty disables serving.
	static string
}

// NewApiV1Router creates a new API v1 router. The store and journal may
// be nil when persistence or journaling is disabled.
func NewApiV1Router(
	static string,
	eng *engine.Engine,
	sessions *session.Repository,
	reports *store.Store,
	reportJournal *journal.ReportJournal,
) *ApiV1Router {
	return &ApiV1Router{
		eng:      eng,
		sessions: sessions,
		reports:  reports,
		journal:  reportJournal,
		static:   static,
	}
}

// Mux returns a configured *http.ServeMux with registered handlers:
// - PUT /api/v1/assessments/{token}/profile — set profile facts
// - PUT /api/v1/assessments/{token}/answers — upsert one answer, re-evaluate
// - GET /api/v1/assessments/{token}/report — evaluate current state
// - GET /api/v1/assessments/{token}/history — recent report snapshots
// - GET /static/... — static files (if enabled)
func (ar *ApiV1Router) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/v1/assessments/{token}/profile", ar.profileHandler)
	mux.HandleFunc("PUT /api/v1/assessments/{token}/answers", ar.answerHandler)
	mux.HandleFunc("GET /api/v1/assessments/{token}/report", ar.reportHandler)
	mux.HandleFunc("GET /api/v1/assessments/{token}/history", ar.historyHandler)

	if len(ar.static) != 0 {
		fs := http.FileServer(http.Dir(ar.static))
		mux.Handle("GET /static/", http.StripPrefix("/static/", fs))
	}

	return mux
}

type profileRequest struct {
	Facts map[string]bool `json:"facts"`
}

type answerRequest struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
}

// profileHandler records profile facts for the session. Facts must name
// fields declared by the schema's profile questions.
func (ar *ApiV1Router) profileHandler(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if len(token) == 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	var req profileRequest
	if !ar.decode(w, r, &req) {
		return
	}
	if len(req.Facts) == 0 {
		slog.Warn("Empty profile facts", "token", token)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	for field := range req.Facts {
		if !ar.eng.Schema().HasProfileField(field) {
			slog.Warn("Unknown profile field", "token", token, "field", field)
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
	}

	ar.sessions.SetProfile(token, req.Facts)
	ar.evaluateAndWrite(w, token)
}

// answerHandler upserts one answer and returns the re-evaluated report.
// Unknown answer tokens are accepted here; the engine flags and ignores
// them so that one bad input never aborts a run.
func (ar *ApiV1Router) answerHandler(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if len(token) == 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	var req answerRequest
	if !ar.decode(w, r, &req) {
		return
	}
	if req.QuestionID == "" || req.Value == "" {
		slog.Warn("Incomplete answer request", "token", token)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	if _, ok := ar.eng.Schema().Question(req.QuestionID); !ok {
		slog.Warn("Answer for unknown question", "token", token, "question", req.QuestionID)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	ar.sessions.SetAnswer(token, req.QuestionID, schema.Token(req.Value))
	ar.evaluateAndWrite(w, token)
}

// reportHandler evaluates the session's current state. When the session
// is gone (e.g. swept after the TTL) the last persisted report is served
// instead.
func (ar *ApiV1Router) reportHandler(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if len(token) == 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	answers, profile, found := ar.sessions.Snapshot(token)
	if found {
		ar.writeJSON(w, ar.eng.Evaluate(answers, profile))
		return
	}

	if ar.reports != nil {
		report, err := ar.reports.LatestReport(token)
		if err == nil {
			ar.writeJSON(w, report)
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("Load persisted report", "token", token, "error", err)
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

// historyHandler returns the session's retained report snapshots from
// oldest to newest.
func (ar *ApiV1Router) historyHandler(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if len(token) == 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	history, found := ar.sessions.History(token)
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	ar.writeJSON(w, history)
}

// evaluateAndWrite runs one evaluation pass for the session, records the
// report in history, journal, and store, and writes it to the response.
func (ar *ApiV1Router) evaluateAndWrite(w http.ResponseWriter, token string) {
	answers, profile, _ := ar.sessions.Snapshot(token)
	report := ar.eng.Evaluate(answers, profile)

	ar.sessions.AppendReport(token, report)
	if ar.journal != nil {
		ar.journal.Append(token, report)
	}
	if ar.reports != nil {
		if err := ar.reports.SaveReport(token, report); err != nil {
			slog.Error("Persist report", "token", token, "error", err)
		}
	}

	ar.writeJSON(w, report)
}

func (ar *ApiV1Router) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Warn("Empty request body", "error", err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return false
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, dst); err != nil {
		slog.Warn("Unable to unmarshal request body", "error", err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return false
	}
	return true
}

func (ar *ApiV1Router) writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("Unable to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
