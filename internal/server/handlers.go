package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"labta/internal/agent"
	"labta/internal/diagnostics"
	"labta/internal/grader"
	"labta/internal/knowledge"
	"labta/internal/logging"
	"labta/internal/types"
)

// submitResponse is the grading bundle returned by POST /submit.
type submitResponse struct {
	Status         types.Status `json:"status"`
	AgentLogs      []string     `json:"agent_logs"`
	SystemMessages []string     `json:"system_messages"`
	Hint           string       `json:"hint"`
	Citation       string       `json:"citation"`
	Patch          *string      `json:"patch"`
}

type saveRequest struct {
	UserID    string `json:"user_id"`
	ProblemID string `json:"problem_id"`
	Code      string `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "LabTA is Online"})
}

func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.catalog.Sanitized())
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.sessions.Snapshot())
}

// handleDraft returns the manually saved code for one (user, problem).
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	problemID := chi.URLParam(r, "problem_id")

	state, _ := s.sessions.Get(userID, problemID)
	respondJSON(w, http.StatusOK, map[string]any{
		"draft_code": state.DraftCode,
		"attempts":   state.Attempt,
		"last_error": state.LastError,
	})
}

// handleSave persists the editor buffer without running it.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if req.UserID == "" || req.ProblemID == "" {
		respondError(w, http.StatusUnprocessableEntity, "user_id and problem_id are required")
		return
	}

	if err := s.sessions.SaveDraft(req.UserID, req.ProblemID, req.Code); err != nil {
		logging.APIError("draft save failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to persist draft")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "SAVED",
		"message": "Code saved successfully.",
	})
}

// handleSubmit runs the full grading pipeline: investigate, analyze,
// record the outcome, and generate the hint bundle.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub types.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if sub.UserID == "" || sub.ProblemID == "" || sub.Language == "" {
		respondError(w, http.StatusUnprocessableEntity, "user_id, problem_id, and language are required")
		return
	}
	if _, ok := s.catalog.Get(sub.ProblemID); !ok {
		respondError(w, http.StatusNotFound, "Problem ID not found")
		return
	}

	logs, rawStatus, rawEvidence := s.inv.Investigate(r.Context(), sub)

	// Priority analysis: a critical warning in the execution stderr trumps
	// a logic mismatch, which it often masks. Only warning-stream lines are
	// scanned; the pipeline's own phase markers must never trigger a match.
	finalStatus := rawStatus
	cleanEvidence := ""
	if rawEvidence != nil {
		cleanEvidence = rawEvidence.Display()
	}

	match, found := knowledge.Analyze(grader.Warnings(logs), s.base.Catalog())
	if found && !match.Type.IsSuccess() && knowledge.Overridable(rawStatus, s.cfg.Analyzer.OverrideRuntime) {
		finalStatus = match.Type
		cleanEvidence = match.Hint
		logs = append(logs, fmt.Sprintf("\n[Agent Override] Logic Error masked by Critical Warning: %s", match.Type))
		logging.API("override: %s -> %s for %s/%s", rawStatus, finalStatus, sub.UserID, sub.ProblemID)
	}

	// Raw toolchain stderr is normalized into a first-error line.
	switch finalStatus {
	case types.StatusSyntaxError, types.StatusCompilationError,
		types.StatusRuntimeError, types.StatusTypeError:
		if text, ok := rawEvidence.(types.TextEvidence); ok {
			diag := diagnostics.FirstError(string(text), sub.Language)
			cleanEvidence = fmt.Sprintf("Line %s: %s", diag.Line, diag.Message)
		}
	}

	state, progress, err := s.sessions.RecordOutcome(sub.UserID, sub.ProblemID, finalStatus)
	if err != nil {
		logging.APIError("session flush failed: %v", err)
	}
	systemMessages := []string{progress}

	hint := agent.Result{Hint: agent.MsgSuccess}
	if !finalStatus.IsSuccess() {
		hint = s.hints.Hint(r.Context(), agent.Request{
			Code:     sub.Source,
			Language: sub.Language,
			Status:   finalStatus,
			Attempt:  state.Attempt,
			Evidence: cleanEvidence,
		})

		// Logic errors unlock the output diff after three attempts.
		if finalStatus == types.StatusLogicError && state.Attempt >= 3 {
			logs = append(logs, "\n**Diff Analysis Unlocked (Attempt 3+):**")
			if diff, ok := rawEvidence.(types.DiffEvidence); ok && diff.Diff != "" {
				logs = append(logs, diff.Diff)
			} else {
				logs = append(logs, "No output diff available.")
			}
			systemMessages = append(systemMessages, "**Source Patch Unlocked:** A suggested code fix is now available.")
		}
	}

	respondJSON(w, http.StatusOK, submitResponse{
		Status:         finalStatus,
		AgentLogs:      logs,
		SystemMessages: systemMessages,
		Hint:           hint.Hint,
		Citation:       hint.Citation,
		Patch:          hint.Patch,
	})
}
