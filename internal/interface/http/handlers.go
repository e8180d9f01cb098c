package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nestmate-hub/nestmate-hub/internal/application/command"
	"github.com/nestmate-hub/nestmate-hub/internal/application/query"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/preference"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
	"github.com/nestmate-hub/nestmate-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "NestMate Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":        "/health",
			"matches":       "/api/v1/users/{id}/matches",
			"compatibility": "/api/v1/users/{id}/compatibility/{other}",
			"proposals":     "/api/v1/proposals",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PREFERENCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// updatePreferencesRequest is the PUT preferences body. A missing section
// leaves the stored section untouched.
type updatePreferencesRequest struct {
	Housing   *preference.HousingPreferences   `json:"housing,omitempty"`
	Lifestyle *preference.LifestylePreferences `json:"lifestyle,omitempty"`
}

// handleUpdatePreferences handles PUT /api/v1/users/{id}/preferences
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var req updatePreferencesRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.UpdatePreferencesHandler.Handle(r.Context(), command.UpdatePreferencesCommand{
		UserID:        userID,
		Housing:       req.Housing,
		Lifestyle:     req.Lifestyle,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// setWeightsRequest is the PUT weights body.
type setWeightsRequest struct {
	Weights map[string]int `json:"weights"`
}

// handleSetWeights handles PUT /api/v1/users/{id}/weights
func (s *Server) handleSetWeights(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var req setWeightsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SetWeightsHandler.Handle(r.Context(), command.SetWeightsCommand{
		UserID:        userID,
		Weights:       req.Weights,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to set weights")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCHING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRankRoommates handles GET /api/v1/users/{id}/matches
func (s *Server) handleRankRoommates(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.RankRoommatesHandler.Handle(r.Context(), query.RankRoommatesQuery{
		RequesterID: r.PathValue("id"),
		Limit:       queryInt(r, "limit", 0),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to rank roommates")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetCompatibility handles GET /api/v1/users/{id}/compatibility/{other}
func (s *Server) handleGetCompatibility(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetCompatibilityHandler.Handle(r.Context(), query.GetCompatibilityQuery{
		RequesterID: r.PathValue("id"),
		CandidateID: r.PathValue("other"),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to compute compatibility")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROPOSAL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// proposeRoommateRequest is the POST proposals body.
type proposeRoommateRequest struct {
	InitiatorID string `json:"initiator_id"`
	CandidateID string `json:"candidate_id"`
}

// handleProposeRoommate handles POST /api/v1/proposals
func (s *Server) handleProposeRoommate(w http.ResponseWriter, r *http.Request) {
	var req proposeRoommateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.ProposeRoommateHandler.Handle(r.Context(), command.ProposeRoommateCommand{
		InitiatorID:   req.InitiatorID,
		CandidateID:   req.CandidateID,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to create proposal")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// respondProposalRequest is the POST respond body.
type respondProposalRequest struct {
	UserID   string `json:"user_id"`
	Response string `json:"response"`
	Reason   string `json:"reason,omitempty"`
}

// handleRespondProposal handles POST /api/v1/proposals/{id}/respond
func (s *Server) handleRespondProposal(w http.ResponseWriter, r *http.Request) {
	var req respondProposalRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RespondProposalHandler.Handle(r.Context(), command.RespondProposalCommand{
		ProposalID:    r.PathValue("id"),
		UserID:        req.UserID,
		Response:      command.ProposalResponse(req.Response),
		Reason:        req.Reason,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to respond to proposal")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// blockUserRequest is the POST blocks body.
type blockUserRequest struct {
	BlockedID string `json:"blocked_id"`
}

// handleBlockUser handles POST /api/v1/users/{id}/blocks
func (s *Server) handleBlockUser(w http.ResponseWriter, r *http.Request) {
	var req blockUserRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.BlockUserHandler.Handle(r.Context(), command.BlockUserCommand{
		BlockerID:     r.PathValue("id"),
		BlockedID:     req.BlockedID,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err, "failed to block user")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON for this endpoint")
		return false
	}
	return true
}

// respondError maps a domain error to an HTTP status and error code.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	status, code := classifyError(err)

	if status >= http.StatusInternalServerError {
		s.logger.Error(logMsg,
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", requestIDFrom(r.Context())),
		)
	}

	writeError(w, status, code, err.Error())
}

// classifyError translates domain error kinds into HTTP semantics.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrMissingPrerequisite):
		return http.StatusUnprocessableEntity, "prerequisite_not_met"
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, shared.ErrExpired):
		return http.StatusGone, "expired"
	case errors.Is(err, shared.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidID),
		errors.Is(err, shared.ErrInvalidRange),
		errors.Is(err, shared.ErrValueOutOfRange),
		errors.Is(err, shared.ErrInvalidFormat),
		errors.Is(err, shared.ErrEmptyValue):
		return http.StatusBadRequest, "invalid_request"
	default:
		// Anything without a recognized kind is an infrastructure failure.
		return http.StatusInternalServerError, "internal_error"
	}
}
