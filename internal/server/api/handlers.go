// Package api exposes the privacyd HTTP surface: the profile salt record
// and the append-only audit store.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/auravita/privacykit/internal/audit"
	"github.com/auravita/privacykit/internal/common"
	"github.com/auravita/privacykit/internal/logging"
	"github.com/auravita/privacykit/internal/server/metrics"
	"github.com/auravita/privacykit/internal/server/repositories/auditlog"
	"github.com/auravita/privacykit/internal/server/repositories/profiles"
)

const maxBodyBytes = 64 * 1024

// Handler implements the API endpoints.
type Handler struct {
	profiles profiles.Repository
	auditLog auditlog.Repository
	metrics  *metrics.Metrics
	log      logging.Logger
}

func NewHandler(p profiles.Repository, a auditlog.Repository, m *metrics.Metrics, log logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Handler{profiles: p, auditLog: a, metrics: m, log: log}
}

type saltPayload struct {
	EncryptionSalt string `json:"encryption_salt"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// GetSalt handles GET /api/v1/profile/salt.
func (h *Handler) GetSalt(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	salt, err := h.profiles.GetSalt(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "no encryption salt")
			return
		}
		h.log.Error(r.Context(), "salt read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.metrics.SaltReads.Inc()
	writeJSON(w, http.StatusOK, saltPayload{EncryptionSalt: salt})
}

// PutSalt handles PUT /api/v1/profile/salt. First write wins; replays of
// the same value are idempotent; a differing value is rejected so the
// multi-device anchor can never silently change.
func (h *Handler) PutSalt(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var payload saltPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.EncryptionSalt == "" {
		writeError(w, http.StatusBadRequest, "encryption_salt is required")
		return
	}

	err := h.profiles.SetSaltIfAbsent(r.Context(), userID, payload.EncryptionSalt)
	if err != nil {
		if errors.Is(err, common.ErrSaltConflict) {
			h.metrics.SaltConflicts.Inc()
			writeError(w, http.StatusConflict, "encryption salt already set")
			return
		}
		h.log.Error(r.Context(), "salt write failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.metrics.SaltWrites.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// AppendAuditEvent handles POST /api/v1/audit/events. The body's user_id is
// ignored: the authenticated identity is authoritative.
func (h *Handler) AppendAuditEvent(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var event audit.Event
	if err := decodeBody(r, &event); err != nil {
		h.metrics.AuditEventsRejected.Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !audit.ValidAction(event.Action) || !audit.ValidResourceType(event.ResourceType) {
		h.metrics.AuditEventsRejected.Inc()
		writeError(w, http.StatusBadRequest, "unknown action or resource type")
		return
	}

	event.UserID = userID
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	if err := h.auditLog.Insert(r.Context(), &event); err != nil {
		h.log.Error(r.Context(), "audit insert failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.metrics.AuditEventsAccepted.Inc()
	w.WriteHeader(http.StatusAccepted)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Error: msg})
}
