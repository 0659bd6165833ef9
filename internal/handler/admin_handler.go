package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vathakkar/ai-voice-concierge/internal/repository"
	"github.com/vathakkar/ai-voice-concierge/pkg/logger"
	"go.uber.org/zap"
)

// AdminHandler is the thin administrative passthrough over the call log and
// allow-list stores: recent transcripts plus allow-list management.
type AdminHandler struct {
	callLog   repository.CallLogRepository
	allowlist repository.AllowlistRepository
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(callLog repository.CallLogRepository, allowlist repository.AllowlistRepository) *AdminHandler {
	return &AdminHandler{callLog: callLog, allowlist: allowlist}
}

type allowlistRequest struct {
	PhoneNumber string `json:"phone_number"`
	ContactName string `json:"contact_name"`
	Category    string `json:"category"`
}

// RecentConversations returns the most recent calls with their transcripts.
func (h *AdminHandler) RecentConversations(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	calls, err := h.callLog.RecentCalls(r.Context(), limit)
	if err != nil {
		logger.Base().Error("failed to load recent conversations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load conversations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": calls})
}

// ListAllowlist returns all active allow-list entries.
func (h *AdminHandler) ListAllowlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.allowlist.List(r.Context())
	if err != nil {
		logger.Base().Error("failed to list allow-list entries", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list allow-list entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"exceptions": entries})
}

// AddAllowlist adds a new allow-list entry. Re-adding a removed number is
// rejected; use restore for those.
func (h *AdminHandler) AddAllowlist(w http.ResponseWriter, r *http.Request) {
	var req allowlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "phone_number is required")
		return
	}
	if req.Category == "" {
		req.Category = "family"
	}

	added, err := h.allowlist.Add(r.Context(), req.PhoneNumber, req.ContactName, req.Category)
	if err != nil {
		logger.Base().Error("failed to add allow-list entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add allow-list entry")
		return
	}
	if !added {
		writeError(w, http.StatusConflict, "number already exists; restore it instead")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"phone_number": repository.NormalizePhoneNumber(req.PhoneNumber),
		"added":        true,
	})
}

// RemoveAllowlist soft-deletes an allow-list entry.
func (h *AdminHandler) RemoveAllowlist(w http.ResponseWriter, r *http.Request) {
	var req allowlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	removed, err := h.allowlist.Remove(r.Context(), req.PhoneNumber)
	if err != nil {
		logger.Base().Error("failed to remove allow-list entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to remove allow-list entry")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "no active entry for that number")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"removed": true})
}

// RestoreAllowlist reactivates a previously removed entry.
func (h *AdminHandler) RestoreAllowlist(w http.ResponseWriter, r *http.Request) {
	var req allowlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	restored, err := h.allowlist.Restore(r.Context(), req.PhoneNumber)
	if err != nil {
		logger.Base().Error("failed to restore allow-list entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to restore allow-list entry")
		return
	}
	if !restored {
		writeError(w, http.StatusNotFound, "no inactive entry for that number")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"restored": true})
}

// LookupAllowlist reports whether a number is currently allow-listed.
func (h *AdminHandler) LookupAllowlist(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	if number == "" {
		writeError(w, http.StatusBadRequest, "number query parameter is required")
		return
	}

	entry, err := h.allowlist.Lookup(r.Context(), number)
	if err != nil {
		logger.Base().Error("failed to look up allow-list entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to look up number")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"phone_number": repository.NormalizePhoneNumber(number),
		"allowlisted":  entry != nil,
		"entry":        entry,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
