package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devnode/internal/service"
)

// AccountHandler serves the caller's own account and the user directory.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

func NewAccountHandler(accounts *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// HandleMe: GET /api/user/me
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	user, err := h.accounts.Me(r.Context(), me.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Skills   string `json:"skills"`
}

// HandleUpdate: PUT /api/user/update
//
// The token keeps the old username until it is reissued; notifications sent
// meanwhile are rendered with the old name.
func (h *AccountHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), me.ID, req.Username, req.Bio, req.Skills)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// The client sends camelCase here, unlike the rest of the API.
type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword: PUT /api/user/change-password
func (h *AccountHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), me.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "password updated"})
}

// HandleTerminate: DELETE /api/user/terminate
//
// Deletes the caller and everything that references them. The bearer token
// used for this request still verifies afterwards; the client must drop it.
func (h *AccountHandler) HandleTerminate(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Terminate(r.Context(), me.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "account terminated"})
}

// HandleSearch: GET /api/users/search?q=ali
func (h *AccountHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	users, err := h.accounts.Search(r.Context(), me.ID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleProfile: GET /api/users/{id}
func (h *AccountHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.accounts.Profile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
