package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devnode/internal/model"
	"github.com/sakif/devnode/internal/service"
)

// SocialHandler serves the friendship endpoints.
type SocialHandler struct {
	social *service.SocialService
	logger *slog.Logger
}

func NewSocialHandler(social *service.SocialService, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{social: social, logger: logger}
}

type friendRequestBody struct {
	ReceiverID int64 `json:"receiver_id"`
}

type friendRequestResponse struct {
	Message    string            `json:"message"`
	Friendship *model.Friendship `json:"friendship"`
}

// HandleSendRequest: POST /api/friends/request {"receiver_id": 7}
func (h *SocialHandler) HandleSendRequest(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var body friendRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	f, err := h.social.SendRequest(r.Context(), me, body.ReceiverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friendRequestResponse{Message: "friend request sent", Friendship: f})
}

type acceptBody struct {
	SenderID int64 `json:"sender_id"`
}

type acceptResponse struct {
	Message  string `json:"message"`
	Accepted bool   `json:"accepted"`
}

// HandleAccept: PUT /api/friends/accept {"sender_id": 3}
//
// Answers 200 even when there was nothing to accept; "accepted" tells the
// two cases apart.
func (h *SocialHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var body acceptBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	accepted, err := h.social.Accept(r.Context(), me, body.SenderID)
	if err != nil {
		writeError(w, err)
		return
	}

	msg := "friend request accepted"
	if !accepted {
		msg = "no pending request to accept"
	}
	writeJSON(w, http.StatusOK, acceptResponse{Message: msg, Accepted: accepted})
}

// HandleList: GET /api/friends
//
// Returns the flat list of rows, each with status, sender_id, receiver_id
// and the derived kind. With ?view=grouped the same rows come back split
// into {"friends", "incoming", "outgoing"}.
func (h *SocialHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	rows, err := h.social.Network(r.Context(), me.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("view") == "grouped" {
		writeJSON(w, http.StatusOK, model.GroupConnections(me.ID, rows))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleRemove: DELETE /api/friends/{otherId}
//
// Cancels, declines or unfriends: whatever row links the two users goes.
func (h *SocialHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	otherID, err := pathID(r, "otherId")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.social.Remove(r.Context(), me.ID, otherID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "connection removed"})
}
