package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devnode/internal/service"
)

type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

// HandleConversation: GET /api/messages/{otherId}
//
// Clients poll this every few seconds; the full history comes back each
// time, oldest first.
func (h *MessageHandler) HandleConversation(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	otherID, err := pathID(r, "otherId")
	if err != nil {
		writeError(w, err)
		return
	}
	msgs, err := h.messages.Conversation(r.Context(), me.ID, otherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type sendMessageBody struct {
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

// HandleSend: POST /api/messages {"receiver_id": 7, "content": "hi"}
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var body sendMessageBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	msg, err := h.messages.Send(r.Context(), me, body.ReceiverID, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
