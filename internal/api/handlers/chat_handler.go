package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/barta/internal/services"
)

type ChatHandler struct {
	chat  services.ChatService
	state *services.ConsoleState
}

func NewChatHandler(chat services.ChatService, state *services.ConsoleState) *ChatHandler {
	return &ChatHandler{chat: chat, state: state}
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *ChatHandler) History(c *gin.Context) {
	out, err := h.chat.History(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, out)
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if !bindJSON(c, "ChatHandler.Send", &req) {
		return
	}
	reply, err := h.chat.Send(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Console reports the current intent and suggested template.
func (h *ChatHandler) Console(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Snapshot())
}
