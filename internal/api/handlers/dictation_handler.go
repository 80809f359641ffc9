package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/barta/internal/audio"
	"github.com/yoockh/barta/internal/services"
	"github.com/yoockh/barta/internal/utils"
)

type DictationHandler struct {
	svc services.DictationService
}

func NewDictationHandler(svc services.DictationService) *DictationHandler {
	return &DictationHandler{svc: svc}
}

type DictationRequest struct {
	Audio    string `json:"audio" binding:"required"` // base64 PCM16 LE, 16 kHz mono
	Language string `json:"language"`
}

type DictationResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (h *DictationHandler) Transcribe(c *gin.Context) {
	const op = "DictationHandler.Transcribe"

	var req DictationRequest
	if !bindJSON(c, op, &req) {
		return
	}
	pcm, err := audio.Decode(req.Audio)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio must be base64", err))
		return
	}

	out, err := h.svc.Transcribe(c.Request.Context(), pcm, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, DictationResponse{Text: out.Text, Confidence: out.Confidence})
}
