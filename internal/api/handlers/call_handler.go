package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/barta/internal/services"
)

type CallHandler struct {
	calls services.CallLogService
	stats services.StatsService
}

func NewCallHandler(calls services.CallLogService, stats services.StatsService) *CallHandler {
	return &CallHandler{calls: calls, stats: stats}
}

func (h *CallHandler) List(c *gin.Context) {
	out, err := h.calls.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, out)
}

func (h *CallHandler) Recording(c *gin.Context) {
	url, err := h.calls.RecordingURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *CallHandler) Stats(c *gin.Context) {
	st, err := h.stats.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
