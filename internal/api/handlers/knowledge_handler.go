package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/services"
)

type KnowledgeHandler struct {
	svc services.KnowledgeService
}

func NewKnowledgeHandler(svc services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

type AddTemplateRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type AddTriggerRequest struct {
	Keyword  string               `json:"keyword" binding:"required"`
	Action   models.TriggerAction `json:"action"` // predefined|ai_guided
	Response string               `json:"response" binding:"required"`
}

func (h *KnowledgeHandler) ListTemplates(c *gin.Context) {
	out, err := h.svc.ListTemplates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, out)
}

func (h *KnowledgeHandler) AddTemplate(c *gin.Context) {
	var req AddTemplateRequest
	if !bindJSON(c, "KnowledgeHandler.AddTemplate", &req) {
		return
	}
	t, err := h.svc.AddTemplate(c.Request.Context(), req.Name, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *KnowledgeHandler) DeleteTemplate(c *gin.Context) {
	if err := h.svc.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *KnowledgeHandler) ListTriggers(c *gin.Context) {
	out, err := h.svc.ListTriggers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, out)
}

func (h *KnowledgeHandler) AddTrigger(c *gin.Context) {
	var req AddTriggerRequest
	if !bindJSON(c, "KnowledgeHandler.AddTrigger", &req) {
		return
	}
	t, err := h.svc.AddTrigger(c.Request.Context(), req.Keyword, req.Action, req.Response)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *KnowledgeHandler) DeleteTrigger(c *gin.Context) {
	if err := h.svc.DeleteTrigger(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *KnowledgeHandler) ListTasks(c *gin.Context) {
	out, err := h.svc.ListTasks(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, out)
}

func (h *KnowledgeHandler) ToggleTask(c *gin.Context) {
	t, err := h.svc.ToggleTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *KnowledgeHandler) DeleteTask(c *gin.Context) {
	if err := h.svc.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
