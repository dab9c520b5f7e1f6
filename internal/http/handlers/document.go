package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/inkforge-backend/internal/http/response"
	"github.com/yungbote/inkforge-backend/internal/services"
)

type DocumentHandler struct {
	documents services.DocumentService
}

func NewDocumentHandler(documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type createDocumentRequest struct {
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

type saveDocumentRequest struct {
	Content json.RawMessage `json:"content"`
}

// POST /api/projects/:id/documents
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	projectID, ok := pathID(c, "invalid_project_id")
	if !ok {
		return
	}
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	d, err := h.documents.Create(c.Request.Context(), projectID, req.Title, req.Content)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"document": d})
}

// GET /api/projects/:id/documents
func (h *DocumentHandler) ListProjectDocuments(c *gin.Context) {
	projectID, ok := pathID(c, "invalid_project_id")
	if !ok {
		return
	}
	out, err := h.documents.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": out})
}

// GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := pathID(c, "invalid_document_id")
	if !ok {
		return
	}
	d, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": d})
}

// PUT /api/documents/:id
func (h *DocumentHandler) SaveDocument(c *gin.Context) {
	id, ok := pathID(c, "invalid_document_id")
	if !ok {
		return
	}
	var req saveDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.documents.Save(c.Request.Context(), id, req.Content); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
