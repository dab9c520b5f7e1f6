package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/inkforge-backend/internal/http/response"
	"github.com/yungbote/inkforge-backend/internal/services"
)

// KnowledgeHandler serves the character knowledge engine: analysis, consistency checks
// and profile-aware rewrites.
type KnowledgeHandler struct {
	analysis    services.AnalysisService
	consistency services.ConsistencyService
	transform   services.TransformService
}

func NewKnowledgeHandler(analysis services.AnalysisService, consistency services.ConsistencyService, transform services.TransformService) *KnowledgeHandler {
	return &KnowledgeHandler{analysis: analysis, consistency: consistency, transform: transform}
}

type analyzeRequest struct {
	DocumentID string          `json:"document_id"`
	Content    json.RawMessage `json:"content"`
}

type consistencyRequest struct {
	ProjectID    string          `json:"project_id"`
	DocumentID   string          `json:"document_id"`
	Content      json.RawMessage `json:"content"`
	CharacterIDs []string        `json:"character_ids"`
}

type transformContext struct {
	ProjectID      string   `json:"project_id"`
	CharacterNames []string `json:"character_names"`
}

type transformRequest struct {
	Instruction string            `json:"instruction"`
	Text        string            `json:"text"`
	Scope       string            `json:"scope"`
	Context     *transformContext `json:"context"`
}

// POST /api/analyze
func (h *KnowledgeHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	docID, ok := optionalID(c, req.DocumentID, "invalid_document_id")
	if !ok {
		return
	}
	res, err := h.analysis.Analyze(c.Request.Context(), docID, req.Content)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/consistency-check
func (h *KnowledgeHandler) ConsistencyCheck(c *gin.Context) {
	var req consistencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	projectID, ok := optionalID(c, req.ProjectID, "invalid_project_id")
	if !ok {
		return
	}
	docID, ok := optionalID(c, req.DocumentID, "invalid_document_id")
	if !ok {
		return
	}
	var characterIDs []uuid.UUID
	for _, raw := range req.CharacterIDs {
		id, ok := optionalID(c, raw, "invalid_character_id")
		if !ok {
			return
		}
		if id != uuid.Nil {
			characterIDs = append(characterIDs, id)
		}
	}
	issues, err := h.consistency.Check(c.Request.Context(), services.CheckRequest{
		ProjectID:    projectID,
		DocumentID:   docID,
		Content:      req.Content,
		CharacterIDs: characterIDs,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"issues": issues})
}

// POST /api/transform
func (h *KnowledgeHandler) Transform(c *gin.Context) {
	var req transformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := services.TransformInput{
		Instruction: req.Instruction,
		Text:        req.Text,
		Scope:       req.Scope,
	}
	if req.Context != nil {
		// The context block is advisory, so a malformed project id is ignored.
		if id, err := uuid.Parse(strings.TrimSpace(req.Context.ProjectID)); err == nil {
			in.ProjectID = id
		}
		in.CharacterNames = req.Context.CharacterNames
	}
	res, err := h.transform.Transform(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// optionalID parses raw when present. A blank value yields uuid.Nil so the service can
// report the missing field.
func optionalID(c *gin.Context, raw, code string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, errors.New("malformed id"))
		return uuid.Nil, false
	}
	return id, true
}
