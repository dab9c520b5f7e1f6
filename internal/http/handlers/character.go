package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/inkforge-backend/internal/http/response"
	"github.com/yungbote/inkforge-backend/internal/services"
)

type CharacterHandler struct {
	characters services.CharacterService
}

func NewCharacterHandler(characters services.CharacterService) *CharacterHandler {
	return &CharacterHandler{characters: characters}
}

// GET /api/projects/:id/characters
func (h *CharacterHandler) ListProjectCharacters(c *gin.Context) {
	projectID, ok := pathID(c, "invalid_project_id")
	if !ok {
		return
	}
	out, err := h.characters.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"characters": out})
}

// GET /api/characters/:id
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	id, ok := pathID(c, "invalid_character_id")
	if !ok {
		return
	}
	d, err := h.characters.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, d)
}

// GET /api/characters/:id/evidence?field=
func (h *CharacterHandler) ListEvidence(c *gin.Context) {
	id, ok := pathID(c, "invalid_character_id")
	if !ok {
		return
	}
	rows, err := h.characters.Evidence(c.Request.Context(), id, c.Query("field"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"evidence": rows})
}

// GET /api/characters/:id/replay
func (h *CharacterHandler) ReplayCharacter(c *gin.Context) {
	id, ok := pathID(c, "invalid_character_id")
	if !ok {
		return
	}
	r, err := h.characters.Replay(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, r)
}

// DELETE /api/characters/:id
func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	id, ok := pathID(c, "invalid_character_id")
	if !ok {
		return
	}
	if err := h.characters.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
