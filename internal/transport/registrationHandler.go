package transport

import (
	"fmt"
	"net/http"

	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/internal/service"

	"github.com/gin-gonic/gin"
)

type RegistrationHandler struct {
	submissionHandler
}

func NewRegistrationHandler(registrations service.LifecycleService) *RegistrationHandler {
	return &RegistrationHandler{submissionHandler{service: registrations}}
}

type RegisterRequest struct {
	TeamName           string   `json:"team_name" binding:"max=200"`
	TeamMembers        []string `json:"team_members" binding:"max=10,dive,max=200"`
	ProjectDescription string   `json:"project_description" binding:"max=5000"`
}

func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err))
		return
	}

	h.create(c, entity.RegistrationDetails{
		TeamName:           req.TeamName,
		TeamMembers:        req.TeamMembers,
		ProjectDescription: req.ProjectDescription,
	})
}

func (h *RegistrationHandler) Check(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	hackathonID, ok := idParam(c, "id")
	if !ok {
		return
	}

	registration, found, err := h.service.Check(c.Request.Context(), actor, hackathonID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data: gin.H{
			"registered":   found,
			"registration": registration,
		},
	})
}

func (h *RegistrationHandler) Cancel(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	hackathonID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), actor, hackathonID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "registration cancelled", nil)
}
