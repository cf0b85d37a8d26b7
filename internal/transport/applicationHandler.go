package transport

import (
	"fmt"

	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/internal/service"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	submissionHandler
}

func NewApplicationHandler(applications service.LifecycleService) *ApplicationHandler {
	return &ApplicationHandler{submissionHandler{service: applications}}
}

type ApplyRequest struct {
	CoverLetter string `json:"cover_letter" binding:"max=10000"`
	ResumeURL   string `json:"resume_url" binding:"omitempty,url,max=2048"`
}

func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req ApplyRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err))
		return
	}

	h.create(c, entity.ApplicationDetails{
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
	})
}
