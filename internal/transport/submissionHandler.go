package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/internal/service"

	"github.com/gin-gonic/gin"
)

// submissionHandler holds the routes shared by applications and registrations.
type submissionHandler struct {
	service service.LifecycleService
}

func (h *submissionHandler) create(c *gin.Context, details interface{}) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	postingID, ok := idParam(c, "id")
	if !ok {
		return
	}

	raw, err := json.Marshal(details)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err))
		return
	}

	submission, err := h.service.Create(c.Request.Context(), actor, &service.CreateSubmissionRequest{
		PostingID: postingID,
		Details:   raw,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, fmt.Sprintf("%s submitted", h.service.Kind()), submission)
}

func (h *submissionHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	submissions, err := h.service.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: submissions, Meta: gin.H{"count": len(submissions)}})
}

// ListOwned accepts ?status=a,b (or repeated) and, for admins, ?owner_id=.
func (h *submissionHandler) ListOwned(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	req := &service.ListOwnedRequest{}
	if raw := c.Query("owner_id"); raw != "" {
		ownerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ownerID <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid owner_id"})
			return
		}
		req.OwnerID = ownerID
	}
	for _, value := range c.QueryArray("status") {
		for _, status := range strings.Split(value, ",") {
			if strings.TrimSpace(status) != "" {
				req.Statuses = append(req.Statuses, status)
			}
		}
	}

	submissions, err := h.service.ListOwned(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: submissions, Meta: gin.H{"count": len(submissions)}})
}

func (h *submissionHandler) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err))
		return
	}

	submission, err := h.service.Transition(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "status updated", submission)
}

func (h *submissionHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, fmt.Sprintf("%s deleted", h.service.Kind()), nil)
}
