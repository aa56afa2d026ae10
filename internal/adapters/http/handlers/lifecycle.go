package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// LifecycleHandler forwards lifecycle phase changes to the session.
type LifecycleHandler struct {
	session *app.Session
}

// NewLifecycleHandler creates a new lifecycle handler.
func NewLifecycleHandler(session *app.Session) *LifecycleHandler {
	return &LifecycleHandler{
		session: session,
	}
}

// Dispatch handles POST /api/v1/lifecycle
// Entering the background saves the favorites. A failed save is reported
// with persisted=false and still answers 200: the favorites stay in memory.
//
// @Summary Announce a lifecycle phase
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param request body dto.LifecycleRequest true "Phase"
// @Success 200 {object} dto.LifecycleResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/lifecycle [post]
func (h *LifecycleHandler) Dispatch(c *gin.Context) {
	var req dto.LifecycleRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	phase := req.ToPhase()
	resp := dto.LifecycleResponse{Phase: phase.String()}

	err := h.session.HandleLifecycle(c.Request.Context(), phase)

	switch {
	case err == nil:
		resp.Persisted = phase == domain.PhaseBackground
	case domain.IsPersistence(err):
		resp.Error = err.Error()
	default:
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RegisterLifecycleRoutes registers the lifecycle route on the given router group.
func (h *LifecycleHandler) RegisterLifecycleRoutes(rg *gin.RouterGroup) {
	rg.POST("/lifecycle", h.Dispatch)
}
