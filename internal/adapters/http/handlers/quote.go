package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/app"
)

// QuoteHandler handles quote-related HTTP endpoints.
type QuoteHandler struct {
	session *app.Session
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(session *app.Session) *QuoteHandler {
	return &QuoteHandler{
		session: session,
	}
}

// GetCurrent handles GET /api/v1/quote
// Returns the displayed quote and whether it was already favorited.
//
// @Summary Get the displayed quote
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.CurrentQuoteResponse
// @Router /api/v1/quote [get]
func (h *QuoteHandler) GetCurrent(c *gin.Context) {
	state := h.session.Snapshot()

	c.JSON(http.StatusOK, dto.CurrentQuoteResponse{
		Quote:     dto.NewQuoteResponse(state.Current),
		Favorited: state.CurrentFavorited,
	})
}

// Next handles POST /api/v1/quote/next
// Fetches another quote and waits for it. On failure the previous quote
// stays displayed and the response is 503.
//
// @Summary Fetch another quote
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.CurrentQuoteResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/quote/next [post]
func (h *QuoteHandler) Next(c *gin.Context) {
	quote, err := h.session.Refresh(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CurrentQuoteResponse{
		Quote:     dto.NewQuoteResponse(quote),
		Favorited: false,
	})
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quote := rg.Group("/quote")
	quote.GET("", h.GetCurrent)
	quote.POST("/next", h.Next)
}
