package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/app"
)

// FavoritesHandler handles the favorites collection endpoints.
type FavoritesHandler struct {
	session *app.Session
}

// NewFavoritesHandler creates a new favorites handler.
func NewFavoritesHandler(session *app.Session) *FavoritesHandler {
	return &FavoritesHandler{
		session: session,
	}
}

// List handles GET /api/v1/favorites
// Returns the whole collection in insertion order, duplicates included.
//
// @Summary List favorites
// @Tags favorites
// @Produce json
// @Success 200 {object} dto.FavoritesResponse
// @Router /api/v1/favorites [get]
func (h *FavoritesHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewFavoritesResponse(h.session.Snapshot().Favorites.All()))
}

// AddCurrent handles POST /api/v1/favorites
// Adds the displayed quote to the favorites once per display. A repeated
// request for the same display answers 200 with added=false.
//
// @Summary Favorite the displayed quote
// @Tags favorites
// @Produce json
// @Success 200 {object} dto.FavoriteAddedResponse
// @Router /api/v1/favorites [post]
func (h *FavoritesHandler) AddCurrent(c *gin.Context) {
	added := h.session.FavoriteCurrent(c.Request.Context())

	c.JSON(http.StatusOK, dto.FavoriteAddedResponse{
		Added: added,
		Count: h.session.Snapshot().Favorites.Len(),
	})
}

// RegisterFavoritesRoutes registers favorites routes on the given router group.
func (h *FavoritesHandler) RegisterFavoritesRoutes(rg *gin.RouterGroup) {
	rg.GET("/favorites", h.List)
	rg.POST("/favorites", h.AddCurrent)
}
