package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/services"
)

// FestivalsResponse lists upcoming festivals, nearest first.
type FestivalsResponse struct {
	Festivals []domain.Festival `json:"festivals"`
}

// ListFestivals godoc
// @ID          listFestivals
// @Summary     Upcoming festivals
// @Description Festivals within days_ahead days (default 10), each with stock, discount and marketing suggestions.
// @Tags        Festivals
// @Produce     json
// @Param       days_ahead  query  int  false  "Look-ahead window in days"  minimum(0) maximum(366)
// @Success     200  {object}  handlers.FestivalsResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /festivals [get]
func (h *Handlers) ListFestivals(c *gin.Context) {
	days := -1
	if raw := strings.TrimSpace(c.Query("days_ahead")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "days_ahead must be a non-negative integer")
			return
		}
		days = n
	}
	list, err := h.Festivals.Upcoming(c.Request.Context(), days)
	switch {
	case errors.Is(err, services.ErrInvalidWindow):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Could not load festivals.")
	default:
		ok(c, http.StatusOK, FestivalsResponse{Festivals: list})
	}
}
