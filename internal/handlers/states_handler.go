package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"authflow/internal/geo"
)

type StatesHandler struct{}

func NewStatesHandler() *StatesHandler { return &StatesHandler{} }

// StatesResponse lists the subdivisions of one country.
type StatesResponse struct {
	States []geo.State `json:"states"`
}

// @Summary      List states
// @Description  Returns the states or provinces of a country (US, CA, GB); other countries return an empty list
// @Tags         Geo
// @Produce      json
// @Param        country  query     string  true  "ISO country code"
// @Success      200      {object}  StatesResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /states [get]
func (h *StatesHandler) GetStates(c *gin.Context) {
	country := strings.TrimSpace(c.Query("country"))
	if country == "" {
		respondError(c, http.StatusBadRequest, "Country parameter is required")
		return
	}
	c.JSON(http.StatusOK, StatesResponse{States: geo.StatesFor(country)})
}
