package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/footprint/internal/locations"
)

// LocationsHandler lists the location reference table.
type LocationsHandler struct {
	table *locations.Table
}

// NewLocationsHandler constructs the HTTP handler adapter.
func NewLocationsHandler(table *locations.Table) *LocationsHandler {
	return &LocationsHandler{table: table}
}

// List returns countries, or every record with ?all=true.
func (h *LocationsHandler) List(c *gin.Context) {
	if c.Query("all") == "true" {
		c.JSON(http.StatusOK, gin.H{"locations": h.table.All()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": h.table.Countries()})
}
