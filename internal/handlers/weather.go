package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Weather serves the dashboard widget. Callers pass the coordinates they
// obtained from browser geolocation; when they are absent or unparseable
// (permission denied, timeout) the configured default location is used.
func (h HandlerSet) Weather(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		lat, lon = h.weather.DefaultLocation()
	}

	days, err := strconv.Atoi(c.Query("days"))
	if err != nil {
		days = 0
	}

	forecast, err := h.weather.Forecast(c.Request.Context(), lat, lon, days)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, forecast)
}
