package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/system/status
func (s *Server) getSystemStatus(c *gin.Context) {
	status := s.lm.GetCurrentStatus()

	c.JSON(http.StatusOK, gin.H{
		"state":              status.State,
		"scenario":           status.Scenario,
		"device_count":       status.DeviceCount,
		"running_transports": status.RunningTransports,
		"active_patterns":    status.ActivePatterns,
		"connected_clients":  s.wsHub.GetClientCount(),
	})
}
