package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/scenarios
func (s *Server) listScenarios(c *gin.Context) {
	names, err := s.lm.Scenarios().List()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scenarios": names,
		"count":     len(names),
	})
}

// POST /api/v1/scenarios/:name/load
func (s *Server) loadScenario(c *gin.Context) {
	name := c.Param("name")

	if err := s.lm.LoadScenario(name); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "scenario loaded",
		"scenario": name,
	})
}

// POST /api/v1/scenarios/:name/save
func (s *Server) saveScenario(c *gin.Context) {
	name := c.Param("name")

	if err := s.lm.SaveScenario(name); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "scenario saved",
		"scenario": name,
	})
}
