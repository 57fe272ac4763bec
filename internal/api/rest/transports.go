package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wennersten/mbsim/internal/api/websocket"
	"github.com/wennersten/mbsim/internal/transport"
)

// GET /api/v1/transports
func (s *Server) listTransports(c *gin.Context) {
	sup := s.lm.Supervisor()

	names := sup.ListTransports()
	response := make([]gin.H, 0, len(names))
	for _, name := range names {
		ep, err := sup.GetTransport(name)
		if err != nil {
			// Removed between List and Get; skip.
			continue
		}
		cfg := ep.Config()
		response = append(response, gin.H{
			"name":    name,
			"kind":    string(cfg.Kind),
			"bind":    cfg.BindTarget(),
			"state":   ep.State().String(),
			"running": ep.IsRunning(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"transports": response,
		"count":      len(response),
	})
}

// POST /api/v1/transports
func (s *Server) addTransport(c *gin.Context) {
	var req struct {
		Name       string        `json:"name" binding:"required"`
		Kind       string        `json:"kind" binding:"required"`
		Host       string        `json:"host"`
		Port       int           `json:"port"`
		SerialPort string        `json:"serial_port"`
		BaudRate   int           `json:"baud_rate"`
		Parity     string        `json:"parity"`
		StopBits   int           `json:"stop_bits"`
		DataBits   int           `json:"data_bits"`
		Timeout    time.Duration `json:"timeout"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	cfg := transport.Config{
		Kind:       transport.Kind(req.Kind),
		Host:       req.Host,
		Port:       req.Port,
		SerialPort: req.SerialPort,
		BaudRate:   req.BaudRate,
		Parity:     req.Parity,
		StopBits:   req.StopBits,
		DataBits:   req.DataBits,
		Timeout:    req.Timeout,
	}
	if !cfg.Kind.Valid() {
		writeBadRequest(c, "kind must be \"tcp\" or \"rtu\"")
		return
	}

	ep, err := s.lm.Supervisor().AddTransport(req.Name, cfg, s.lm.Registry().DeviceMap())
	if err != nil {
		writeError(c, err)
		return
	}

	s.wsHub.Broadcast(websocket.NewTransportStateMessage(req.Name, string(cfg.Kind), ep.State().String()))

	c.JSON(http.StatusCreated, gin.H{
		"name": req.Name,
		"kind": string(cfg.Kind),
		"bind": ep.Config().BindTarget(),
	})
}

// DELETE /api/v1/transports/:name
func (s *Server) removeTransport(c *gin.Context) {
	name := c.Param("name")

	if err := s.lm.Supervisor().RemoveTransport(name); err != nil {
		writeError(c, err)
		return
	}

	s.wsHub.Broadcast(websocket.NewTransportStateMessage(name, "", "REMOVED"))

	c.JSON(http.StatusOK, gin.H{
		"message": "transport removed",
	})
}

// POST /api/v1/transports/start
func (s *Server) startTransports(c *gin.Context) {
	if err := s.lm.Supervisor().StartAll(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "transports started",
	})
}

// POST /api/v1/transports/stop
func (s *Server) stopTransports(c *gin.Context) {
	if err := s.lm.Supervisor().StopAll(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "transports stopped",
	})
}
