package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wennersten/mbsim/internal/api/websocket"
	"github.com/wennersten/mbsim/internal/device"
	"github.com/wennersten/mbsim/internal/pattern"
	"github.com/wennersten/mbsim/internal/registers"
)

func parseDeviceID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "invalid device id")
		return 0, false
	}
	return id, true
}

func parseAddress(c *gin.Context) (uint16, bool) {
	addr, err := strconv.ParseUint(c.Param("addr"), 10, 16)
	if err != nil {
		writeBadRequest(c, "invalid register address")
		return 0, false
	}
	return uint16(addr), true
}

// GET /api/v1/devices
func (s *Server) listDevices(c *gin.Context) {
	devices := s.lm.Registry().ListDevices()

	response := make([]gin.H, 0, len(devices))
	for _, dev := range devices {
		response = append(response, gin.H{
			"id":             dev.ID,
			"name":           dev.DisplayName(),
			"description":    dev.Description,
			"register_count": len(dev.ListRegisters()),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": response,
		"count":   len(response),
	})
}

// GET /api/v1/devices/:id
func (s *Server) getDevice(c *gin.Context) {
	id, ok := parseDeviceID(c)
	if !ok {
		return
	}

	dev, err := s.lm.Registry().GetDevice(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          dev.ID,
		"name":        dev.DisplayName(),
		"description": dev.Description,
		"registers":   dev.ListRegisters(),
	})
}

// POST /api/v1/devices
func (s *Server) createDevice(c *gin.Context) {
	var req struct {
		ID          int               `json:"id"`
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Registers   []registers.Entry `json:"registers"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	dev, err := s.lm.Registry().AddDevice(device.Descriptor{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Registers:   req.Registers,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	s.wsHub.Broadcast(websocket.NewDeviceMessage(websocket.MessageTypeDeviceAdded, dev.ID, dev.DisplayName()))

	c.JSON(http.StatusCreated, gin.H{
		"id":   dev.ID,
		"name": dev.DisplayName(),
	})
}

// DELETE /api/v1/devices/:id
func (s *Server) deleteDevice(c *gin.Context) {
	id, ok := parseDeviceID(c)
	if !ok {
		return
	}

	if err := s.lm.Registry().RemoveDevice(id); err != nil {
		writeError(c, err)
		return
	}

	s.wsHub.Broadcast(websocket.NewDeviceMessage(websocket.MessageTypeDeviceRemoved, id, ""))

	c.JSON(http.StatusOK, gin.H{
		"message": "device removed",
	})
}

// GET /api/v1/devices/:id/registers
func (s *Server) listRegisters(c *gin.Context) {
	id, ok := parseDeviceID(c)
	if !ok {
		return
	}

	dev, err := s.lm.Registry().GetDevice(id)
	if err != nil {
		writeError(c, err)
		return
	}

	entries := dev.ListRegisters()
	c.JSON(http.StatusOK, gin.H{
		"registers": entries,
		"count":     len(entries),
	})
}

// POST /api/v1/devices/:id/registers
func (s *Server) addRegister(c *gin.Context) {
	id, ok := parseDeviceID(c)
	if !ok {
		return
	}

	var req registers.Entry
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	dev, err := s.lm.Registry().GetDevice(id)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := dev.AddRegister(req); err != nil {
		writeError(c, err)
		return
	}

	s.wsHub.Broadcast(websocket.NewRegisterChangedMessage(dev.ID, req.Address, req.Value))

	c.JSON(http.StatusCreated, req)
}

// PUT /api/v1/devices/:id/registers/:addr
func (s *Server) writeRegister(c *gin.Context) {
	id, ok := parseDeviceID(c)
	if !ok {
		return
	}
	addr, ok := parseAddress(c)
	if !ok {
		return
	}

	var req struct {
		Value uint16 `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	dev, err := s.lm.Registry().GetDevice(id)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := dev.WriteRegister(addr, req.Value); err != nil {
		writeError(c, err)
		return
	}

	s.wsHub.Broadcast(websocket.NewRegisterChangedMessage(dev.ID, addr, req.Value))

	c.JSON(http.StatusOK, gin.H{
		"address": addr,
		"value":   req.Value,
	})
}

// DELETE /api/v1/devices/:id/registers/:addr
func (s *Server) removeRegister(c *gin.Context) {
	id, ok := parseDeviceID(c)
	if !ok {
		return
	}
	addr, ok := parseAddress(c)
	if !ok {
		return
	}

	dev, err := s.lm.Registry().GetDevice(id)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := dev.RemoveRegister(addr); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "register removed",
	})
}

// POST /api/v1/devices/:id/patterns
func (s *Server) startPattern(c *gin.Context) {
	id, ok := parseDeviceID(c)
	if !ok {
		return
	}

	var req struct {
		Address uint16       `json:"address"`
		Pattern pattern.Spec `json:"pattern" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	if err := s.lm.StartPattern(id, req.Address, req.Pattern); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"device_id": id,
		"address":   req.Address,
		"kind":      req.Pattern.Kind,
	})
}

// DELETE /api/v1/devices/:id/patterns/:addr
func (s *Server) stopPattern(c *gin.Context) {
	id, ok := parseDeviceID(c)
	if !ok {
		return
	}
	addr, ok := parseAddress(c)
	if !ok {
		return
	}

	if err := s.lm.StopPattern(id, addr); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "pattern stopped",
	})
}
