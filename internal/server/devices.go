package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type setDeviceStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) SetDeviceStatus(c *gin.Context) {
	var req setDeviceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	device, err := s.deviceSvc.SetStatus(c.Request.Context(), strings.TrimSpace(c.Param("deviceId")), req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": device})
}

func (s *Server) DeleteDevice(c *gin.Context) {
	if err := s.deviceSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("deviceId"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) GetDeviceHistory(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	history, err := s.deviceSvc.History(c.Request.Context(), strings.TrimSpace(c.Param("deviceId")), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}
