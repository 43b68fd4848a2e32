package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/smallbiznis/roomwatt/internal/usage/domain"
)

type generateReadingsRequest struct {
	Count int `json:"count"`
}

func (s *Server) SeedTestDevices(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	devices, err := s.deviceSvc.SeedTestDevices(c.Request.Context(), strings.TrimSpace(c.Param("roomId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": devices})
}

func (s *Server) GenerateTestReadings(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req generateReadingsRequest
	// An empty body generates the default number of readings.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	readings, err := s.usageSvc.GenerateTestReadings(c.Request.Context(), usagedomain.GenerateRequest{
		RoomID:   strings.TrimSpace(c.Param("roomId")),
		DeviceID: strings.TrimSpace(c.Param("deviceId")),
		Count:    req.Count,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": readings})
}
