package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/smallbiznis/roomwatt/internal/usage/domain"
	"github.com/smallbiznis/roomwatt/internal/usage/liveevents"
	"github.com/smallbiznis/roomwatt/pkg/db/pagination"
)

type recordReadingRequest struct {
	EnergyConsumed *float64   `json:"energy_consumed"`
	RecordedAt     *time.Time `json:"recorded_at"`
}

func (s *Server) RecordReading(c *gin.Context) {
	var req recordReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.EnergyConsumed == nil {
		AbortWithError(c, newValidationError("energy_consumed", "required", "energy_consumed is required"))
		return
	}

	reading, err := s.usageSvc.Record(c.Request.Context(), usagedomain.RecordRequest{
		DeviceID:       strings.TrimSpace(c.Param("deviceId")),
		EnergyConsumed: *req.EnergyConsumed,
		RecordedAt:     req.RecordedAt,
		Source:         liveevents.SourceAPI,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": reading})
}

func (s *Server) ListReadings(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Limit string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	limit, err := parseLimit(query.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if limit == 0 {
		limit = query.PageSize
	}

	resp, err := s.usageSvc.ListRecent(c.Request.Context(), usagedomain.ListRequest{
		DeviceID:  strings.TrimSpace(c.Param("deviceId")),
		PageToken: query.PageToken,
		Limit:     limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
