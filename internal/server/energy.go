package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	energydomain "github.com/smallbiznis/roomwatt/internal/energy/domain"
)

func bindEnergyQuery(c *gin.Context) (energyQuery, bool) {
	var query energyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return energyQuery{}, false
	}
	return query, true
}

func (s *Server) GetRoomEnergySeries(c *gin.Context) {
	query, ok := bindEnergyQuery(c)
	if !ok {
		return
	}

	series, err := s.energySvc.Series(c.Request.Context(), energydomain.SeriesRequest{
		RoomID: strings.TrimSpace(c.Param("roomId")),
		Period: query.Period,
		Date:   query.Date,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": series})
}

func (s *Server) GetRoomEnergySummary(c *gin.Context) {
	s.energySummary(c, strings.TrimSpace(c.Param("roomId")))
}

func (s *Server) GetEnergySummary(c *gin.Context) {
	s.energySummary(c, "")
}

func (s *Server) energySummary(c *gin.Context, roomID string) {
	query, ok := bindEnergyQuery(c)
	if !ok {
		return
	}

	summary, err := s.energySvc.Summary(c.Request.Context(), energydomain.SummaryRequest{
		RoomID: roomID,
		Period: query.Period,
		Date:   query.Date,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) GetRoomEnergyComparison(c *gin.Context) {
	s.energyComparison(c, strings.TrimSpace(c.Param("roomId")))
}

func (s *Server) GetEnergyComparison(c *gin.Context) {
	s.energyComparison(c, "")
}

func (s *Server) energyComparison(c *gin.Context, roomID string) {
	query, ok := bindEnergyQuery(c)
	if !ok {
		return
	}

	comparison, err := s.energySvc.Compare(c.Request.Context(), energydomain.SummaryRequest{
		RoomID: roomID,
		Period: query.Period,
		Date:   query.Date,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": comparison})
}

func (s *Server) GetRoomEnergyByDeviceType(c *gin.Context) {
	query, ok := bindEnergyQuery(c)
	if !ok {
		return
	}

	breakdown, err := s.energySvc.ByDeviceType(c.Request.Context(), energydomain.SummaryRequest{
		RoomID: strings.TrimSpace(c.Param("roomId")),
		Period: query.Period,
		Date:   query.Date,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": breakdown})
}
