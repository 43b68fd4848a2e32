package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	devicedomain "github.com/smallbiznis/roomwatt/internal/device/domain"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
)

func (s *Server) ListRooms(c *gin.Context) {
	rooms, err := s.roomSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

func (s *Server) CreateRoom(c *gin.Context) {
	var req roomdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	room, err := s.roomSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": room})
}

func (s *Server) GetRoomByID(c *gin.Context) {
	room, err := s.roomSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("roomId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (s *Server) ListRoomDevices(c *gin.Context) {
	devices, err := s.deviceSvc.ListByRoom(c.Request.Context(), strings.TrimSpace(c.Param("roomId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": devices})
}

type addDeviceRequest struct {
	DeviceType string `json:"device_type"`
	DeviceName string `json:"device_name"`
}

func (s *Server) AddDevice(c *gin.Context) {
	var req addDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	device, err := s.deviceSvc.Add(c.Request.Context(), devicedomain.AddRequest{
		RoomID:     strings.TrimSpace(c.Param("roomId")),
		DeviceType: strings.TrimSpace(req.DeviceType),
		DeviceName: strings.TrimSpace(req.DeviceName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": device})
}
