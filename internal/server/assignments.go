package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	assignmentdomain "github.com/smallbiznis/roomwatt/internal/assignment/domain"
)

func (s *Server) ListAssignments(c *gin.Context) {
	assignments, err := s.assignmentSvc.ListAssignments(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": assignments})
}

func (s *Server) ListRoomsWithUsers(c *gin.Context) {
	rooms, err := s.assignmentSvc.RoomsWithUsers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

func (s *Server) ListRoomUsers(c *gin.Context) {
	residents, err := s.assignmentSvc.UsersByRoom(c.Request.Context(), strings.TrimSpace(c.Param("roomId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": residents})
}

func (s *Server) GetUserRoom(c *gin.Context) {
	room, err := s.assignmentSvc.UserRoom(c.Request.Context(), strings.TrimSpace(c.Param("userId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (s *Server) AssignUserRoom(c *gin.Context) {
	var req assignmentdomain.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID := strings.TrimSpace(c.Param("userId"))
	if err := s.assignmentSvc.Assign(c.Request.Context(), userID, req); err != nil {
		AbortWithError(c, err)
		return
	}

	room, err := s.assignmentSvc.UserRoom(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (s *Server) RemoveUserRoom(c *gin.Context) {
	if err := s.assignmentSvc.Remove(c.Request.Context(), strings.TrimSpace(c.Param("userId"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
