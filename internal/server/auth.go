package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
)

type loginResponse struct {
	User      accountdomain.UserView `json:"user"`
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expires_at"`
}

func (s *Server) Login(c *gin.Context) {
	var req accountdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.accountSvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"data": loginResponse{
		User:      result.User,
		Token:     result.RawToken,
		ExpiresAt: result.ExpiresAt,
	}})
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	err := s.accountSvc.Logout(c.Request.Context(), token)
	if err != nil && !errors.Is(err, accountdomain.ErrInvalidSession) {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.accountSvc.GetByID(c.Request.Context(), principal.UserID.String())
	if err != nil {
		if errors.Is(err, accountdomain.ErrNotFound) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) CreateUser(c *gin.Context) {
	var req accountdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.accountSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": user})
}

func (s *Server) ListUsers(c *gin.Context) {
	users, err := s.accountSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users})
}

func (s *Server) UpdateUser(c *gin.Context) {
	var req accountdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.accountSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("userId")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) DeleteUser(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if principal, ok := principalFromContext(c); ok && principal.UserID.String() == userID {
		AbortWithError(c, newValidationError("user_id", "cannot_delete_self", "you cannot delete your own account"))
		return
	}

	if err := s.accountSvc.Delete(c.Request.Context(), userID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
