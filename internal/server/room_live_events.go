package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/roomwatt/internal/usage/liveevents"
)

const liveHeartbeatInterval = 15 * time.Second

// StreamRoomReadings streams readings recorded for a room as Server-Sent
// Events, starting with the room's recent backlog.
func (s *Server) StreamRoomReadings(c *gin.Context) {
	if s.liveReadings == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	room, err := s.roomSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("roomId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	subscription, backlog, err := s.liveReadings.Subscribe(room.ID)
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	defer subscription.Close()

	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}
	for _, reading := range backlog {
		if err := writeLiveReading(writer, reading); err != nil {
			return
		}
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(liveHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case reading, ok := <-subscription.Events():
			if !ok {
				return
			}
			if err := writeLiveReading(writer, reading); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeLiveReading(w io.Writer, reading liveevents.Reading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: reading\nid: %s\ndata: %s\n\n", reading.ID, data)
	return err
}
