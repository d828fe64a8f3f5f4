package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "campushub.realtime/internal/errors"
	"campushub.realtime/internal/hub"
	"campushub.realtime/pkg/response"
)

// listConnections GET /api/v1/realtime/connections
func (s *Server) listConnections(c *gin.Context) {
	records := s.hub.ListConnections()
	response.Success(c, gin.H{
		"connections": records,
		"count":       len(records),
	})
}

// connectionCount GET /api/v1/realtime/connections/count
func (s *Server) connectionCount(c *gin.Context) {
	response.Success(c, gin.H{"count": s.hub.ConnectionCount()})
}

// getConnection GET /api/v1/realtime/connections/:userId
func (s *Server) getConnection(c *gin.Context) {
	record, ok := s.hub.Lookup(c.Param("userId"))
	if !ok {
		response.NotFound(c, appErrors.ErrNotConnected)
		return
	}
	response.Success(c, record)
}

// notify POST /api/v1/realtime/notify
func (s *Server) notify(c *gin.Context) {
	var n hub.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		response.Abort(c, http.StatusBadRequest, appErrors.ErrInvalidParams.Wrap(err))
		return
	}
	if err := n.Validate(); err != nil {
		response.Abort(c, http.StatusBadRequest, appErrors.ErrInvalidParams.Wrap(err))
		return
	}

	delivered, err := s.hub.Notify(n)
	if err != nil {
		s.logger.Error("notify failed", "kind", n.Kind, "event", n.Event, "error", err)
		response.ServiceUnavailable(c, appErrors.ErrServerError.Wrap(err))
		return
	}
	response.Success(c, gin.H{"delivered": delivered})
}
