package server

import (
	"github.com/gin-gonic/gin"

	"campushub.realtime/internal/auth"
	"campushub.realtime/internal/connection"
	"campushub.realtime/pkg/response"
)

// handleWebSocket 握手：先认证，通过后才升级并接纳
// 认证失败时在升级前返回 HTTP 错误，不产生任何注册或房间变更
func (s *Server) handleWebSocket(c *gin.Context) {
	token := auth.ExtractToken(c.Request)

	identity, err := s.gate.Authenticate(c.Request.Context(), token)
	if err != nil {
		s.logger.Warn("handshake rejected",
			"client_ip", c.ClientIP(),
			"error", err)
		if auth.IsAuthError(err) {
			response.Unauthorized(c, err)
		} else {
			response.ServiceUnavailable(c, err)
		}
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		s.logger.Warn("websocket upgrade failed", "user_id", identity.UserID, "error", err)
		return
	}

	conn := connection.NewConn(s.ids.Generate().String(), ws, s.connOpts, s.logger)
	if err := s.hub.Admit(conn, *identity); err != nil {
		s.logger.Warn("admission failed", "user_id", identity.UserID, "error", err)
		conn.Close()
		return
	}

	conn.Start(s.hub)
}
