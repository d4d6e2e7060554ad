// server/websocket.go
package server

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/network"
	"github.com/wfunc/yahtzee/session"
)

// handleWebSocket 事件推送通道。令牌在query里校验，
// 升级后会话绑定玩家，对局事件由广播器推送。
func (s *Server) handleWebSocket(c *gin.Context) {
	claims, err := s.jwtService.ValidateToken(c.Query("token"))
	if err != nil {
		c.JSON(401, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}

	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	sess.PlayerID = claims.PlayerID
	s.sessionManager.Add(sess)
	s.monitor.IncSessions()

	logger.Log.Infof("Player %d connected from %s, session ID: %s",
		claims.PlayerID, wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Player %d disconnected, session ID: %s", claims.PlayerID, sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecSessions()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *Server) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
		s.playerService.RecordActivity(sess.PlayerID)
	case network.MsgTypeMatchState:
		s.handleMatchStateQuery(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

// handleMatchStateQuery 回推对局当前状态快照，并把会话绑定到该对局
func (s *Server) handleMatchStateQuery(sess *session.Session, packet *network.Packet) {
	var req struct {
		MatchCode string `json:"match_code"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.MatchCode == "" {
		return
	}
	sess.BindMatch(req.MatchCode)

	m, seats, err := s.matchEngine.ByCode(req.MatchCode)
	if err != nil {
		logger.Log.Warnf("Match state query failed for session %s: %v", sess.GetID(), err)
		return
	}
	if err := sess.SendJSON(network.MsgTypeMatchState, gin.H{"match": m, "seats": seats}); err != nil {
		logger.Log.Warnf("Failed to send match state to session %s: %v", sess.GetID(), err)
	}
}
