// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/yahtzee/persistence"
	"github.com/wfunc/yahtzee/session"
)

var (
	ErrMatchNotFound = errors.New("match not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToMatch(matchID uint, msgID uint16, v any) error
	BroadcastToPlayers(playerIDs []uint, msgID uint16, v any) error
}

// MatchBroadcaster 把对局事件推给所有在座玩家的在线会话
type MatchBroadcaster struct {
	db             persistence.Database
	sessionManager *session.Manager
}

func NewMatchBroadcaster(db persistence.Database, sessionManager *session.Manager) *MatchBroadcaster {
	return &MatchBroadcaster{
		db:             db,
		sessionManager: sessionManager,
	}
}

func (b *MatchBroadcaster) BroadcastToMatch(matchID uint, msgID uint16, v any) error {
	seats, err := b.db.SeatsForMatch(matchID)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return ErrMatchNotFound
		}
		return err
	}

	for _, seat := range seats {
		sessions := b.sessionManager.GetByPlayerID(seat.PlayerID)
		for _, s := range sessions {
			if err := s.SendJSON(msgID, v); err != nil {
				// 发送失败的会话留给心跳清理
				continue
			}
		}
	}
	return nil
}

func (b *MatchBroadcaster) BroadcastToPlayers(playerIDs []uint, msgID uint16, v any) error {
	for _, playerID := range playerIDs {
		sessions := b.sessionManager.GetByPlayerID(playerID)
		for _, s := range sessions {
			if err := s.SendJSON(msgID, v); err != nil {
				continue
			}
		}
	}
	return nil
}
