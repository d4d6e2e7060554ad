package network

const (
	MsgTypeHeartbeat = 1

	MsgTypeMatchState     = 301
	MsgTypePlayerJoined   = 302
	MsgTypeMatchStarted   = 303
	MsgTypeTurnStarted    = 304
	MsgTypeDiceRolled     = 305
	MsgTypeTurnCompleted  = 306
	MsgTypeTurnAdvanced   = 307
	MsgTypeMatchFinished  = 308
	MsgTypeMatchCancelled = 309
)
