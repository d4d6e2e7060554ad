package match

// Broadcaster defines the interface for pushing match events to seated players.
// This is defined here to break the import cycle between match and broadcast.
type Broadcaster interface {
	BroadcastToMatch(matchID uint, msgID uint16, v any) error
}
