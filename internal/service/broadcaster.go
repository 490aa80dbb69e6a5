package service

// Admin feed event types
const (
	EventResponseSubmitted = "response_submitted"
	EventSpecPublished     = "spec_published"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToAdmins(msgType string, payload interface{})
}
