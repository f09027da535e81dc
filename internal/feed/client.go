package feed

import "chatboard/backend/internal/models"

// Client is the interface for one live feed connection. It abstracts the
// transport so the hub can manage websocket clients and test doubles
// uniformly.
type Client interface {
	// GetUsername returns the account this connection belongs to.
	GetUsername() string

	// GetSendChannel returns the channel the hub writes outbound events
	// to. It is a send-only channel.
	GetSendChannel() chan<- models.FeedEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's outbound channel, stopping its write
	// pump. Called exactly once, by the hub.
	Close()
}
