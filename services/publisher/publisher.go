package publisher

import "context"

// DealKey is the stream field that carries an encoded deal
const DealKey = "deal"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to the stream
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims the stream to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
