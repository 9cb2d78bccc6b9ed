package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultStreamMessages caps how many messages Stream reads before
// returning.
const DefaultStreamMessages = 10

// Stream connects to a websocket endpoint and returns up to maxMessages
// messages joined by newlines. The context bounds the whole read; a
// stream that closes early returns what was read so far.
func Stream(ctx context.Context, rawURL string, maxMessages int) (string, error) {
	if maxMessages <= 0 {
		maxMessages = DefaultStreamMessages
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("websocket dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	var chunks []string
	for i := 0; i < maxMessages; i++ {
		if ctx.Err() != nil {
			break
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if len(chunks) > 0 {
				break
			}
			return "", fmt.Errorf("websocket read failed: %w", err)
		}
		chunks = append(chunks, string(message))
	}

	return strings.Join(chunks, "\n"), nil
}
