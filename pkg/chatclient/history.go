package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// historyTimeout bounds the history fetch; the original client had no
// timeout at all, which left the feed spinner hanging forever on a
// stalled connection.
const historyTimeout = 10 * time.Second

// HistoryClient loads the stored message history for a room over REST.
// History failure is independent of the live session: the caller should
// render an empty feed and keep the socket.
type HistoryClient struct {
	BaseURL string
	Token   string

	// HTTPClient defaults to one with historyTimeout.
	HTTPClient *http.Client
}

// LoadHistory returns all messages for the room, ascending by time.
// Every failure mode is reported as ErrHistoryUnavailable.
func (c *HistoryClient) LoadHistory(ctx context.Context, roomID string) ([]Message, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: historyTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/chat/"+roomID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrHistoryUnavailable, resp.StatusCode)
	}

	var body struct {
		Success bool      `json:"success"`
		Data    []Message `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	if !body.Success {
		return nil, fmt.Errorf("%w: server reported failure", ErrHistoryUnavailable)
	}
	return body.Data, nil
}
