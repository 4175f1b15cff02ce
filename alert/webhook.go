package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// plainWebhookClient posts alert payloads as a raw JSON POST body — the
// literal {event, timestamp, anomaly, contract} object a generic
// transparency-monitoring receiver expects at the top level, not a
// chat-app envelope wrapping it in a string field.
type plainWebhookClient struct {
	httpClient *http.Client
}

func newPlainWebhookClient() *plainWebhookClient {
	return &plainWebhookClient{httpClient: &http.Client{}}
}

// post delivers payload as the literal JSON request body.
func (c *plainWebhookClient) post(ctx context.Context, url string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", url, resp.StatusCode)
	}
	return nil
}
