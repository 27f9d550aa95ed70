package senders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WebhookSender posts the message to a provider gateway. The same type serves
// the SMS and push channels, with different endpoints.
type WebhookSender struct {
	name  string
	url   string
	token string
	http  *http.Client
}

func NewWebhookSender(name string, url string, token string) *WebhookSender {
	return &WebhookSender{
		name:  name,
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *WebhookSender) ProviderID() string {
	return s.name
}

func (s *WebhookSender) Send(ctx context.Context, to string, content string) error {
	if s.url == "" {
		return fmt.Errorf("%s webhook url not configured", s.name)
	}
	raw, err := json.Marshal(map[string]string{
		"to":      to,
		"content": content,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(s.name + " webhook returned non-2xx")
	}
	return nil
}
