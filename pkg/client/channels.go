package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// 통지 채널 type 판별자
const (
	ChannelWebhook = "webhook"
	ChannelEmail   = "email"
)

// WebhookChannel HTTP POST 통지 설정
type WebhookChannel struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// EmailChannel SMTP 통지 설정
type EmailChannel struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject,omitempty"`
}

// NotificationChannel type 필드로 판별되는 통지 채널 설정.
// 알 수 없는 type은 Raw에 원본 그대로 보존한다 (forward compatibility).
type NotificationChannel struct {
	Type    string
	Webhook *WebhookChannel
	Email   *EmailChannel
	Raw     json.RawMessage
}

func (n *NotificationChannel) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	n.Type = head.Type
	n.Raw = append(json.RawMessage(nil), data...)

	switch head.Type {
	case ChannelWebhook:
		var w WebhookChannel
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		n.Webhook = &w
	case ChannelEmail:
		var e EmailChannel
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		n.Email = &e
	}

	return nil
}

func (n NotificationChannel) MarshalJSON() ([]byte, error) {
	switch n.Type {
	case ChannelWebhook:
		if n.Webhook == nil {
			return nil, fmt.Errorf("webhook channel has no config")
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			*WebhookChannel
		}{Type: n.Type, WebhookChannel: n.Webhook})
	case ChannelEmail:
		if n.Email == nil {
			return nil, fmt.Errorf("email channel has no config")
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			*EmailChannel
		}{Type: n.Type, EmailChannel: n.Email})
	}

	if len(n.Raw) > 0 {
		return n.Raw, nil
	}
	return nil, fmt.Errorf("unknown notification channel type: %q", n.Type)
}

// ChannelList 채널 배열. StringList처럼 직렬화된 문자열로 와도 해석한다.
type ChannelList []NotificationChannel

func (c *ChannelList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}

	if data[0] == '[' {
		var arr []NotificationChannel
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		*c = arr
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*c = nil
			return nil
		}
		var arr []NotificationChannel
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			return fmt.Errorf("channel field is not a JSON array: %w", err)
		}
		*c = arr
		return nil
	}

	return fmt.Errorf("unexpected JSON for channel list: %s", string(data))
}
