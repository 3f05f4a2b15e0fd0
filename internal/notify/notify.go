// Package notify 알람 발생 통지 발송.
// 규칙의 notification_channels(JSON 배열)를 해석해 채널별로 발송하고
// 발송 결과를 발생 레코드에 기록한다.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pulseone-console/internal/config"
	"pulseone-console/internal/models"
	"pulseone-console/pkg/alarmview"
)

// Sender 단일 채널 발송자
type Sender interface {
	Send(title, message string) error
}

// channelConfig 채널 JSON의 공통 디코딩 형태.
// type별로 사용하는 필드만 읽는다.
type channelConfig struct {
	Type       string            `json:"type"`
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers"`
	Recipients []string          `json:"recipients"`
	Subject    string            `json:"subject"`
}

// WebhookSender JSON 페이로드를 HTTP로 전송
type WebhookSender struct {
	URL     string
	Method  string
	Headers map[string]string
	client  *http.Client
}

func (w *WebhookSender) Send(title, message string) error {
	payload := map[string]string{
		"title":   title,
		"message": message,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	method := w.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequest(method, w.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notification failed with status: %d", resp.StatusCode)
	}
	return nil
}

// EmailSender SMTP 발송
type EmailSender struct {
	Host     string
	Port     int
	From     string
	Password string
	To       []string
	Subject  string
}

func (e *EmailSender) Send(title, message string) error {
	subject := e.Subject
	if subject == "" {
		subject = title
	}
	body := fmt.Sprintf("Subject: %s\r\nFrom: %s\r\nTo: %s\r\n\r\n%s",
		subject, e.From, strings.Join(e.To, ", "), message)

	addr := fmt.Sprintf("%s:%d", e.Host, e.Port)
	auth := smtp.PlainAuth("", e.From, e.Password, e.Host)
	return smtp.SendMail(addr, auth, e.From, e.To, []byte(body))
}

// Manager 규칙 채널 해석 + 재시도 발송 + 발생 레코드 갱신.
// alarm.Notifier를 구현한다.
type Manager struct {
	db     *gorm.DB
	cfg    config.NotifyConfig
	logger *zap.Logger
	client *http.Client
	wg     sync.WaitGroup
}

func NewManager(db *gorm.DB, cfg config.NotifyConfig, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		db:     db,
		cfg:    cfg,
		logger: log,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyTriggered 발송은 비동기로 진행되고 요청 처리를 막지 않는다
func (m *Manager) NotifyTriggered(ctx context.Context, rule *models.AlarmRule, occ *models.AlarmOccurrence) {
	if !m.cfg.Enabled {
		return
	}

	channels := parseChannels(rule.NotificationChannels)
	if len(channels) == 0 {
		return
	}

	fallbackRecipients := parseRecipients(rule.NotificationRecipients)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.dispatch(channels, fallbackRecipients, rule, occ)
	}()
}

// Close 진행 중인 발송이 끝날 때까지 대기
func (m *Manager) Close() {
	m.wg.Wait()
}

func (m *Manager) dispatch(channels []channelConfig, fallbackRecipients []string, rule *models.AlarmRule, occ *models.AlarmOccurrence) {
	title := fmt.Sprintf("[%s] %s", alarmview.SeverityDisplayName(occ.Severity), occ.RuleName)
	message := formatMessage(occ)

	results := make(map[string]string, len(channels))
	anySent := false

	for i, ch := range channels {
		key := fmt.Sprintf("%s#%d", ch.Type, i)

		sender, err := m.buildSender(ch, fallbackRecipients)
		if err != nil {
			results[key] = err.Error()
			m.logger.Warn("failed to build notification sender",
				zap.String("channel", ch.Type),
				zap.Uint("rule_id", rule.ID),
				zap.Error(err))
			continue
		}

		if err := m.sendWithRetry(sender, title, message); err != nil {
			results[key] = err.Error()
			m.logger.Warn("failed to send notification",
				zap.String("channel", ch.Type),
				zap.Uint("occurrence_id", occ.ID),
				zap.Error(err))
			continue
		}

		results[key] = "ok"
		anySent = true
	}

	m.recordResult(occ.ID, anySent, results)
}

func (m *Manager) sendWithRetry(sender Sender, title, message string) error {
	attempts := m.cfg.RetryTimes
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(time.Duration(m.cfg.RetryInterval) * time.Second)
		}
		if lastErr = sender.Send(title, message); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (m *Manager) buildSender(ch channelConfig, fallbackRecipients []string) (Sender, error) {
	switch ch.Type {
	case "webhook":
		if ch.URL == "" {
			return nil, fmt.Errorf("missing url for webhook channel")
		}
		return &WebhookSender{
			URL:     ch.URL,
			Method:  ch.Method,
			Headers: ch.Headers,
			client:  m.client,
		}, nil

	case "email":
		if m.cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp host is not configured")
		}
		recipients := ch.Recipients
		if len(recipients) == 0 {
			recipients = fallbackRecipients
		}
		if len(recipients) == 0 {
			return nil, fmt.Errorf("missing recipients for email channel")
		}
		return &EmailSender{
			Host:     m.cfg.SMTPHost,
			Port:     m.cfg.SMTPPort,
			From:     m.cfg.SMTPFrom,
			Password: m.cfg.SMTPPassword,
			To:       recipients,
			Subject:  ch.Subject,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported channel type: %s", ch.Type)
	}
}

// recordResult 발생 레코드에 발송 결과 기록 (실패는 경고만)
func (m *Manager) recordResult(occurrenceID uint, sent bool, results map[string]string) {
	resultJSON, err := json.Marshal(results)
	if err != nil {
		resultJSON = []byte("{}")
	}
	now := time.Now()

	err = m.db.WithContext(context.Background()).
		Model(&models.AlarmOccurrence{}).
		Where("id = ?", occurrenceID).
		Updates(map[string]interface{}{
			"notification_sent":   sent,
			"notification_time":   now,
			"notification_count":  gorm.Expr("notification_count + 1"),
			"notification_result": string(resultJSON),
		}).Error
	if err != nil {
		m.logger.Warn("failed to record notification result",
			zap.Uint("occurrence_id", occurrenceID),
			zap.Error(err))
	}
}

// formatMessage 통지 본문 구성
func formatMessage(occ *models.AlarmOccurrence) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("【PulseOne 알람】%s\n", occ.RuleName))
	sb.WriteString(fmt.Sprintf("심각도: %s\n", alarmview.SeverityDisplayName(occ.Severity)))
	sb.WriteString(fmt.Sprintf("발생 시각: %s\n", occ.OccurrenceTime.Format("2006-01-02 15:04:05")))

	if occ.DeviceName != "" {
		sb.WriteString(fmt.Sprintf("설비: %s\n", occ.DeviceName))
	}
	if occ.DataPointName != "" {
		sb.WriteString(fmt.Sprintf("데이터 포인트: %s\n", occ.DataPointName))
	}
	if occ.TriggerValue != "" {
		sb.WriteString(fmt.Sprintf("측정값: %s\n", occ.TriggerValue))
	}
	if occ.Location != "" {
		sb.WriteString(fmt.Sprintf("위치: %s\n", occ.Location))
	}

	if occ.AlarmMessage != "" {
		sb.WriteString(fmt.Sprintf("\n%s", occ.AlarmMessage))
	}

	return sb.String()
}

// parseChannels 규칙 컬럼의 JSON 배열 해석.
// 문자열로 한 번 더 감싸진 값도 허용한다.
func parseChannels(raw string) []channelConfig {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" || raw == "null" {
		return nil
	}

	var channels []channelConfig
	if err := json.Unmarshal([]byte(raw), &channels); err == nil {
		return channels
	}

	var wrapped string
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil {
		if err := json.Unmarshal([]byte(wrapped), &channels); err == nil {
			return channels
		}
	}
	return nil
}

func parseRecipients(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" || raw == "null" {
		return nil
	}

	var recipients []string
	if err := json.Unmarshal([]byte(raw), &recipients); err == nil {
		return recipients
	}

	var wrapped string
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil {
		if err := json.Unmarshal([]byte(wrapped), &recipients); err == nil {
			return recipients
		}
	}
	return nil
}
