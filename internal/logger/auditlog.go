package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var auditFileMutex sync.Mutex

// AuditEntry 관리 작업 감사 기록 1건
type AuditEntry struct {
	Timestamp  time.Time              `json:"timestamp"`
	Actor      uint                   `json:"actor"`    // user id, 0 = system
	Action     string                 `json:"action"`   // create, update, delete, acknowledge, clear, apply, register
	Resource   string                 `json:"resource"` // alarm_rule, alarm_occurrence, alarm_template, collector, settings
	ResourceID uint                   `json:"resource_id"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
}

// InitAuditLog 감사 로그 디렉터리 준비
func InitAuditLog(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}
	return nil
}

// WriteAudit 감사 기록을 일자별 JSONL 파일에 append
// 파일 경로: <logDir>/audit-2026-01-14.jsonl
func WriteAudit(logDir string, entry *AuditEntry) error {
	auditFileMutex.Lock()
	defer auditFileMutex.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	date := entry.Timestamp.Format("2006-01-02")
	logFilePath := filepath.Join(logDir, fmt.Sprintf("audit-%s.jsonl", date))

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	return nil
}

// AuditQuery 감사 로그 조회 조건
type AuditQuery struct {
	Resource  string     `json:"resource,omitempty"`
	Action    string     `json:"action,omitempty"`
	Actor     *uint      `json:"actor,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}

// AuditQueryResult 조회 결과
type AuditQueryResult struct {
	Total int           `json:"total"`
	Logs  []*AuditEntry `json:"logs"`
}

// QueryAudit 일자 범위의 JSONL 파일을 읽어 조건에 맞는 기록 반환 (최신순)
func QueryAudit(logDir string, req *AuditQuery) (*AuditQueryResult, error) {
	result := &AuditQueryResult{
		Logs: make([]*AuditEntry, 0),
	}

	var startDate, endDate time.Time
	if req.StartTime != nil {
		startDate = *req.StartTime
	} else {
		startDate = time.Now().AddDate(0, 0, -7)
	}

	if req.EndTime != nil {
		endDate = *req.EndTime
	} else {
		endDate = time.Now()
	}

	matched := make([]*AuditEntry, 0)
	for d := startDate; d.Before(endDate.AddDate(0, 0, 1)); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		logFilePath := filepath.Join(logDir, fmt.Sprintf("audit-%s.jsonl", dateStr))

		if _, err := os.Stat(logFilePath); os.IsNotExist(err) {
			continue
		}

		entries, err := readAuditFile(logFilePath)
		if err != nil {
			continue // 읽기 실패한 파일은 건너뜀
		}

		for _, entry := range entries {
			if !matchesAuditQuery(entry, req) {
				continue
			}
			matched = append(matched, entry)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	result.Total = len(matched)
	if req.Limit <= 0 {
		req.Limit = 100
	}

	start := req.Offset
	if start > len(matched) {
		start = len(matched)
	}

	end := start + req.Limit
	if end > len(matched) {
		end = len(matched)
	}

	if start < end {
		result.Logs = matched[start:end]
	}

	return result, nil
}

func readAuditFile(logFilePath string) ([]*AuditEntry, error) {
	file, err := os.Open(logFilePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	entries := make([]*AuditEntry, 0)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var entry AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue // 손상된 라인은 건너뜀
		}

		entries = append(entries, &entry)
	}

	return entries, scanner.Err()
}

func matchesAuditQuery(entry *AuditEntry, req *AuditQuery) bool {
	if req.Resource != "" && entry.Resource != req.Resource {
		return false
	}

	if req.Action != "" && entry.Action != req.Action {
		return false
	}

	if req.Actor != nil && entry.Actor != *req.Actor {
		return false
	}

	if req.StartTime != nil && entry.Timestamp.Before(*req.StartTime) {
		return false
	}

	if req.EndTime != nil && entry.Timestamp.After(*req.EndTime) {
		return false
	}

	return true
}
