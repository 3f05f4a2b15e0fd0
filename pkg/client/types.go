package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StringList JSON 배열 또는 직렬화된 배열 문자열 양쪽을 수용하는 태그 목록
// 백엔드가 DB text 컬럼을 그대로 내려보내는 경우가 있어 문자열로 온 JSON도 해석한다.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	if data[0] == '[' {
		var arr []string
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		*s = arr
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*s = nil
			return nil
		}
		var arr []string
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			// JSON이 아닌 평문은 요소 1개로 취급
			*s = StringList{raw}
			return nil
		}
		*s = arr
		return nil
	}

	return fmt.Errorf("unexpected JSON for string list: %s", string(data))
}

// JSONObject JSON 객체 또는 직렬화된 객체 문자열 양쪽을 수용하는 설정 블롭
type JSONObject map[string]interface{}

func (o *JSONObject) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}

	if data[0] == '{' {
		var m map[string]interface{}
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*o = m
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*o = nil
			return nil
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return fmt.Errorf("config field is not a JSON object: %w", err)
		}
		*o = m
		return nil
	}

	return fmt.Errorf("unexpected JSON for object field: %s", string(data))
}

// AlarmRule 알람 규칙 wire 표현 (서버 응답)
type AlarmRule struct {
	ID          uint   `json:"id"`
	TenantID    uint   `json:"tenant_id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	TargetType       string `json:"target_type"`
	TargetID         *uint  `json:"target_id"`
	TargetGroup      string `json:"target_group"`
	TargetDisplay    string `json:"target_display"`
	ConditionDisplay string `json:"condition_display,omitempty"`
	AlarmType        string `json:"alarm_type"`

	// 목록 표시용 denormalized 필드, 서버가 채우지 않을 수 있음
	DeviceName       string `json:"device_name,omitempty"`
	DataPointName    string `json:"data_point_name,omitempty"`
	VirtualPointName string `json:"virtual_point_name,omitempty"`

	HighHighLimit *float64 `json:"high_high_limit"`
	HighLimit     *float64 `json:"high_limit"`
	LowLimit      *float64 `json:"low_limit"`
	LowLowLimit   *float64 `json:"low_low_limit"`
	Deadband      float64  `json:"deadband"`
	RateOfChange  *float64 `json:"rate_of_change"`

	TriggerCondition string `json:"trigger_condition"`
	ConditionScript  string `json:"condition_script"`
	MessageScript    string `json:"message_script"`

	MessageConfig   JSONObject `json:"message_config"`
	MessageTemplate string     `json:"message_template"`

	Severity string `json:"severity"`
	Priority int    `json:"priority"`

	AutoAcknowledge       bool       `json:"auto_acknowledge"`
	AcknowledgeTimeoutMin int        `json:"acknowledge_timeout_min"`
	AutoClear             bool       `json:"auto_clear"`
	SuppressionRules      JSONObject `json:"suppression_rules"`

	NotificationEnabled           bool        `json:"notification_enabled"`
	NotificationDelaySec          int         `json:"notification_delay_sec"`
	NotificationRepeatIntervalMin int         `json:"notification_repeat_interval_min"`
	NotificationChannels          ChannelList `json:"notification_channels"`
	NotificationRecipients        StringList  `json:"notification_recipients"`

	IsEnabled  bool       `json:"is_enabled"`
	IsLatched  bool       `json:"is_latched"`
	Category   string     `json:"category"`
	Tags       StringList `json:"tags"`
	TemplateID *uint      `json:"template_id"`
	CreatedBy  uint       `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AlarmOccurrence 알람 발생 wire 표현
type AlarmOccurrence struct {
	ID       uint `json:"id"`
	RuleID   uint `json:"rule_id"`
	TenantID uint `json:"tenant_id"`

	RuleName      string `json:"rule_name"`
	DeviceID      string `json:"device_id"`
	DeviceName    string `json:"device_name"`
	DataPointName string `json:"data_point_name"`

	OccurrenceTime   time.Time `json:"occurrence_time"`
	TriggerValue     string    `json:"trigger_value"`
	TriggerCondition string    `json:"trigger_condition"`
	AlarmMessage     string    `json:"alarm_message"`
	Severity         string    `json:"severity"`
	State            string    `json:"state"`

	AcknowledgedTime   *time.Time `json:"acknowledged_time"`
	AcknowledgedBy     *uint      `json:"acknowledged_by"`
	AcknowledgeComment string     `json:"acknowledge_comment"`

	ClearedTime  *time.Time `json:"cleared_time"`
	ClearedValue string     `json:"cleared_value"`
	ClearComment string     `json:"clear_comment"`

	SourceName string     `json:"source_name"`
	Location   string     `json:"location"`
	Category   string     `json:"category"`
	Tags       StringList `json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AlarmTemplate 알람 템플릿 wire 표현
type AlarmTemplate struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`

	ConditionType   string     `json:"condition_type"`
	DefaultConfig   JSONObject `json:"default_config"`
	Severity        string     `json:"severity"`
	MessageTemplate string     `json:"message_template"`

	ApplicableDataTypes   StringList `json:"applicable_data_types"`
	ApplicableDeviceTypes StringList `json:"applicable_device_types"`

	NotificationEnabled bool `json:"notification_enabled"`
	IsActive            bool `json:"is_active"`
	IsSystemTemplate    bool `json:"is_system_template"`
	UsageCount          int  `json:"usage_count"`

	Tags      StringList `json:"tags"`
	CreatedBy uint       `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Collector 엣지 수집 서버 wire 표현
type Collector struct {
	ID          uint   `json:"id"`
	TenantID    uint   `json:"tenant_id"`
	ServerName  string `json:"server_name"`
	FactoryName string `json:"factory_name"`
	Location    string `json:"location"`

	IPAddress string `json:"ip_address"`
	Port      int    `json:"port"`
	Endpoint  string `json:"endpoint,omitempty"`

	RegistrationToken string     `json:"registration_token,omitempty"`
	Status            string     `json:"status"`
	LastSeen          *time.Time `json:"last_seen"`
	Version           string     `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CollectorHealth 수집기 헬스 점검 결과
type CollectorHealth struct {
	ID             uint       `json:"id"`
	ServerName     string     `json:"server_name"`
	Status         string     `json:"status"`
	Healthy        bool       `json:"healthy"`
	LastSeen       *time.Time `json:"last_seen"`
	ResponseTimeMs int64      `json:"response_time_ms"`
	CheckedAt      time.Time  `json:"checked_at"`
}

// SystemSettings 카테고리명 → 설정 객체
type SystemSettings map[string]JSONObject

// RuleStatistics 규칙 통계
type RuleStatistics struct {
	Total      int64            `json:"total"`
	Enabled    int64            `json:"enabled"`
	Disabled   int64            `json:"disabled"`
	BySeverity map[string]int64 `json:"by_severity"`
	ByType     map[string]int64 `json:"by_type"`
	ByCategory map[string]int64 `json:"by_category"`
}

// OccurrenceStatistics 발생 통계
type OccurrenceStatistics struct {
	Active         int64            `json:"active"`
	Unacknowledged int64            `json:"unacknowledged"`
	ClearedToday   int64            `json:"cleared_today"`
	TotalToday     int64            `json:"total_today"`
	BySeverity     map[string]int64 `json:"by_severity"`
}

// TemplateStatistics 템플릿 통계
type TemplateStatistics struct {
	Total      int64            `json:"total"`
	Active     int64            `json:"active"`
	System     int64            `json:"system"`
	TotalUsage int64            `json:"total_usage"`
	ByCategory map[string]int64 `json:"by_category"`
}

// RuleInput 규칙 생성/수정 요청 본문
type RuleInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	TargetType  string `json:"target_type"`
	TargetID    *uint  `json:"target_id,omitempty"`
	TargetGroup string `json:"target_group,omitempty"`
	AlarmType   string `json:"alarm_type"`

	HighHighLimit *float64 `json:"high_high_limit,omitempty"`
	HighLimit     *float64 `json:"high_limit,omitempty"`
	LowLimit      *float64 `json:"low_limit,omitempty"`
	LowLowLimit   *float64 `json:"low_low_limit,omitempty"`
	Deadband      float64  `json:"deadband,omitempty"`
	RateOfChange  *float64 `json:"rate_of_change,omitempty"`

	TriggerCondition string `json:"trigger_condition,omitempty"`
	ConditionScript  string `json:"condition_script,omitempty"`
	MessageScript    string `json:"message_script,omitempty"`

	MessageConfig   JSONObject `json:"message_config,omitempty"`
	MessageTemplate string     `json:"message_template,omitempty"`

	Severity string `json:"severity,omitempty"`
	Priority int    `json:"priority,omitempty"`

	AutoAcknowledge       bool       `json:"auto_acknowledge,omitempty"`
	AcknowledgeTimeoutMin int        `json:"acknowledge_timeout_min,omitempty"`
	AutoClear             bool       `json:"auto_clear,omitempty"`
	SuppressionRules      JSONObject `json:"suppression_rules,omitempty"`

	NotificationEnabled           bool        `json:"notification_enabled,omitempty"`
	NotificationDelaySec          int         `json:"notification_delay_sec,omitempty"`
	NotificationRepeatIntervalMin int         `json:"notification_repeat_interval_min,omitempty"`
	NotificationChannels          ChannelList `json:"notification_channels,omitempty"`
	NotificationRecipients        StringList  `json:"notification_recipients,omitempty"`

	IsEnabled bool       `json:"is_enabled"`
	IsLatched bool       `json:"is_latched,omitempty"`
	Category  string     `json:"category,omitempty"`
	Tags      StringList `json:"tags,omitempty"`
}

// RuleSettingsPatch 규칙 통지/에스컬레이션 부분 수정 (nil = 미변경)
type RuleSettingsPatch struct {
	NotificationEnabled           *bool       `json:"notification_enabled,omitempty"`
	NotificationDelaySec          *int        `json:"notification_delay_sec,omitempty"`
	NotificationRepeatIntervalMin *int        `json:"notification_repeat_interval_min,omitempty"`
	NotificationChannels          ChannelList `json:"notification_channels,omitempty"`
	NotificationRecipients        StringList  `json:"notification_recipients,omitempty"`
	AutoAcknowledge               *bool       `json:"auto_acknowledge,omitempty"`
	AcknowledgeTimeoutMin         *int        `json:"acknowledge_timeout_min,omitempty"`
	AutoClear                     *bool       `json:"auto_clear,omitempty"`
}

// BulkRuleUpdate 규칙 일괄 수정 (nil 필드는 미변경)
type BulkRuleUpdate struct {
	IDs       []uint  `json:"ids"`
	IsEnabled *bool   `json:"is_enabled,omitempty"`
	Severity  *string `json:"severity,omitempty"`
	Category  *string `json:"category,omitempty"`
}

// BulkRuleResult 일괄 수정 결과
type BulkRuleResult struct {
	Updated int64 `json:"updated"`
}

// AcknowledgeRequest 알람 확인 요청
type AcknowledgeRequest struct {
	Comment string `json:"comment,omitempty"`
}

// ClearRequest 알람 해제 요청
type ClearRequest struct {
	Comment      string `json:"comment,omitempty"`
	ClearedValue string `json:"cleared_value,omitempty"`
}

// ApplyTemplateRequest 템플릿 일괄 적용 요청
type ApplyTemplateRequest struct {
	TargetIDs     []uint                `json:"target_ids"`
	TargetType    string                `json:"target_type,omitempty"`
	CustomConfigs map[string]JSONObject `json:"custom_configs,omitempty"` // key: target id (문자열)
	RuleGroupName string                `json:"rule_group_name,omitempty"`
}

// ApplyTemplateResult 템플릿 적용 결과
type ApplyTemplateResult struct {
	TemplateID   uint        `json:"template_id"`
	CreatedRules []AlarmRule `json:"created_rules"`
	Failed       []uint      `json:"failed,omitempty"`
}

// RegisterCollectorRequest 수집기 등록 요청
type RegisterCollectorRequest struct {
	ServerName  string `json:"server_name"`
	FactoryName string `json:"factory_name,omitempty"`
	Location    string `json:"location,omitempty"`
	IPAddress   string `json:"ip_address"`
	Port        int    `json:"port,omitempty"`
	Version     string `json:"version,omitempty"`
}
