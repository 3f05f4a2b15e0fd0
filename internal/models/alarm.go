package models

import "time"

// 알람 심각도 (낮음 → 높음 순서)
const (
	SeverityInfo     = "info"
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// 알람 규칙 유형
const (
	AlarmTypeAnalog  = "analog"  // threshold based
	AlarmTypeDigital = "digital" // boolean state based
	AlarmTypeScript  = "script"  // JavaScript condition
)

// 알람 대상 유형
const (
	TargetDataPoint    = "data_point"
	TargetVirtualPoint = "virtual_point"
	TargetDevice       = "device"
	TargetGroup        = "group"
)

// 디지털 알람 트리거 조건
const (
	TriggerOnTrue    = "on_true"
	TriggerOnFalse   = "on_false"
	TriggerOnChange  = "on_change"
	TriggerOnRising  = "on_rising"
	TriggerOnFalling = "on_falling"
)

// 알람 발생 상태 전이: active → acknowledged → cleared (ack 생략 가능)
const (
	StateActive       = "active"
	StateAcknowledged = "acknowledged"
	StateCleared      = "cleared"
)

var Severities = []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// ValidSeverity reports whether s is one of the closed severity values.
func ValidSeverity(s string) bool {
	for _, v := range Severities {
		if s == v {
			return true
		}
	}
	return false
}

func ValidAlarmType(t string) bool {
	return t == AlarmTypeAnalog || t == AlarmTypeDigital || t == AlarmTypeScript
}

func ValidTargetType(t string) bool {
	switch t {
	case TargetDataPoint, TargetVirtualPoint, TargetDevice, TargetGroup:
		return true
	}
	return false
}

// AlarmRule 알람 규칙 정의 (수집기가 평가, 콘솔이 관리)
type AlarmRule struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TenantID    uint   `gorm:"default:1;index" json:"tenant_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	TargetType    string  `gorm:"size:20;not null" json:"target_type"` // data_point, virtual_point, device, group
	TargetID      *uint   `json:"target_id"`
	TargetGroup   string  `gorm:"size:255" json:"target_group"`
	TargetDisplay string  `gorm:"size:255" json:"target_display"` // denormalized label, server computed
	AlarmType     string  `gorm:"size:20;not null" json:"alarm_type"` // analog, digital, script

	// Analog thresholds: low_low <= low <= high <= high_high
	HighHighLimit *float64 `json:"high_high_limit"`
	HighLimit     *float64 `json:"high_limit"`
	LowLimit      *float64 `json:"low_limit"`
	LowLowLimit   *float64 `json:"low_low_limit"`
	Deadband      float64  `gorm:"default:0" json:"deadband"`
	RateOfChange  *float64 `json:"rate_of_change"`

	// Digital
	TriggerCondition string `gorm:"size:20" json:"trigger_condition"` // on_true, on_false, on_change, on_rising, on_falling

	// Script
	ConditionScript string `gorm:"type:text" json:"condition_script"`
	MessageScript   string `gorm:"type:text" json:"message_script"`

	MessageConfig   string `gorm:"type:text" json:"message_config"` // JSON string
	MessageTemplate string `gorm:"type:text" json:"message_template"`

	Severity string `gorm:"size:20;default:medium;index" json:"severity"`
	Priority int    `gorm:"default:100" json:"priority"` // lower value fires first

	AutoAcknowledge       bool `gorm:"default:false" json:"auto_acknowledge"`
	AcknowledgeTimeoutMin int  `gorm:"default:0" json:"acknowledge_timeout_min"`
	AutoClear             bool `gorm:"default:true" json:"auto_clear"`
	SuppressionRules      string `gorm:"type:text" json:"suppression_rules"` // JSON string

	NotificationEnabled           bool   `gorm:"default:true" json:"notification_enabled"`
	NotificationDelaySec          int    `gorm:"default:0" json:"notification_delay_sec"`
	NotificationRepeatIntervalMin int    `gorm:"default:0" json:"notification_repeat_interval_min"`
	NotificationChannels          string `gorm:"type:text" json:"notification_channels"` // JSON array
	NotificationRecipients        string `gorm:"type:text" json:"notification_recipients"` // JSON array

	IsEnabled bool   `gorm:"default:true;index" json:"is_enabled"`
	IsLatched bool   `gorm:"default:false" json:"is_latched"`
	Category  string `gorm:"size:50;index" json:"category"`
	Tags      string `gorm:"type:text" json:"tags"` // JSON array

	TemplateID *uint  `gorm:"index" json:"template_id"` // source template when created via apply
	CreatedBy  uint   `gorm:"default:0" json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (AlarmRule) TableName() string {
	return "alarm_rules"
}

// AlarmOccurrence 알람 발생 이력 (규칙 평가 결과 1건)
type AlarmOccurrence struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	RuleID   uint `gorm:"not null;index" json:"rule_id"`
	TenantID uint `gorm:"default:1;index" json:"tenant_id"`

	// denormalized for list views
	RuleName      string `gorm:"size:255" json:"rule_name"`
	DeviceID      string `gorm:"size:64;index" json:"device_id"`
	DeviceName    string `gorm:"size:255" json:"device_name"`
	DataPointName string `gorm:"size:255" json:"data_point_name"`

	OccurrenceTime   time.Time `gorm:"index" json:"occurrence_time"`
	TriggerValue     string    `gorm:"type:text" json:"trigger_value"`
	TriggerCondition string    `gorm:"size:100" json:"trigger_condition"`
	AlarmMessage     string    `gorm:"type:text" json:"alarm_message"`
	Severity         string    `gorm:"size:20;index" json:"severity"`
	State            string    `gorm:"size:20;default:active;index" json:"state"` // active, acknowledged, cleared

	AcknowledgedTime   *time.Time `json:"acknowledged_time"`
	AcknowledgedBy     *uint      `json:"acknowledged_by"`
	AcknowledgeComment string     `gorm:"type:text" json:"acknowledge_comment"`

	ClearedTime  *time.Time `json:"cleared_time"`
	ClearedValue string     `gorm:"type:text" json:"cleared_value"`
	ClearComment string     `gorm:"type:text" json:"clear_comment"`

	NotificationSent   bool       `gorm:"default:false" json:"notification_sent"`
	NotificationTime   *time.Time `json:"notification_time"`
	NotificationCount  int        `gorm:"default:0" json:"notification_count"`
	NotificationResult string     `gorm:"type:text" json:"notification_result"` // JSON string

	ContextData string `gorm:"type:text" json:"context_data"` // JSON string
	SourceName  string `gorm:"size:255" json:"source_name"`
	Location    string `gorm:"size:255" json:"location"`
	Category    string `gorm:"size:50;index" json:"category"`
	Tags        string `gorm:"type:text" json:"tags"` // JSON array

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Rule AlarmRule `gorm:"foreignKey:RuleID" json:"rule,omitempty"`
}

func (AlarmOccurrence) TableName() string {
	return "alarm_occurrences"
}
