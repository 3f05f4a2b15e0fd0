package models

import "time"

// AlarmTemplate 알람 규칙 템플릿 (여러 대상에 일괄 적용)
type AlarmTemplate struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:50;index" json:"category"`

	ConditionType   string `gorm:"size:20" json:"condition_type"` // threshold, digital, script
	DefaultConfig   string `gorm:"type:text" json:"default_config"` // JSON: limits, deadband, trigger
	Severity        string `gorm:"size:20;default:medium" json:"severity"`
	MessageTemplate string `gorm:"type:text" json:"message_template"`

	ApplicableDataTypes   string `gorm:"type:text" json:"applicable_data_types"`   // JSON array
	ApplicableDeviceTypes string `gorm:"type:text" json:"applicable_device_types"` // JSON array

	NotificationEnabled bool `gorm:"default:true" json:"notification_enabled"`
	IsActive            bool `gorm:"default:true;index" json:"is_active"`
	IsSystemTemplate    bool `gorm:"default:false" json:"is_system_template"` // seeded, not deletable
	UsageCount          int  `gorm:"default:0" json:"usage_count"`

	Tags      string `gorm:"type:text" json:"tags"` // JSON array
	CreatedBy uint   `gorm:"default:0" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AlarmTemplate) TableName() string {
	return "alarm_templates"
}
