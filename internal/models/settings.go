package models

import "time"

// 시스템 설정 카테고리 (닫힌 집합, PUT 시 검증)
var SettingCategories = []string{
	"general", "database", "collection", "notifications",
	"security", "performance", "logging",
}

func ValidSettingCategory(c string) bool {
	for _, v := range SettingCategories {
		if c == v {
			return true
		}
	}
	return false
}

// SettingSection 카테고리별 시스템 설정 (JSON 1 row per category)
type SettingSection struct {
	Category  string    `gorm:"primaryKey;size:50" json:"category"`
	Settings  string    `gorm:"type:text;not null" json:"settings"` // JSON object
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy uint      `gorm:"default:0" json:"updated_by"`
}

func (SettingSection) TableName() string {
	return "system_settings"
}
