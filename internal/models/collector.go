package models

import (
	"fmt"
	"time"
)

// 수집기 상태
const (
	CollectorOnline      = "online"
	CollectorOffline     = "offline"
	CollectorError       = "error"
	CollectorMaintenance = "maintenance" // manual, watcher never overrides
)

// Collector 공장 현장의 엣지 수집 서버 등록 정보
type Collector struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TenantID    uint   `gorm:"default:1;index" json:"tenant_id"`
	ServerName  string `gorm:"size:255;not null" json:"server_name"`
	FactoryName string `gorm:"size:255" json:"factory_name"`
	Location    string `gorm:"size:255" json:"location"`

	IPAddress string `gorm:"size:64" json:"ip_address"`
	Port      int    `gorm:"default:8080" json:"port"`

	RegistrationToken string     `gorm:"size:64;uniqueIndex" json:"registration_token"`
	Status            string     `gorm:"size:20;default:offline;index" json:"status"` // online, offline, error, maintenance
	LastSeen          *time.Time `json:"last_seen"`
	Version           string     `gorm:"size:50" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Collector) TableName() string {
	return "edge_servers"
}

// Endpoint 수집기 REST 베이스 URL
func (c *Collector) Endpoint() string {
	return fmt.Sprintf("http://%s:%d", c.IPAddress, c.Port)
}
