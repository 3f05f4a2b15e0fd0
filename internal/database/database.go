package database

import (
	"fmt"
	"time"

	"pulseone-console/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

var DB *gorm.DB

func InitDB(config Config) error {
	var dialector gorm.Dialector

	switch config.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			config.User, config.Password, config.Host, config.Port, config.DBName)
		dialector = mysql.Open(dsn)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(config.DBName)
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetMaxOpenConns(200)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	DB = db

	if err := DB.AutoMigrate(
		&models.AlarmRule{},
		&models.AlarmOccurrence{},
		&models.AlarmTemplate{},
		&models.Collector{},
		&models.SettingSection{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := seedSystemTemplates(); err != nil {
		return fmt.Errorf("failed to seed system templates: %w", err)
	}

	if err := seedDefaultSettings(); err != nil {
		return fmt.Errorf("failed to seed default settings: %w", err)
	}

	return nil
}

// seedSystemTemplates 시스템 기본 템플릿 시딩 (최초 1회)
func seedSystemTemplates() error {
	var count int64
	if err := DB.Model(&models.AlarmTemplate{}).Where("is_system_template = ?", true).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	templates := []models.AlarmTemplate{
		{
			Name:                "고온 경보",
			Description:         "온도 상한 초과 감시 표준 템플릿",
			Category:            "temperature",
			ConditionType:       "threshold",
			DefaultConfig:       `{"high_high_limit":95,"high_limit":80,"deadband":2}`,
			Severity:            models.SeverityHigh,
			MessageTemplate:     "{{device_name}} {{point_name}} 온도 {{value}}°C 초과",
			ApplicableDataTypes: `["float","double","int"]`,
			NotificationEnabled: true,
			IsActive:            true,
			IsSystemTemplate:    true,
			Tags:                `["temperature","threshold"]`,
		},
		{
			Name:                "압력 범위 이탈",
			Description:         "압력 상/하한 동시 감시 표준 템플릿",
			Category:            "pressure",
			ConditionType:       "threshold",
			DefaultConfig:       `{"high_limit":8.5,"low_limit":1.5,"deadband":0.2}`,
			Severity:            models.SeverityCritical,
			MessageTemplate:     "{{device_name}} 압력 {{value}}bar 허용범위 이탈",
			ApplicableDataTypes: `["float","double"]`,
			NotificationEnabled: true,
			IsActive:            true,
			IsSystemTemplate:    true,
			Tags:                `["pressure","threshold"]`,
		},
		{
			Name:                "진동 임계 초과",
			Description:         "설비 진동 경고/위험 2단계 감시",
			Category:            "vibration",
			ConditionType:       "threshold",
			DefaultConfig:       `{"high_high_limit":7.1,"high_limit":4.5,"deadband":0.3}`,
			Severity:            models.SeverityHigh,
			MessageTemplate:     "{{device_name}} 진동 {{value}}mm/s 임계 초과",
			ApplicableDataTypes: `["float","double"]`,
			ApplicableDeviceTypes: `["motor","pump","fan"]`,
			NotificationEnabled: true,
			IsActive:            true,
			IsSystemTemplate:    true,
			Tags:                `["vibration","threshold"]`,
		},
		{
			Name:                "설비 정지 감지",
			Description:         "디지털 상태 false 전환 시 알람",
			Category:            "general",
			ConditionType:       "digital",
			DefaultConfig:       `{"trigger_condition":"on_falling"}`,
			Severity:            models.SeverityMedium,
			MessageTemplate:     "{{device_name}} 가동 정지 감지",
			ApplicableDataTypes: `["bool"]`,
			NotificationEnabled: true,
			IsActive:            true,
			IsSystemTemplate:    true,
			Tags:                `["digital","downtime"]`,
		},
	}

	for _, tpl := range templates {
		if err := DB.Create(&tpl).Error; err != nil {
			return err
		}
	}

	return nil
}

// seedDefaultSettings 카테고리별 기본 설정 시딩 (없는 카테고리만)
func seedDefaultSettings() error {
	defaults := map[string]string{
		"general":       `{"platform_name":"PulseOne","language":"ko","timezone":"Asia/Seoul"}`,
		"database":      `{"backup_enabled":true,"backup_interval_hours":24,"retention_days":90}`,
		"collection":    `{"default_poll_interval_ms":1000,"batch_size":500,"buffer_limit":10000}`,
		"notifications": `{"email_enabled":false,"webhook_enabled":true,"quiet_hours":null}`,
		"security":      `{"session_timeout_min":60,"password_expiry_days":90,"mfa_required":false}`,
		"performance":   `{"max_concurrent_queries":32,"cache_ttl_sec":300}`,
		"logging":       `{"level":"info","retention_days":30,"audit_enabled":true}`,
	}

	for _, category := range models.SettingCategories {
		var count int64
		if err := DB.Model(&models.SettingSection{}).Where("category = ?", category).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		section := models.SettingSection{
			Category: category,
			Settings: defaults[category],
		}
		if err := DB.Create(&section).Error; err != nil {
			return err
		}
	}

	return nil
}

func GetDB() *gorm.DB {
	return DB
}
