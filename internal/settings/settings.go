// Package settings 카테고리 단위 시스템 설정 관리.
// 설정은 카테고리당 1행의 JSON 오브젝트로 저장되고,
// 갱신은 카테고리 전체 교체 + 나머지 카테고리 유지로 동작한다.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pulseone-console/internal/logger"
	"pulseone-console/internal/models"
)

var ErrUnknownCategory = errors.New("unknown setting category")

type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	auditDir string
}

func NewService(db *gorm.DB, log *zap.Logger, auditDir string) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, logger: log, auditDir: auditDir}
}

// Get 전체 카테고리를 하나의 맵으로 조립
func (s *Service) Get(ctx context.Context) (map[string]json.RawMessage, error) {
	var sections []models.SettingSection
	if err := s.db.WithContext(ctx).Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	out := make(map[string]json.RawMessage, len(sections))
	for _, section := range sections {
		raw := section.Settings
		if raw == "" {
			raw = "{}"
		}
		if !json.Valid([]byte(raw)) {
			s.logger.Warn("stored settings are not valid JSON, substituting empty object",
				zap.String("category", section.Category))
			raw = "{}"
		}
		out[section.Category] = json.RawMessage(raw)
	}
	return out, nil
}

// Update 요청에 담긴 카테고리만 교체한다.
// 모르는 카테고리가 하나라도 있으면 전체를 거부한다.
func (s *Service) Update(ctx context.Context, patch map[string]json.RawMessage, actor uint) (map[string]json.RawMessage, error) {
	if len(patch) == 0 {
		return s.Get(ctx)
	}

	for category, raw := range patch {
		if !models.ValidSettingCategory(category) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("settings for category %q must be a JSON object: %w", category, err)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for category, raw := range patch {
			section := models.SettingSection{
				Category:  category,
				Settings:  string(raw),
				UpdatedBy: actor,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "category"}},
				DoUpdates: clause.AssignmentColumns([]string{"settings", "updated_at", "updated_by"}),
			}).Create(&section).Error
			if err != nil {
				return fmt.Errorf("failed to save settings for %q: %w", category, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.writeAudit(patch, actor)

	return s.Get(ctx)
}

func (s *Service) writeAudit(patch map[string]json.RawMessage, actor uint) {
	if s.auditDir == "" {
		return
	}

	categories := make([]string, 0, len(patch))
	for category := range patch {
		categories = append(categories, category)
	}

	entry := &logger.AuditEntry{
		Actor:    actor,
		Action:   "update",
		Resource: "system_settings",
		Detail:   map[string]interface{}{"categories": categories},
	}
	if err := logger.WriteAudit(s.auditDir, entry); err != nil {
		s.logger.Warn("failed to write settings audit entry", zap.Error(err))
	}
}
