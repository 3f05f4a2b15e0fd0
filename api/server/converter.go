package server

import (
	"encoding/json"

	"pulseone-console/internal/models"
	"pulseone-console/pkg/alarmview"
	"pulseone-console/pkg/client"
)

// DB text 컬럼(JSON 직렬화 문자열)을 wire 표현의 배열/객체로 풀어준다.
// 깨진 JSON은 빈 값으로 처리한다.

func decodeStringList(raw string) client.StringList {
	if raw == "" || raw == "[]" || raw == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

func decodeObject(raw string) client.JSONObject {
	if raw == "" || raw == "{}" || raw == "null" {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil
	}
	return obj
}

func decodeChannels(raw string) client.ChannelList {
	if raw == "" || raw == "[]" || raw == "null" {
		return nil
	}
	var channels client.ChannelList
	if err := json.Unmarshal([]byte(raw), &channels); err != nil {
		return nil
	}
	return channels
}

func encodeJSON(v interface{}, fallback string) string {
	if v == nil {
		return fallback
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(data)
}

func toWireRule(m models.AlarmRule) client.AlarmRule {
	r := client.AlarmRule{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Description: m.Description,

		TargetType:    m.TargetType,
		TargetID:      m.TargetID,
		TargetGroup:   m.TargetGroup,
		TargetDisplay: m.TargetDisplay,
		AlarmType:     m.AlarmType,

		HighHighLimit: m.HighHighLimit,
		HighLimit:     m.HighLimit,
		LowLimit:      m.LowLimit,
		LowLowLimit:   m.LowLowLimit,
		Deadband:      m.Deadband,
		RateOfChange:  m.RateOfChange,

		TriggerCondition: m.TriggerCondition,
		ConditionScript:  m.ConditionScript,
		MessageScript:    m.MessageScript,

		MessageConfig:   decodeObject(m.MessageConfig),
		MessageTemplate: m.MessageTemplate,

		Severity: m.Severity,
		Priority: m.Priority,

		AutoAcknowledge:       m.AutoAcknowledge,
		AcknowledgeTimeoutMin: m.AcknowledgeTimeoutMin,
		AutoClear:             m.AutoClear,
		SuppressionRules:      decodeObject(m.SuppressionRules),

		NotificationEnabled:           m.NotificationEnabled,
		NotificationDelaySec:          m.NotificationDelaySec,
		NotificationRepeatIntervalMin: m.NotificationRepeatIntervalMin,
		NotificationChannels:          decodeChannels(m.NotificationChannels),
		NotificationRecipients:        decodeStringList(m.NotificationRecipients),

		IsEnabled:  m.IsEnabled,
		IsLatched:  m.IsLatched,
		Category:   m.Category,
		Tags:       decodeStringList(m.Tags),
		TemplateID: m.TemplateID,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}

	r.ConditionDisplay = alarmview.ConditionDisplay(r)
	return r
}

func toWireRules(ms []models.AlarmRule) []client.AlarmRule {
	out := make([]client.AlarmRule, 0, len(ms))
	for _, m := range ms {
		out = append(out, toWireRule(m))
	}
	return out
}

func toWireOccurrence(m models.AlarmOccurrence) client.AlarmOccurrence {
	return client.AlarmOccurrence{
		ID:       m.ID,
		RuleID:   m.RuleID,
		TenantID: m.TenantID,

		RuleName:      m.RuleName,
		DeviceID:      m.DeviceID,
		DeviceName:    m.DeviceName,
		DataPointName: m.DataPointName,

		OccurrenceTime:   m.OccurrenceTime,
		TriggerValue:     m.TriggerValue,
		TriggerCondition: m.TriggerCondition,
		AlarmMessage:     m.AlarmMessage,
		Severity:         m.Severity,
		State:            m.State,

		AcknowledgedTime:   m.AcknowledgedTime,
		AcknowledgedBy:     m.AcknowledgedBy,
		AcknowledgeComment: m.AcknowledgeComment,

		ClearedTime:  m.ClearedTime,
		ClearedValue: m.ClearedValue,
		ClearComment: m.ClearComment,

		SourceName: m.SourceName,
		Location:   m.Location,
		Category:   m.Category,
		Tags:       decodeStringList(m.Tags),

		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toWireOccurrences(ms []models.AlarmOccurrence) []client.AlarmOccurrence {
	out := make([]client.AlarmOccurrence, 0, len(ms))
	for _, m := range ms {
		out = append(out, toWireOccurrence(m))
	}
	return out
}

func toWireTemplate(m models.AlarmTemplate) client.AlarmTemplate {
	return client.AlarmTemplate{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,

		ConditionType:   m.ConditionType,
		DefaultConfig:   decodeObject(m.DefaultConfig),
		Severity:        m.Severity,
		MessageTemplate: m.MessageTemplate,

		ApplicableDataTypes:   decodeStringList(m.ApplicableDataTypes),
		ApplicableDeviceTypes: decodeStringList(m.ApplicableDeviceTypes),

		NotificationEnabled: m.NotificationEnabled,
		IsActive:            m.IsActive,
		IsSystemTemplate:    m.IsSystemTemplate,
		UsageCount:          m.UsageCount,

		Tags:      decodeStringList(m.Tags),
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toWireTemplates(ms []models.AlarmTemplate) []client.AlarmTemplate {
	out := make([]client.AlarmTemplate, 0, len(ms))
	for _, m := range ms {
		out = append(out, toWireTemplate(m))
	}
	return out
}

// toWireCollector 등록 토큰은 등록 응답에서만 노출된다
func toWireCollector(m models.Collector, includeToken bool) client.Collector {
	c := client.Collector{
		ID:          m.ID,
		TenantID:    m.TenantID,
		ServerName:  m.ServerName,
		FactoryName: m.FactoryName,
		Location:    m.Location,

		IPAddress: m.IPAddress,
		Port:      m.Port,
		Endpoint:  m.Endpoint(),

		Status:   m.Status,
		LastSeen: m.LastSeen,
		Version:  m.Version,

		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if includeToken {
		c.RegistrationToken = m.RegistrationToken
	}
	return c
}

func toWireCollectors(ms []models.Collector) []client.Collector {
	out := make([]client.Collector, 0, len(ms))
	for _, m := range ms {
		out = append(out, toWireCollector(m, false))
	}
	return out
}

// ruleFromInput 요청 본문을 DB 모델로 변환.
// 배열/객체 필드는 text 컬럼용 JSON 문자열로 직렬화한다.
func ruleFromInput(in client.RuleInput) *models.AlarmRule {
	rule := &models.AlarmRule{
		Name:        in.Name,
		Description: in.Description,

		TargetType:  in.TargetType,
		TargetID:    in.TargetID,
		TargetGroup: in.TargetGroup,
		AlarmType:   in.AlarmType,

		HighHighLimit: in.HighHighLimit,
		HighLimit:     in.HighLimit,
		LowLimit:      in.LowLimit,
		LowLowLimit:   in.LowLowLimit,
		Deadband:      in.Deadband,
		RateOfChange:  in.RateOfChange,

		TriggerCondition: in.TriggerCondition,
		ConditionScript:  in.ConditionScript,
		MessageScript:    in.MessageScript,

		MessageTemplate: in.MessageTemplate,

		Severity: in.Severity,
		Priority: in.Priority,

		AutoAcknowledge:       in.AutoAcknowledge,
		AcknowledgeTimeoutMin: in.AcknowledgeTimeoutMin,
		AutoClear:             in.AutoClear,

		NotificationEnabled:           in.NotificationEnabled,
		NotificationDelaySec:          in.NotificationDelaySec,
		NotificationRepeatIntervalMin: in.NotificationRepeatIntervalMin,

		IsEnabled: in.IsEnabled,
		IsLatched: in.IsLatched,
		Category:  in.Category,
	}

	if in.MessageConfig != nil {
		rule.MessageConfig = encodeJSON(in.MessageConfig, "{}")
	}
	if in.SuppressionRules != nil {
		rule.SuppressionRules = encodeJSON(in.SuppressionRules, "{}")
	}
	if in.NotificationChannels != nil {
		rule.NotificationChannels = encodeJSON(in.NotificationChannels, "[]")
	}
	if in.NotificationRecipients != nil {
		rule.NotificationRecipients = encodeJSON(in.NotificationRecipients, "[]")
	}
	if in.Tags != nil {
		rule.Tags = encodeJSON(in.Tags, "[]")
	}

	return rule
}

func templateFromInput(in client.TemplateInput) *models.AlarmTemplate {
	tpl := &models.AlarmTemplate{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,

		ConditionType:   in.ConditionType,
		Severity:        in.Severity,
		MessageTemplate: in.MessageTemplate,

		NotificationEnabled: in.NotificationEnabled,
		IsActive:            in.IsActive,
	}

	if in.DefaultConfig != nil {
		tpl.DefaultConfig = encodeJSON(in.DefaultConfig, "{}")
	}
	if in.ApplicableDataTypes != nil {
		tpl.ApplicableDataTypes = encodeJSON(in.ApplicableDataTypes, "[]")
	}
	if in.ApplicableDeviceTypes != nil {
		tpl.ApplicableDeviceTypes = encodeJSON(in.ApplicableDeviceTypes, "[]")
	}
	if in.Tags != nil {
		tpl.Tags = encodeJSON(in.Tags, "[]")
	}

	return tpl
}
