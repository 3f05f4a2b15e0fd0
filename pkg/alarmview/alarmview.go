// Package alarmview 알람 목록 화면용 클라이언트측 질의/표시 도우미.
// 이미 받아온 목록에 대한 필터/정렬과 표시 문자열 유도를 담당하며
// 서버 호출은 하지 않는다.
package alarmview

import (
	"sort"
	"strings"

	"pulseone-console/pkg/client"
)

// 정렬 방향
const (
	ASC  = "ASC"
	DESC = "DESC"
)

// 정렬 키
const (
	SortByOccurrenceTime = "occurrence_time"
	SortBySeverity       = "severity"
	SortByRuleName       = "rule_name"
	SortByState          = "state"
	SortByCategory       = "category"
)

// Filter 알람 발생 목록 필터. 빈 문자열 조건은 모두 통과.
// 모든 조건은 AND로 결합된다.
type Filter struct {
	Search   string // rule_name/message/device/data_point/category 부분 일치 (대소문자 무시)
	Severity string // 정확히 일치
	State    string // 정확히 일치
	DeviceID string // 정확히 일치
	Category string // 정확히 일치
	Tag      string // tags 원소 부분 일치 (대소문자 무시)
}

// FilterAlarms 조건에 맞는 알람만 남긴 새 슬라이스 반환
func FilterAlarms(alarms []client.AlarmOccurrence, f Filter) []client.AlarmOccurrence {
	out := make([]client.AlarmOccurrence, 0, len(alarms))
	for _, a := range alarms {
		if matchAlarm(a, f) {
			out = append(out, a)
		}
	}
	return out
}

func matchAlarm(a client.AlarmOccurrence, f Filter) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !containsFold(a.RuleName, needle) &&
			!containsFold(a.AlarmMessage, needle) &&
			!containsFold(a.DeviceName, needle) &&
			!containsFold(a.DataPointName, needle) &&
			!containsFold(a.Category, needle) {
			return false
		}
	}

	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if f.State != "" && a.State != f.State {
		return false
	}
	if f.DeviceID != "" && a.DeviceID != f.DeviceID {
		return false
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}

	if f.Tag != "" {
		needle := strings.ToLower(f.Tag)
		found := false
		for _, tag := range a.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// containsFold 소문자 변환 후 부분 일치. needle은 이미 소문자.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// SortAlarms 안정 정렬 (in place). dir이 DESC면 비교 부호 반전.
func SortAlarms(alarms []client.AlarmOccurrence, key, dir string) {
	desc := strings.EqualFold(dir, DESC)

	sort.SliceStable(alarms, func(i, j int) bool {
		c := compareAlarms(alarms[i], alarms[j], key)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareAlarms(a, b client.AlarmOccurrence, key string) int {
	switch key {
	case SortBySeverity:
		return SeverityRank(a.Severity) - SeverityRank(b.Severity)
	case SortByRuleName:
		return strings.Compare(a.RuleName, b.RuleName)
	case SortByState:
		return strings.Compare(a.State, b.State)
	case SortByCategory:
		return strings.Compare(a.Category, b.Category)
	default: // occurrence_time
		ta, tb := a.OccurrenceTime.UnixMilli(), b.OccurrenceTime.UnixMilli()
		switch {
		case ta < tb:
			return -1
		case ta > tb:
			return 1
		}
		return 0
	}
}

// RuleFilter 규칙 목록 필터. Filter와 같은 결합 규칙.
type RuleFilter struct {
	Search    string // name/description/target_display/category 부분 일치
	Severity  string
	AlarmType string
	Category  string
	Enabled   *bool
	Tag       string
}

// FilterRules 조건에 맞는 규칙만 남긴 새 슬라이스 반환
func FilterRules(rules []client.AlarmRule, f RuleFilter) []client.AlarmRule {
	out := make([]client.AlarmRule, 0, len(rules))
	for _, r := range rules {
		if matchRule(r, f) {
			out = append(out, r)
		}
	}
	return out
}

func matchRule(r client.AlarmRule, f RuleFilter) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !containsFold(r.Name, needle) &&
			!containsFold(r.Description, needle) &&
			!containsFold(r.TargetDisplay, needle) &&
			!containsFold(r.Category, needle) {
			return false
		}
	}

	if f.Severity != "" && r.Severity != f.Severity {
		return false
	}
	if f.AlarmType != "" && r.AlarmType != f.AlarmType {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Enabled != nil && r.IsEnabled != *f.Enabled {
		return false
	}

	if f.Tag != "" {
		needle := strings.ToLower(f.Tag)
		found := false
		for _, tag := range r.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
