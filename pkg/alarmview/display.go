package alarmview

import (
	"fmt"
	"strconv"
	"strings"

	"pulseone-console/pkg/client"
)

// TargetDisplay 규칙 대상 표시 문자열.
// 서버 계산값이 있으면 그대로 쓰고, 없으면
// device_name → data_point_name → virtual_point_name → "{type} #{id}" 순서로 유도.
func TargetDisplay(r client.AlarmRule) string {
	if r.TargetDisplay != "" {
		return r.TargetDisplay
	}
	if r.DeviceName != "" {
		return r.DeviceName
	}
	if r.DataPointName != "" {
		return r.DataPointName
	}
	if r.VirtualPointName != "" {
		return r.VirtualPointName
	}
	if r.TargetID != nil {
		return fmt.Sprintf("%s #%d", r.TargetType, *r.TargetID)
	}
	if r.TargetGroup != "" {
		return r.TargetGroup
	}
	return r.TargetType
}

// ConditionDisplay 임계값 요약 문자열.
// "HH: v | H: v | L: v | LL: v" 고정 순서, 없는 값은 생략.
// 임계값이 하나도 없으면 alarm_type 그대로.
func ConditionDisplay(r client.AlarmRule) string {
	if r.ConditionDisplay != "" {
		return r.ConditionDisplay
	}

	parts := make([]string, 0, 4)
	if r.HighHighLimit != nil {
		parts = append(parts, "HH: "+formatLimit(*r.HighHighLimit))
	}
	if r.HighLimit != nil {
		parts = append(parts, "H: "+formatLimit(*r.HighLimit))
	}
	if r.LowLimit != nil {
		parts = append(parts, "L: "+formatLimit(*r.LowLimit))
	}
	if r.LowLowLimit != nil {
		parts = append(parts, "LL: "+formatLimit(*r.LowLowLimit))
	}

	if len(parts) == 0 {
		return r.AlarmType
	}
	return strings.Join(parts, " | ")
}

// formatLimit 소수부가 없으면 정수로 표기 (80.0 → "80")
func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
