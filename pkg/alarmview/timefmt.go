package alarmview

import (
	"fmt"
	"time"
)

// RelativeTime 목록 화면의 "N분 전" 표기
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Minute:
		return "방금 전"
	case d < time.Hour:
		return fmt.Sprintf("%d분 전", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d시간 전", int(d.Hours()))
	default:
		return fmt.Sprintf("%d일 전", int(d.Hours()/24))
	}
}

// FormatDuration 알람 지속 시간 표기 ("3일 4시간", "2시간 35분", "45초")
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%d일 %d시간", days, hours)
	case hours > 0:
		return fmt.Sprintf("%d시간 %d분", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%d분 %d초", minutes, seconds)
	default:
		return fmt.Sprintf("%d초", seconds)
	}
}
