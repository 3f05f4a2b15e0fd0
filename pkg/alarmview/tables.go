package alarmview

import "fmt"

// CategoryInfo 카테고리 표시 정보
type CategoryInfo struct {
	Name  string // canonical key
	Label string // 한글 표시명
	Color string // hex
}

// 닫힌 카테고리 테이블. 새 카테고리 추가는 여기 한 곳만 고치면 된다.
var categoryTable = map[string]CategoryInfo{
	"temperature": {Name: "temperature", Label: "온도", Color: "#ef4444"},
	"pressure":    {Name: "pressure", Label: "압력", Color: "#3b82f6"},
	"flow":        {Name: "flow", Label: "유량", Color: "#06b6d4"},
	"level":       {Name: "level", Label: "레벨", Color: "#8b5cf6"},
	"vibration":   {Name: "vibration", Label: "진동", Color: "#f59e0b"},
	"electrical":  {Name: "electrical", Label: "전기", Color: "#eab308"},
	"safety":      {Name: "safety", Label: "안전", Color: "#dc2626"},
	"general":     {Name: "general", Label: "일반", Color: "#6b7280"},
}

var categoryOrder = []string{
	"temperature", "pressure", "flow", "level",
	"vibration", "electrical", "safety", "general",
}

// CategoryDisplayName 알려진 카테고리는 한글 표시명, 모르는 값은 그대로 반환
func CategoryDisplayName(category string) string {
	if info, ok := categoryTable[category]; ok {
		return info.Label
	}
	return category
}

// CategoryColor 모르는 카테고리는 general 색으로
func CategoryColor(category string) string {
	if info, ok := categoryTable[category]; ok {
		return info.Color
	}
	return categoryTable["general"].Color
}

// Categories 선택 UI용 고정 순서 목록
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(categoryOrder))
	for _, name := range categoryOrder {
		out = append(out, categoryTable[name])
	}
	return out
}

// SeverityInfo 심각도 표시 정보
type SeverityInfo struct {
	Name  string
	Label string
	Color string
	Rank  int
}

var severityTable = map[string]SeverityInfo{
	"critical": {Name: "critical", Label: "심각", Color: "#dc2626", Rank: 5},
	"high":     {Name: "high", Label: "높음", Color: "#f97316", Rank: 4},
	"medium":   {Name: "medium", Label: "중간", Color: "#f59e0b", Rank: 3},
	"low":      {Name: "low", Label: "낮음", Color: "#3b82f6", Rank: 2},
	"info":     {Name: "info", Label: "정보", Color: "#6b7280", Rank: 1},
}

// SeverityRank 정렬용 순위. 모르는 값은 0 (최하).
func SeverityRank(severity string) int {
	if info, ok := severityTable[severity]; ok {
		return info.Rank
	}
	return 0
}

func SeverityDisplayName(severity string) string {
	if info, ok := severityTable[severity]; ok {
		return info.Label
	}
	return severity
}

func SeverityColor(severity string) string {
	if info, ok := severityTable[severity]; ok {
		return info.Color
	}
	return "#6b7280"
}

// StateInfo 발생 상태 표시 정보
type StateInfo struct {
	Name  string
	Label string
	Color string
}

var stateTable = map[string]StateInfo{
	"active":       {Name: "active", Label: "활성", Color: "#ef4444"},
	"acknowledged": {Name: "acknowledged", Label: "확인됨", Color: "#f59e0b"},
	"cleared":      {Name: "cleared", Label: "해제됨", Color: "#10b981"},
}

func StateDisplayName(state string) string {
	if info, ok := stateTable[state]; ok {
		return info.Label
	}
	return state
}

func StateColor(state string) string {
	if info, ok := stateTable[state]; ok {
		return info.Color
	}
	return "#6b7280"
}

// TagColor 태그 문자열의 결정적 색상.
// charCode*31 롤링 해시를 360으로 접어 HSL hue로 쓴다.
// 같은 태그는 항상 같은 색이 된다.
func TagColor(tag string) string {
	hash := 0
	for _, r := range tag {
		hash = hash*31 + int(r)
	}
	hue := hash % 360
	if hue < 0 {
		hue += 360
	}
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", hue)
}
