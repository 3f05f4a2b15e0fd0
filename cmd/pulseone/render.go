package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"pulseone-console/pkg/alarmview"
	"pulseone-console/pkg/client"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// truncate 표 칸 폭 제한. 메시지처럼 긴 필드에만 쓴다.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func printAlarmTable(alarms []client.AlarmOccurrence) {
	if len(alarms) == 0 {
		fmt.Println("no alarms")
		return
	}

	now := time.Now()
	w := newTable()
	fmt.Fprintln(w, "ID\tSEVERITY\tSTATE\tCATEGORY\tDEVICE\tMESSAGE\tOCCURRED")
	for _, a := range alarms {
		device := a.DeviceName
		if device == "" {
			device = a.DeviceID
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID,
			alarmview.SeverityDisplayName(a.Severity),
			alarmview.StateDisplayName(a.State),
			alarmview.CategoryDisplayName(a.Category),
			device,
			truncate(a.AlarmMessage, 48),
			alarmview.RelativeTime(a.OccurrenceTime, now))
	}
	w.Flush()
}

func printAlarmDetail(a client.AlarmOccurrence) {
	fmt.Printf("ID:          %d\n", a.ID)
	fmt.Printf("Rule:        %s (#%d)\n", a.RuleName, a.RuleID)
	fmt.Printf("Severity:    %s\n", alarmview.SeverityDisplayName(a.Severity))
	fmt.Printf("State:       %s\n", alarmview.StateDisplayName(a.State))
	fmt.Printf("Category:    %s\n", alarmview.CategoryDisplayName(a.Category))
	fmt.Printf("Device:      %s", a.DeviceName)
	if a.DeviceID != "" {
		fmt.Printf(" (%s)", a.DeviceID)
	}
	fmt.Println()
	if a.DataPointName != "" {
		fmt.Printf("Data point:  %s\n", a.DataPointName)
	}
	if a.Location != "" {
		fmt.Printf("Location:    %s\n", a.Location)
	}
	fmt.Printf("Message:     %s\n", a.AlarmMessage)
	fmt.Printf("Trigger:     %s (%s)\n", a.TriggerValue, a.TriggerCondition)
	fmt.Printf("Occurred:    %s\n", a.OccurrenceTime.Local().Format(time.RFC3339))

	if a.AcknowledgedTime != nil {
		fmt.Printf("Ack'd:       %s", a.AcknowledgedTime.Local().Format(time.RFC3339))
		if a.AcknowledgedBy != nil {
			fmt.Printf(" by user %d", *a.AcknowledgedBy)
		}
		fmt.Println()
		if a.AcknowledgeComment != "" {
			fmt.Printf("Ack comment: %s\n", a.AcknowledgeComment)
		}
	}
	if a.ClearedTime != nil {
		fmt.Printf("Cleared:     %s\n", a.ClearedTime.Local().Format(time.RFC3339))
		if a.ClearedValue != "" {
			fmt.Printf("Clear value: %s\n", a.ClearedValue)
		}
		if a.ClearComment != "" {
			fmt.Printf("Clear note:  %s\n", a.ClearComment)
		}
		fmt.Printf("Duration:    %s\n", alarmview.FormatDuration(a.ClearedTime.Sub(a.OccurrenceTime)))
	}
	if len(a.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(a.Tags, ", "))
	}
}

func printRuleTable(rules []client.AlarmRule) {
	if len(rules) == 0 {
		fmt.Println("no rules")
		return
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tTARGET\tCONDITION\tSEVERITY\tCATEGORY\tENABLED")
	for _, r := range rules {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			truncate(r.Name, 32),
			truncate(alarmview.TargetDisplay(r), 28),
			truncate(alarmview.ConditionDisplay(r), 32),
			alarmview.SeverityDisplayName(r.Severity),
			alarmview.CategoryDisplayName(r.Category),
			onOff(r.IsEnabled))
	}
	w.Flush()
}

func printRuleDetail(r client.AlarmRule) {
	fmt.Printf("ID:           %d\n", r.ID)
	fmt.Printf("Name:         %s\n", r.Name)
	if r.Description != "" {
		fmt.Printf("Description:  %s\n", r.Description)
	}
	fmt.Printf("Target:       %s (%s)\n", alarmview.TargetDisplay(r), r.TargetType)
	fmt.Printf("Type:         %s\n", r.AlarmType)
	fmt.Printf("Condition:    %s\n", alarmview.ConditionDisplay(r))
	if r.Deadband != 0 {
		fmt.Printf("Deadband:     %g\n", r.Deadband)
	}
	fmt.Printf("Severity:     %s\n", alarmview.SeverityDisplayName(r.Severity))
	fmt.Printf("Category:     %s\n", alarmview.CategoryDisplayName(r.Category))
	fmt.Printf("Enabled:      %s\n", onOff(r.IsEnabled))
	fmt.Printf("Latched:      %s\n", onOff(r.IsLatched))
	fmt.Printf("Notification: %s", onOff(r.NotificationEnabled))
	if len(r.NotificationChannels) > 0 {
		types := make([]string, 0, len(r.NotificationChannels))
		for _, ch := range r.NotificationChannels {
			types = append(types, ch.Type)
		}
		fmt.Printf(" via %s", strings.Join(types, ", "))
	}
	fmt.Println()
	if r.AutoAcknowledge {
		fmt.Printf("Auto-ack:     after %d min\n", r.AcknowledgeTimeoutMin)
	}
	if r.AutoClear {
		fmt.Printf("Auto-clear:   on\n")
	}
	if r.TemplateID != nil {
		fmt.Printf("Template:     #%d\n", *r.TemplateID)
	}
	if len(r.Tags) > 0 {
		fmt.Printf("Tags:         %s\n", strings.Join(r.Tags, ", "))
	}
	fmt.Printf("Updated:      %s\n", r.UpdatedAt.Local().Format(time.RFC3339))
}

func printTemplateTable(templates []client.AlarmTemplate) {
	if len(templates) == 0 {
		fmt.Println("no templates")
		return
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tCONDITION\tSEVERITY\tACTIVE\tSYSTEM\tUSED")
	for _, t := range templates {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			t.ID,
			truncate(t.Name, 32),
			alarmview.CategoryDisplayName(t.Category),
			t.ConditionType,
			alarmview.SeverityDisplayName(t.Severity),
			onOff(t.IsActive),
			onOff(t.IsSystemTemplate),
			t.UsageCount)
	}
	w.Flush()
}

func printTemplateDetail(t client.AlarmTemplate) {
	fmt.Printf("ID:           %d\n", t.ID)
	fmt.Printf("Name:         %s\n", t.Name)
	if t.Description != "" {
		fmt.Printf("Description:  %s\n", t.Description)
	}
	fmt.Printf("Category:     %s\n", alarmview.CategoryDisplayName(t.Category))
	fmt.Printf("Condition:    %s\n", t.ConditionType)
	fmt.Printf("Severity:     %s\n", alarmview.SeverityDisplayName(t.Severity))
	if t.MessageTemplate != "" {
		fmt.Printf("Message:      %s\n", t.MessageTemplate)
	}
	if len(t.ApplicableDataTypes) > 0 {
		fmt.Printf("Data types:   %s\n", strings.Join(t.ApplicableDataTypes, ", "))
	}
	if len(t.ApplicableDeviceTypes) > 0 {
		fmt.Printf("Device types: %s\n", strings.Join(t.ApplicableDeviceTypes, ", "))
	}
	fmt.Printf("Active:       %s\n", onOff(t.IsActive))
	fmt.Printf("System:       %s\n", onOff(t.IsSystemTemplate))
	fmt.Printf("Usage count:  %d\n", t.UsageCount)
	if len(t.Tags) > 0 {
		fmt.Printf("Tags:         %s\n", strings.Join(t.Tags, ", "))
	}
}

func printCollectorTable(collectors []client.Collector) {
	if len(collectors) == 0 {
		fmt.Println("no collectors")
		return
	}

	now := time.Now()
	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tFACTORY\tENDPOINT\tSTATUS\tVERSION\tLAST SEEN")
	for _, col := range collectors {
		lastSeen := "never"
		if col.LastSeen != nil {
			lastSeen = alarmview.RelativeTime(*col.LastSeen, now)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			col.ID, col.ServerName, col.FactoryName, col.Endpoint,
			col.Status, col.Version, lastSeen)
	}
	w.Flush()
}

// printCountMap 통계용 맵을 고정 정렬 없이 그대로 나열
func printCountMap(title string, counts map[string]int64, display func(string) string) {
	if len(counts) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for k, v := range counts {
		label := k
		if display != nil {
			label = display(k)
		}
		fmt.Printf("  %-12s %d\n", label, v)
	}
}

func onOff(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
