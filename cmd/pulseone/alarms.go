package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pulseone-console/internal/console"
	"pulseone-console/pkg/alarmview"
	"pulseone-console/pkg/client"
)

func newAlarmsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alarms",
		Short: "Inspect and manage alarm occurrences",
	}

	cmd.AddCommand(
		newAlarmListCmd(),
		newAlarmRecentCmd(),
		newAlarmUnackedCmd(),
		newAlarmHistoryCmd(),
		newAlarmShowCmd(),
		newAlarmAckCmd(),
		newAlarmClearCmd(),
		newAlarmStatsCmd(),
		newAlarmTestCmd(),
	)
	return cmd
}

func newAlarmListCmd() *cobra.Command {
	var (
		severity string
		state    string
		deviceID string
		category string
		tag      string
		search   string
		sortBy   string
		sortDir  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active alarms (filter and sort applied locally)",
		RunE: func(c *cobra.Command, args []string) error {
			// 관제 화면과 같은 상태 계층을 쓴다: 서버는 active 전체를 주고
			// 필터/정렬은 클라이언트 쪽에서 돈다.
			view := console.NewAlarmListView(api, nil)
			defer view.Close()

			view.SetFilter(alarmview.Filter{
				Search:   search,
				Severity: severity,
				State:    state,
				DeviceID: deviceID,
				Category: category,
				Tag:      tag,
			})
			view.SetSort(sortBy, sortDir)

			if err := view.Refresh(context.Background()); err != nil {
				return err
			}

			alarms := view.Alarms()
			printAlarmTable(alarms)
			fmt.Printf("\n%d of %d alarms\n", len(alarms), len(view.All()))
			return nil
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "Filter by severity (critical, high, medium, low, info)")
	cmd.Flags().StringVar(&state, "state", "", "Filter by state (active, acknowledged)")
	cmd.Flags().StringVar(&deviceID, "device", "", "Filter by device id")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by tag (substring match)")
	cmd.Flags().StringVar(&search, "search", "", "Substring match on rule name, device and message")
	cmd.Flags().StringVar(&sortBy, "sort", alarmview.SortByOccurrenceTime, "Sort key (occurrence_time, severity, rule_name, state, category)")
	cmd.Flags().StringVar(&sortDir, "dir", alarmview.DESC, "Sort direction (ASC, DESC)")
	return cmd
}

func newAlarmRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show most recent occurrences regardless of state",
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := api.Occurrences.Recent(context.Background(), limit)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			printAlarmTable(resp.Data)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows")
	return cmd
}

func newAlarmUnackedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unacked",
		Short: "List alarms waiting for acknowledgement",
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := api.Occurrences.Unacknowledged(context.Background())
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			printAlarmTable(resp.Data)
			return nil
		},
	}
}

func newAlarmHistoryCmd() *cobra.Command {
	var (
		ruleID   uint
		deviceID string
		severity string
		state    string
		category string
		tag      string
		search   string
		from     string
		to       string
		sortBy   string
		sortDir  string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the occurrence history (server-side filtering)",
		RunE: func(c *cobra.Command, args []string) error {
			q := client.HistoryQuery{
				RuleID:   ruleID,
				DeviceID: deviceID,
				Severity: severity,
				State:    state,
				Category: category,
				Tag:      tag,
				Search:   search,
				SortBy:   sortBy,
				SortDir:  sortDir,
				Limit:    limit,
				Offset:   offset,
			}

			if from != "" {
				t, err := time.Parse(time.RFC3339, from)
				if err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
				q.From = &t
			}
			if to != "" {
				t, err := time.Parse(time.RFC3339, to)
				if err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
				q.To = &t
			}

			resp, err := api.Occurrences.History(context.Background(), q)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			printAlarmTable(resp.Data)
			return nil
		},
	}

	cmd.Flags().UintVar(&ruleID, "rule", 0, "Filter by rule id")
	cmd.Flags().StringVar(&deviceID, "device", "", "Filter by device id")
	cmd.Flags().StringVar(&severity, "severity", "", "Filter by severity")
	cmd.Flags().StringVar(&state, "state", "", "Filter by state")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by tag")
	cmd.Flags().StringVar(&search, "search", "", "Substring match on message fields")
	cmd.Flags().StringVar(&from, "from", "", "Start time (RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "End time (RFC3339)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort key")
	cmd.Flags().StringVar(&sortDir, "dir", "", "Sort direction")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows (server default 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	return cmd
}

func newAlarmShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one occurrence in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := api.Occurrences.Get(context.Background(), id)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			printAlarmDetail(resp.Data)
			return nil
		},
	}
}

func newAlarmAckCmd() *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "ack <id>",
		Short: "Acknowledge an active alarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := api.Occurrences.Acknowledge(context.Background(), id, client.AcknowledgeRequest{Comment: comment})
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			fmt.Printf("alarm %d acknowledged\n", resp.Data.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Acknowledge comment")
	return cmd
}

func newAlarmClearCmd() *cobra.Command {
	var (
		comment string
		value   string
	)

	cmd := &cobra.Command{
		Use:   "clear <id>",
		Short: "Clear an alarm (acknowledgement not required)",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := api.Occurrences.Clear(context.Background(), id, client.ClearRequest{
				Comment:      comment,
				ClearedValue: value,
			})
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			fmt.Printf("alarm %d cleared\n", resp.Data.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Clear comment")
	cmd.Flags().StringVar(&value, "value", "", "Value observed when the condition returned to normal")
	return cmd
}

func newAlarmStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Occurrence counters for the dashboard",
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := api.Occurrences.Statistics(context.Background())
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}

			s := resp.Data
			fmt.Printf("Active:         %d\n", s.Active)
			fmt.Printf("Unacknowledged: %d\n", s.Unacknowledged)
			fmt.Printf("Cleared today:  %d\n", s.ClearedToday)
			fmt.Printf("Total today:    %d\n", s.TotalToday)
			printCountMap("By severity", s.BySeverity, alarmview.SeverityDisplayName)
			return nil
		},
	}
}

func newAlarmTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Create a synthetic test alarm",
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := api.Occurrences.CreateTest(context.Background())
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			fmt.Printf("test alarm %d created\n", resp.Data.ID)
			return nil
		},
	}
}
