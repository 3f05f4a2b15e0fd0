package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pulseone-console/internal/console"
	"pulseone-console/pkg/alarmview"
	"pulseone-console/pkg/client"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and manage alarm rules",
	}

	cmd.AddCommand(
		newRuleListCmd(),
		newRuleShowCmd(),
		newRuleEnableCmd(true),
		newRuleEnableCmd(false),
		newRuleDeleteCmd(),
		newRuleStatsCmd(),
	)
	return cmd
}

func newRuleListCmd() *cobra.Command {
	var (
		severity  string
		alarmType string
		category  string
		tag       string
		search    string
		enabled   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alarm rules (filter applied locally)",
		RunE: func(c *cobra.Command, args []string) error {
			view := console.NewRuleListView(api, nil)
			defer view.Close()

			filter := alarmview.RuleFilter{
				Search:    search,
				Severity:  severity,
				AlarmType: alarmType,
				Category:  category,
				Tag:       tag,
			}
			// 플래그가 주어졌을 때만 enabled 조건을 건다
			if c.Flags().Changed("enabled") {
				filter.Enabled = &enabled
			}
			view.SetFilter(filter)

			if err := view.Refresh(context.Background()); err != nil {
				return err
			}

			printRuleTable(view.Rules())
			return nil
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "Filter by severity")
	cmd.Flags().StringVar(&alarmType, "type", "", "Filter by alarm type (analog, digital, script)")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by tag (exact match)")
	cmd.Flags().StringVar(&search, "search", "", "Substring match on name and description")
	cmd.Flags().BoolVar(&enabled, "enabled", false, "Filter by enabled state (true or false)")
	return cmd
}

func newRuleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one rule in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := api.Rules.Get(context.Background(), id)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			printRuleDetail(resp.Data)
			return nil
		},
	}
}

// newRuleEnableCmd enable/disable는 본문이 같은 일괄 수정 한 건이다
func newRuleEnableCmd(enable bool) *cobra.Command {
	use, short := "enable <id>...", "Enable one or more rules"
	if !enable {
		use, short = "disable <id>...", "Disable one or more rules"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ids := make([]uint, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			state := enable
			resp, err := api.Rules.BulkUpdate(context.Background(), client.BulkRuleUpdate{
				IDs:       ids,
				IsEnabled: &state,
			})
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			fmt.Printf("%d rule(s) updated\n", resp.Data.Updated)
			return nil
		},
	}
}

func newRuleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := api.Rules.Delete(context.Background(), id)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			fmt.Printf("rule %d deleted\n", id)
			return nil
		},
	}
}

func newRuleStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Rule counters by severity, type and category",
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := api.Rules.Statistics(context.Background())
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}

			s := resp.Data
			fmt.Printf("Total:    %d\n", s.Total)
			fmt.Printf("Enabled:  %d\n", s.Enabled)
			fmt.Printf("Disabled: %d\n", s.Disabled)
			printCountMap("By severity", s.BySeverity, alarmview.SeverityDisplayName)
			printCountMap("By type", s.ByType, nil)
			printCountMap("By category", s.ByCategory, alarmview.CategoryDisplayName)
			return nil
		},
	}
}
