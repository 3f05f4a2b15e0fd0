package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pulseone-console/pkg/alarmview"
	"pulseone-console/pkg/client"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and apply alarm templates",
	}

	cmd.AddCommand(
		newTemplateListCmd(),
		newTemplateShowCmd(),
		newTemplateSearchCmd(),
		newTemplateTopCmd(),
		newTemplateApplyCmd(),
		newTemplateStatsCmd(),
	)
	return cmd
}

func newTemplateListCmd() *cobra.Command {
	var (
		category string
		active   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alarm templates",
		RunE: func(c *cobra.Command, args []string) error {
			q := client.TemplateListQuery{Category: category}
			if c.Flags().Changed("active") {
				q.Active = &active
			}

			resp, err := api.Templates.List(context.Background(), q)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			printTemplateTable(resp.Data)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().BoolVar(&active, "active", false, "Filter by active state (true or false)")
	return cmd
}

func newTemplateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one template in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := api.Templates.Get(context.Background(), id)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			printTemplateDetail(resp.Data)
			return nil
		},
	}
}

func newTemplateSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search templates by name, description and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := api.Templates.Search(context.Background(), args[0])
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			printTemplateTable(resp.Data)
			return nil
		},
	}
}

func newTemplateTopCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Most used templates",
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := api.Templates.MostUsed(context.Background(), limit)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			printTemplateTable(resp.Data)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum rows")
	return cmd
}

func newTemplateApplyCmd() *cobra.Command {
	var (
		targets    []uint
		targetType string
		groupName  string
	)

	cmd := &cobra.Command{
		Use:   "apply <id>",
		Short: "Create rules from a template for the given targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				return fmt.Errorf("at least one --target is required")
			}

			resp, err := api.Templates.Apply(context.Background(), id, client.ApplyTemplateRequest{
				TargetIDs:     targets,
				TargetType:    targetType,
				RuleGroupName: groupName,
			})
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}

			result := resp.Data
			fmt.Printf("%d rule(s) created from template %d\n", len(result.CreatedRules), result.TemplateID)
			printRuleTable(result.CreatedRules)
			if len(result.Failed) > 0 {
				fmt.Printf("\nfailed targets: %v\n", result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().UintSliceVar(&targets, "target", nil, "Target id (repeatable)")
	cmd.Flags().StringVar(&targetType, "target-type", "", "Target type override (data_point, virtual_point, device)")
	cmd.Flags().StringVar(&groupName, "group", "", "Rule group name prefix")
	return cmd
}

func newTemplateStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Template counters",
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := api.Templates.Statistics(context.Background())
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}

			s := resp.Data
			fmt.Printf("Total:       %d\n", s.Total)
			fmt.Printf("Active:      %d\n", s.Active)
			fmt.Printf("System:      %d\n", s.System)
			fmt.Printf("Total usage: %d\n", s.TotalUsage)
			printCountMap("By category", s.ByCategory, alarmview.CategoryDisplayName)
			return nil
		},
	}
}
