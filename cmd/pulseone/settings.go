package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"pulseone-console/pkg/client"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and update system settings",
	}

	cmd.AddCommand(
		newSettingsGetCmd(),
		newSettingsSetCmd(),
	)
	return cmd
}

func newSettingsGetCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print settings as JSON",
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := api.Settings.Get(context.Background())
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}

			settings := resp.Data
			if category != "" {
				obj, ok := settings[category]
				if !ok {
					return fmt.Errorf("unknown settings category %q", category)
				}
				return printJSON(obj)
			}

			// 카테고리 이름순으로 고정해서 diff 가능한 출력을 만든다
			keys := make([]string, 0, len(settings))
			for k := range settings {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				fmt.Printf("%s:\n", k)
				out, err := json.MarshalIndent(settings[k], "  ", "  ")
				if err != nil {
					return err
				}
				fmt.Printf("  %s\n", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Print a single category only")
	return cmd
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <json>",
		Short: "Replace one settings category with the given JSON object",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			category := args[0]

			var obj client.JSONObject
			if err := json.Unmarshal([]byte(args[1]), &obj); err != nil {
				return fmt.Errorf("invalid JSON: %w", err)
			}

			resp, err := api.Settings.Update(context.Background(), client.SystemSettings{category: obj})
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}

			fmt.Printf("settings updated\n")
			return printJSON(resp.Data[category])
		},
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
