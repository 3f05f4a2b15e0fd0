package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pulseone-console/pkg/client"
)

func newCollectorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collectors",
		Short: "Manage edge collector servers",
	}

	cmd.AddCommand(
		newCollectorListCmd(),
		newCollectorRegisterCmd(),
		newCollectorHealthCmd(),
		newCollectorRemoveCmd(),
	)
	return cmd
}

func newCollectorListCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered collectors",
		RunE: func(c *cobra.Command, args []string) error {
			var (
				resp *client.Response[[]client.Collector]
				err  error
			)
			if activeOnly {
				resp, err = api.Collectors.Active(context.Background())
			} else {
				resp, err = api.Collectors.List(context.Background())
			}
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			printCollectorTable(resp.Data)
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only collectors currently online")
	return cmd
}

func newCollectorRegisterCmd() *cobra.Command {
	var req client.RegisterCollectorRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new edge collector",
		RunE: func(c *cobra.Command, args []string) error {
			if req.ServerName == "" || req.IPAddress == "" {
				return fmt.Errorf("--name and --ip are required")
			}

			resp, err := api.Collectors.Register(context.Background(), req)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}

			col := resp.Data
			fmt.Printf("collector %d registered: %s\n", col.ID, col.Endpoint)
			// 토큰은 이 응답에만 나온다. 다시 조회할 방법이 없으니 바로 보여준다.
			fmt.Printf("registration token: %s\n", col.RegistrationToken)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ServerName, "name", "", "Collector server name")
	cmd.Flags().StringVar(&req.FactoryName, "factory", "", "Factory name")
	cmd.Flags().StringVar(&req.Location, "location", "", "Physical location")
	cmd.Flags().StringVar(&req.IPAddress, "ip", "", "Collector IP address")
	cmd.Flags().IntVar(&req.Port, "port", 0, "Collector port (default 8080)")
	cmd.Flags().StringVar(&req.Version, "version", "", "Collector software version")
	return cmd
}

func newCollectorHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health <id>",
		Short: "Probe one collector and report the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := api.Collectors.Health(context.Background(), id)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}

			h := resp.Data
			fmt.Printf("Collector:     %s (#%d)\n", h.ServerName, h.ID)
			fmt.Printf("Status:        %s\n", h.Status)
			fmt.Printf("Healthy:       %s\n", onOff(h.Healthy))
			fmt.Printf("Response time: %dms\n", h.ResponseTimeMs)
			if h.LastSeen != nil {
				fmt.Printf("Last seen:     %s\n", h.LastSeen.Local().Format(time.RFC3339))
			}
			fmt.Printf("Checked at:    %s\n", h.CheckedAt.Local().Format(time.RFC3339))
			return nil
		},
	}
}

func newCollectorRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Unregister a collector",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := api.Collectors.Unregister(context.Background(), id)
			if err != nil {
				return err
			}
			if !resp.Success {
				return failFrom(resp.ErrorCode, resp.Message)
			}
			fmt.Printf("collector %d unregistered\n", id)
			return nil
		},
	}
}
