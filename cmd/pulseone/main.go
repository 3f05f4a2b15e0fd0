// pulseone PulseOne 관제 콘솔 CLI.
// 백엔드 REST API를 pkg/client로 호출하고 pkg/alarmview 규칙으로 표시한다.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pulseone-console/pkg/client"
)

var version = "1.0.0"

// api PersistentPreRun에서 초기화되는 단일 클라이언트 인스턴스
var api *client.Client

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "pulseone",
		Short: "Command line console for the PulseOne monitoring backend",
		PersistentPreRun: func(c *cobra.Command, args []string) {
			api = client.New(viper.GetString("server"),
				client.WithTimeout(viper.GetDuration("timeout")))
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration (default $HOME/.pulseone.yaml)")
	rootCmd.PersistentFlags().StringP("server", "s", "", "Backend server address")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Request timeout")

	// Defaults
	viper.SetDefault("server", "http://localhost:8080")
	viper.SetDefault("timeout", 15*time.Second)

	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.SetEnvPrefix("PULSEONE")
	viper.AutomaticEnv()

	// Read Configuration File Before Start
	cobra.OnInitialize(func() {
		if configFile != "" {
			_, err := os.Stat(configFile)
			if os.IsNotExist(err) {
				log.Fatalf("Config file %s does not exist!", configFile)
			}

			viper.SetConfigFile(configFile)
			viper.SetConfigType("yaml")
			if err := viper.ReadInConfig(); err != nil {
				log.Fatalf("Failed to read config: %v", err)
			}
			return
		}

		// 명시적 지정이 없으면 홈 디렉터리의 파일을 찾아보고, 없으면 기본값으로 동작
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		path := filepath.Join(home, ".pulseone.yaml")
		if _, err := os.Stat(path); err != nil {
			return
		}

		viper.SetConfigFile(path)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("Failed to read config: %v", err)
		}
	})

	rootCmd.AddCommand(
		newVersionCmd(),
		newHealthCmd(),
		newAlarmsCmd(),
		newRulesCmd(),
		newTemplatesCmd(),
		newCollectorsCmd(),
		newSettingsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(c *cobra.Command, args []string) {
			fmt.Printf("pulseone %s\n", version)
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend server health",
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := api.Health(context.Background())
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("health check failed: %s", resp.Message)
			}

			h := resp.Data
			fmt.Printf("Server:        %s\n", api.BaseURL())
			fmt.Printf("Status:        %s\n", h.Status)
			if h.Version != "" {
				fmt.Printf("Version:       %s\n", h.Version)
			}
			fmt.Printf("Database:      %s\n", upDown(h.Database))
			fmt.Printf("Redis:         %s\n", upDown(h.Redis))
			fmt.Printf("Elasticsearch: %s\n", upDown(h.Elasticsearch))
			return nil
		},
	}
}

func upDown(ok bool) string {
	if ok {
		return "up"
	}
	return "down"
}

// failFrom envelope 실패를 에러로 승격. 에러 코드가 있으면 함께 보여준다.
func failFrom(errorCode, message string) error {
	if errorCode != "" {
		return fmt.Errorf("%s (%s)", message, errorCode)
	}
	return fmt.Errorf("%s", message)
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}
