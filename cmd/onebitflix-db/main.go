/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/onebitflix/onebitflix/database"
	"github.com/onebitflix/onebitflix/utils"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	logLevel   string
	jsonOutput bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "onebitflix-db",
	Short: "Inspect and test the onebitflix database connection",
	Long: `onebitflix-db resolves the database connection descriptor the way the
application does (built-in defaults, optional YAML file, .env and DB_*
environment variables) and lets you print or test it.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.ConfigureLogLevel(logLevel)
		database.GetLogger().SetLevel(database.ParseLogLevel(logLevel))
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective connection descriptor with the password masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := loadDescriptor()
		if err != nil {
			return err
		}
		return printDescriptor(cmd.OutOrStdout(), desc, jsonOutput)
	},
}

var dsnCmd = &cobra.Command{
	Use:   "dsn",
	Short: "Print the driver name and connection string with the password masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := loadDescriptor()
		if err != nil {
			return err
		}
		dsn, err := desc.RedactedDSN()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", desc.DriverName(), dsn)
		return err
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Connect with the effective descriptor and report health",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := loadDescriptor()
		if err != nil {
			return err
		}
		if err := database.ValidateConfig(desc.Config()); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		manager := database.NewDatabaseManager(desc)
		if err := manager.Connect(ctx); err != nil {
			return err
		}
		defer func() { _ = manager.Disconnect() }()

		status := manager.HealthCheck(ctx)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			return err
		}
		if !status.Healthy {
			return fmt.Errorf("database unhealthy: %s", status.LastError)
		}
		return nil
	},
}

// loadDescriptor resolves every configuration layer on each call, so a .env
// in the working directory applies with or without --config.
func loadDescriptor() (*database.Descriptor, error) {
	cfg, err := database.LoadConnectionConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return database.NewDescriptor(cfg), nil
}

func printDescriptor(w io.Writer, desc *database.Descriptor, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(desc.Redacted())
	}
	cfg := desc.Redacted()
	_, err := fmt.Fprintf(w, "dialect:     %s\nhost:        %s\nport:        %d\ndatabase:    %s\nusername:    %s\npassword:    %s\nunderscored: %t\n",
		cfg.Dialect, cfg.Host, cfg.Port, cfg.DBName, cfg.Username, cfg.Password, cfg.Define.Underscored)
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file (defaults to built-in values plus .env and DB_* env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	showCmd.Flags().BoolVar(&jsonOutput, "json", false, "print as JSON")
	pingCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall timeout for connect and health check")

	rootCmd.AddCommand(showCmd, dsnCmd, pingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
