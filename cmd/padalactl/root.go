package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/padala-next/internal/config"
	"github.com/padala-next/internal/logger"
	"github.com/padala-next/internal/models"
	"github.com/padala-next/internal/provider"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "padalactl",
	Short:        "Operations CLI for the padala delivery core",
	Long:         `padalactl runs dispatch and settlement jobs by hand, issues API tokens and manages casbin role policies against the configured database.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yml)")

	rootCmd.AddCommand(newSettleCmd())
	rootCmd.AddCommand(newAssignCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newAuthzCmd())
}

// Execute 运行命令行入口
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openContainer 加载配置并初始化数据库与依赖容器
func openContainer() (*provider.Container, error) {
	cfg := config.LoadFile(cfgFile)
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		return nil, fmt.Errorf("init database failed: %w", err)
	}
	if err := models.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("migrate database failed: %w", err)
	}
	return provider.NewContainer(cfg), nil
}

func withContainer(run func(cmd *cobra.Command, args []string, c *provider.Container) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := openContainer()
		if err != nil {
			return err
		}
		defer func() {
			_ = c.Close()
			logger.Sync()
		}()
		return run(cmd, args, c)
	}
}

func printJSON(cmd *cobra.Command, value interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
