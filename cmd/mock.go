package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/healthpredictor/backend"
	"github.com/kilianp07/healthpredictor/infra/logger"
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run the mock prediction backend",
	Args:  cobra.NoArgs,
	RunE:  runMock,
}

func init() {
	mockCmd.Flags().String("address", "", "listen address (overrides mock.address)")
	mockCmd.Flags().String("mode", "", "model, fixed or error (overrides mock.mode)")
	rootCmd.AddCommand(mockCmd)
}

func runMock(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	mc := cfg.Mock
	if cmd.Flags().Changed("address") {
		mc.Address, _ = cmd.Flags().GetString("address")
	}
	if cmd.Flags().Changed("mode") {
		mc.Mode, _ = cmd.Flags().GetString("mode")
		mc.SetDefaults()
		if err := mc.Validate(); err != nil {
			return err
		}
	}
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}
	return backend.NewServer(mc).Start(ctx)
}
