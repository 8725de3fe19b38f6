package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bafnalights-dot/stock/internal/app"
	"github.com/bafnalights-dot/stock/platform/logger"
)

func main() {
	ctx, quit := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer quit()

	root := &cobra.Command{
		Use:          "ledger",
		Short:        "Inventory and assembly ledger",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), exportCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		quit()
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the report consumer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := app.New(ctx)
			if err != nil {
				logger.Error(ctx,
					"❌ Failed to create an application",
					logger.ErrorF(err),
				)
				return err
			}

			if err := a.Run(ctx); err != nil {
				logger.Error(ctx, "❌ Stock server error", logger.ErrorF(err))
				return err
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Migrate(cmd.Context()); err != nil {
				logger.Error(cmd.Context(), "❌ Migration failed", logger.ErrorF(err))
				return err
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stock report workbook to a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := app.Export(cmd.Context(), dir)
			if err != nil {
				logger.Error(cmd.Context(), "❌ Export failed", logger.ErrorF(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Output directory")

	return cmd
}
