package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evermart/storefront/internal/constants"
	"github.com/evermart/storefront/internal/log"
)

func Start() {
	logger := log.InitLogger("storefront.log", os.Getenv("STOREFRONT_ENV")).
		With().
		Str(log.KeyAppName, constants.AppCli).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	application := &app{}
	rootCmd := &cobra.Command{
		Use:   "storefront",
		Short: "Commerce storefront and admin console client",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return application.init(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			application.close(cmd.Context())
		},
	}
	rootCmd.AddCommand(authCommands(application)...)
	rootCmd.AddCommand(catalogCommands(application)...)
	rootCmd.AddCommand(cartCommands(application)...)
	rootCmd.AddCommand(orderCommands(application)...)
	rootCmd.AddCommand(adminCommand(application))

	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
