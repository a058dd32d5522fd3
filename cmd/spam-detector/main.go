package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/spam-detector/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	version = "dev"
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "spam-detector",
		Short: "Classify email text as spam or legitimate",
		Long: `spam-detector loads a pre-trained classifier and text vectorizer and
tells whether pasted email text is spam or legitimate, with a confidence
percentage. It runs as a web page, as an SMTP content filter, or once from
the command line.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.yaml in /etc/spam-detector, $HOME/.spam-detector, ./configs or .)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.NewFromFile(cfgFile)
	if err != nil {
		return err
	}

	// flags win over the file and the environment
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		c.Set("logging.level", level)
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		c.Set("logging.format", format)
	}

	cfg = c
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spam-detector %s\n", version)
		},
	}
}
