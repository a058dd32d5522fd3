package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/mikey/spam-detector/internal/adapters/frontend"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/di"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func checkCmd() *cobra.Command {
	var (
		inputFile string
		asEmail   bool
		opts      di.CLIOptions
	)

	cmd := &cobra.Command{
		Use:   "check [text]",
		Short: "Classify text given as an argument, a file or on stdin",
		Example: `  spam-detector check "Congratulations! You've won a prize"
  spam-detector check --file message.txt
  spam-detector check --email < message.eml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args, inputFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			container, err := di.BuildCLIContainer(cfg, opts)
			if err != nil {
				return err
			}

			return container.Invoke(func(logger *zap.Logger, cli *frontend.CLIFrontend, source core.ArtifactSource) error {
				defer logger.Sync()
				if stopper, ok := source.(interface{ Stop() }); ok {
					defer stopper.Stop()
				}

				if asEmail {
					_, err := cli.CheckMessage(cmd.Context(), bytes.NewReader(input))
					return err
				}
				_, err := cli.CheckText(cmd.Context(), string(input))
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "read the text from a file instead of stdin")
	cmd.Flags().BoolVar(&asEmail, "email", false, "treat the input as a full email message with headers")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "show model details and debug logs")
	cmd.Flags().BoolVar(&opts.JSONLog, "json-log", false, "write logs as JSON")
	return cmd
}

// readInput returns the text to classify: the argument if present, else the
// file, else stdin
func readInput(args []string, inputFile string, stdin io.Reader) ([]byte, error) {
	if len(args) > 0 {
		if inputFile != "" {
			return nil, fmt.Errorf("give either text or --file, not both")
		}
		return []byte(args[0]), nil
	}

	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}
