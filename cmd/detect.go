package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/dmrelay/internal/langdetect"
	"github.com/ziadkadry99/dmrelay/internal/reply"
)

var detectCmd = &cobra.Command{
	Use:   "detect <text>",
	Short: "Print the detected language and model token for a message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		detector := langdetect.New(cfg.DefaultLanguage, cfg.Detection.MinRunes, langdetect.WithLogger(log))
		code := detector.Detect(strings.Join(args, " "))
		target := reply.Resolve(code, cfg.DefaultLanguage)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "language: %s\n", code)
		fmt.Fprintf(out, "token:    %s\n", target.Token)
		if target.Fallback {
			fmt.Fprintf(out, "note:     no model token for %q, replies use %s (default %s)\n", code, target.Name, detector.Default())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
