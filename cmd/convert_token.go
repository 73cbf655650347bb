package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/dmrelay/internal/graph"
)

var convertTokenCmd = &cobra.Command{
	Use:   "convert-token <short-lived-token>",
	Short: "Exchange a short-lived access token for a long-lived one",
	Long: `Calls the Graph API token endpoint with APP_ID and APP_SECRET and prints the
long-lived token as JSON. The token is not stored; put it in INSTAGRAM_TOKEN.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		result, err := graph.NewClient(cfg.Graph).ExchangeToken(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(convertTokenCmd)
}
