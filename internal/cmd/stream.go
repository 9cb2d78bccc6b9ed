package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nukumizu/webtori/internal/fetch"
)

var streamCmd = &cobra.Command{
	Use:   "stream URL",
	Short: "Read messages from a WebSocket endpoint",
	Long: `Stream connects to a ws:// or wss:// endpoint and prints received
messages until the limit is reached or the server closes the
connection.`,
	Args: cobra.ExactArgs(1),
	RunE: runStream,
}

func init() {
	streamCmd.Flags().IntP("messages", "n", fetch.DefaultStreamMessages, "Maximum messages to read")
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	maxMessages, _ := cmd.Flags().GetInt("messages")
	content, err := fetch.Stream(cmd.Context(), args[0], maxMessages)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), content)
	return nil
}
