package http

import "github.com/spf13/cobra"

func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "HTTP server commands",
		Long: `Run the medstage REST API. The server also hosts the notification
stream (server-sent events) and the background workers.`,
	}

	cmd.AddCommand(NewStartCommand())

	return cmd
}
