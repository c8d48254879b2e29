package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"willtank/internal/apiclient"
)

type options struct {
	apiURL string
	token  string
}

func (o *options) client() *apiclient.Client {
	return apiclient.New(o.apiURL, apiclient.WithToken(o.token))
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "willctl",
		Short: "WillTank operator and client tool",
		Long: `willctl manages the WillTank database and talks to a running API.

Database commands (migrate, seed) read the same environment as the server.
API commands (chat, export) use --api and --token, which default to
WILLTANK_API and WILLTANK_TOKEN.`,
		SilenceUsage: true,
	}

	apiURL := os.Getenv("WILLTANK_API")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", apiURL, "WillTank API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("WILLTANK_TOKEN"), "access token for API commands")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newChatCmd(opts))
	root.AddCommand(newExportCmd(opts))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
