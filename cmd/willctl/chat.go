package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"willtank/internal/apiclient"
	"willtank/internal/skyler"
)

func newChatCmd(opts *options) *cobra.Command {
	var templateID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to Skyler from the terminal",
		Long:  "Reads one message per line from stdin and streams each reply. Type /quit to leave.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts.client(), templateID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "will template that steers the assistant")
	return cmd
}

func runChat(ctx context.Context, client *apiclient.Client, templateID string, in io.Reader, out io.Writer) error {
	printed := 0
	conv := skyler.NewConversation(
		skyler.NewHTTPStreamer(client, templateID),
		skyler.WithOnChunk(func(partial string) {
			fmt.Fprint(out, partial[printed:])
			printed = len(partial)
		}),
	)

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
		case "/quit", "/exit":
			return nil
		default:
			printed = 0
			fmt.Fprint(out, "skyler: ")
			_, err := conv.Send(ctx, text)
			fmt.Fprintln(out)
			switch {
			case errors.Is(err, skyler.ErrUnauthorized):
				return err
			case ctx.Err() != nil:
				return nil
			case err != nil:
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}
