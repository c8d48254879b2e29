package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"willtank/internal/apiclient"
	"willtank/internal/handler"
)

type exportResult struct {
	Path     string
	Bytes    int64
	Fallback bool
	Message  string
}

func newExportCmd(opts *options) *cobra.Command {
	var dest string
	cmd := &cobra.Command{
		Use:   "export <willId>",
		Short: "Download the will package",
		Long:  "Saves the ZIP package for a will. When the server can only provide the will text, the basic download is saved instead and reported.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			willID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid will id %q", args[0])
			}

			res, err := exportPackage(cmd.Context(), opts.client(), willID, dest)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Fallback {
				fmt.Fprintf(out, "Basic download saved to %s (%d bytes): %s\n", res.Path, res.Bytes, res.Message)
				return nil
			}
			fmt.Fprintf(out, "Package saved to %s (%d bytes)\n", res.Path, res.Bytes)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dest, "output", "o", "", "destination file (defaults to the server's file name)")
	return cmd
}

func exportPackage(ctx context.Context, client *apiclient.Client, willID uuid.UUID, dest string) (*exportResult, error) {
	resp, err := client.Open(ctx, http.MethodGet, "/api/wills/"+willID.String()+"/package", nil, "application/zip, text/plain")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	res := &exportResult{
		Fallback: resp.Header.Get(handler.HeaderPackageFallback) != "",
		Message:  resp.Header.Get(handler.HeaderPackageMessage),
	}

	if dest == "" {
		dest = attachmentName(resp.Header.Get(echo.HeaderContentDisposition))
	}
	if dest == "" {
		dest = "will-" + willID.String() + ".zip"
		if res.Fallback {
			dest = "will-" + willID.String() + ".txt"
		}
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dest, err)
	}
	n, copyErr := io.Copy(f, resp.Body)
	if err := f.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		_ = os.Remove(dest)
		return nil, fmt.Errorf("write %s: %w", dest, copyErr)
	}

	res.Path = dest
	res.Bytes = n
	return res, nil
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
