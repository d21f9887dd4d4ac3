package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardstash/cardstash/internal/card"
)

func newSaveCmd() *cobra.Command {
	var (
		server  string
		title   string
		content string
		image   string
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "save [url]",
		Short: "Save a URL (or text via --content) to a running cardstash server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := card.SaveRequest{
				Title:    title,
				Content:  content,
				ImageURL: image,
				Tags:     tags,
				Source:   "cli",
			}
			if len(args) == 1 {
				req.URL = args[0]
			}

			body, err := json.Marshal(req)
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Post(server+"/api/cards", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			out, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(out))
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bytes.TrimSpace(out)))
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "cardstash server address")
	cmd.Flags().StringVar(&title, "title", "", "title for the card")
	cmd.Flags().StringVar(&content, "content", "", "raw text to save instead of a URL")
	cmd.Flags().StringVar(&image, "image", "", "image URL to save")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "tags to assign (skips AI enrichment)")
	return cmd
}
