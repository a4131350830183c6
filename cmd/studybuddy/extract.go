package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/study-buddy/internal/source"
)

func extractCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Print the text layer of a PDF as it would be sent to the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := loadPDF(args[0], a.cfg.Server.MaxUploadBytes)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					source.Source
					Text string `json:"text"`
				}{src, src.Text})
			}
			_, err = fmt.Fprintln(out, src.Text)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print title, page count and text as JSON")
	return cmd
}

func loadPDF(path string, maxBytes int64) (source.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return source.Source{}, err
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return source.Source{}, fmt.Errorf("%s is %d bytes, larger than the %d byte limit", path, info.Size(), maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return source.Source{}, err
	}
	return source.FromPDF(filepath.Base(path), "", data)
}
