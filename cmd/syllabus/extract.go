package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
	"github.com/joseph-ayodele/syllabus-tracker/internal/ingest"
	"github.com/joseph-ayodele/syllabus-tracker/internal/syllabus"
)

func newExtractCmd(a *app) *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Print the extraction record of a syllabus text file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			text, err := ingest.DecodeText(raw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rec, err := a.extractor().Extract(syllabus.RawText{
				Text:     text,
				Filename: filepath.Base(path),
				MimeType: constants.MimeTypeForExt(filepath.Ext(path)),
			})
			if err != nil {
				a.logger.Error("extract failed", "path", path, "error", err)
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(syllabus.FailureRecord(err)); encErr != nil {
					return encErr
				}
				return err
			}

			body, err := syllabus.MarshalRecord(rec)
			if err != nil {
				return err
			}
			if !compact {
				var buf bytes.Buffer
				if err := json.Indent(&buf, body, "", "  "); err != nil {
					return err
				}
				body = buf.Bytes()
			}
			_, err = fmt.Fprintln(out, string(body))
			return err
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "print the record on one line")
	return cmd
}
