package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/memento"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/export"
)

var (
	exportFormat string
	exportShare  string
	exportDir    string
)

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Write a note to a file and share it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("format") {
			cfg.Export.Format = exportFormat
		}
		if cmd.Flags().Changed("share") {
			cfg.Export.Share = exportShare
		}
		var extra []memento.Option
		if cmd.Flags().Changed("dir") {
			extra = append(extra, memento.WithExportDir(exportDir))
		}

		ctx := context.Background()
		app := openApp(ctx, extra...)
		defer app.Close()

		note, ok := app.Notes.FindByID(ctx, args[0])
		if !ok {
			fatal("Failed to export note", fmt.Errorf("%w: %s", core.ErrNotFound, args[0]))
		}
		path, err := app.Exporter.Export(ctx, note)
		if err != nil {
			fatal("Failed to export note", err)
		}
		fmt.Println(path)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(export.FormatText), "File format: txt or html")
	exportCmd.Flags().StringVar(&exportShare, "share", "none", "Share action: clipboard, command or none")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Directory to write the file to")
}
