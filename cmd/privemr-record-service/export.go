package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full record collection as indented JSON",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, log, err := newService()
		if err != nil {
			fatal("Error initializing service", err)
		}
		defer svc.Close()
		defer log.Sync()

		data, err := svc.Export(context.Background())
		if err != nil {
			fatal("Error exporting records", err)
		}

		if exportOutput == "" {
			fmt.Println(data)
			return
		}
		if err := os.WriteFile(exportOutput, []byte(data), 0o644); err != nil {
			fatal("Error writing export file", err)
		}
		fmt.Printf("Exported records to %s\n", exportOutput)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write export to a file instead of stdout")
}
