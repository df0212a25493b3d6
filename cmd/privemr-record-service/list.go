package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List summaries of all stored records",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, log, err := newService()
		if err != nil {
			fatal("Error initializing service", err)
		}
		defer svc.Close()
		defer log.Sync()

		summaries := svc.Summaries(context.Background())

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(summaries); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for _, s := range summaries {
			verified := " "
			if s.Verified {
				verified = "✓"
			}
			fmt.Printf("%s [%s] %-12s %-8s %s\n", verified, s.ID, s.Type, s.Priority, s.Title)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
