package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the record collection from an exported JSON file",
	Long: `Parses the given JSON file and replaces the entire stored collection.
On a malformed payload the existing collection is left untouched.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, log, err := newService()
		if err != nil {
			fatal("Error initializing service", err)
		}
		defer svc.Close()
		defer log.Sync()

		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Error reading import file", err)
		}

		if err := svc.Import(context.Background(), string(data)); err != nil {
			fatal("Error importing records", err)
		}
		fmt.Println("Import completed")
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
