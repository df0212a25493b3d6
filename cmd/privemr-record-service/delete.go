package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteAll bool

var deleteCmd = &cobra.Command{
	Use:   "delete [record-id]",
	Short: "Delete a record by ID, or the whole collection with --all",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, log, err := newService()
		if err != nil {
			fatal("Error initializing service", err)
		}
		defer svc.Close()
		defer log.Sync()

		ctx := context.Background()
		if deleteAll {
			if err := svc.Clear(ctx); err != nil {
				fatal("Error clearing records", err)
			}
			fmt.Println("Cleared all records")
			return
		}

		if len(args) != 1 {
			fatal("Error", fmt.Errorf("a record id is required unless --all is set"))
		}
		if err := svc.Delete(ctx, args[0]); err != nil {
			fatal("Error deleting record", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete the entire collection")
}
