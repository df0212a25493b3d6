package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <record-id>",
	Short: "Recompute a record's content digest and update its verification status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, log, err := newService()
		if err != nil {
			fatal("Error initializing service", err)
		}
		defer svc.Close()
		defer log.Sync()

		verified, err := svc.VerifyRecord(context.Background(), args[0])
		if err != nil {
			fatal("Error verifying record", err)
		}

		if verified {
			fmt.Printf("%s: verified\n", args[0])
			return
		}
		fmt.Printf("%s: verification FAILED (content digest mismatch)\n", args[0])
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
