package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"privemr-record-service/internal/fileingest"
	"privemr-record-service/internal/models"
)

var (
	processPatientEmail string
	processAadhaar      string
	processAbhaID       string
	processPatientName  string
	processTitle        string
	processDescription  string
	processType         string
	processSubType      string
	processPriority     string
	processTags         []string
	processText         string
	processFilePath     string
	processProvider     string
	processHospital     string
	processLicense      string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run a record submission through the processing pipeline",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, log, err := newService()
		if err != nil {
			fatal("Error initializing service", err)
		}
		defer svc.Close()
		defer log.Sync()

		form := &models.SubmissionForm{
			PatientEmail:  processPatientEmail,
			AadhaarNumber: processAadhaar,
			AbhaID:        processAbhaID,
			PatientName:   processPatientName,
			Title:         processTitle,
			Description:   processDescription,
			Type:          processType,
			SubType:       processSubType,
			Priority:      processPriority,
			Tags:          processTags,
			TextData:      processText,
			ProviderName:  processProvider,
			HospitalName:  processHospital,
			LicenseNumber: processLicense,
		}

		if processFilePath != "" {
			upload, err := fileingest.Load(processFilePath)
			if err != nil {
				fatal("Error reading file", err)
			}
			form.File = upload
		}

		record, err := svc.ProcessSubmission(context.Background(), form, func(u models.StageUpdate) {
			fmt.Printf("[%5.1f%%] %-13s %s\n", u.Progress, u.Stage, u.Status)
		})
		if err != nil {
			fatal("Error processing submission", err)
		}

		fmt.Printf("Record created: %s\n", record.ID)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVar(&processPatientEmail, "patient-email", "", "Patient email (required)")
	processCmd.Flags().StringVar(&processAadhaar, "aadhaar", "", "Patient national ID number")
	processCmd.Flags().StringVar(&processAbhaID, "abha-id", "", "Patient health account ID")
	processCmd.Flags().StringVar(&processPatientName, "patient-name", "", "Patient name")
	processCmd.Flags().StringVar(&processTitle, "title", "", "Record title (required)")
	processCmd.Flags().StringVar(&processDescription, "description", "", "Record description")
	processCmd.Flags().StringVar(&processType, "type", "other", "Record type (lab/imaging/prescription/diagnostic/vaccination/consultation/surgery/other)")
	processCmd.Flags().StringVar(&processSubType, "subtype", "", "Record subtype, e.g. \"Blood Test\"")
	processCmd.Flags().StringVar(&processPriority, "priority", "medium", "Priority (low/medium/high/critical)")
	processCmd.Flags().StringSliceVar(&processTags, "tag", nil, "Free-form tags (repeatable)")
	processCmd.Flags().StringVar(&processText, "text", "", "Plain text content")
	processCmd.Flags().StringVar(&processFilePath, "file", "", "Path of a file to attach")
	processCmd.Flags().StringVar(&processProvider, "provider", "", "Provider name")
	processCmd.Flags().StringVar(&processHospital, "hospital", "", "Hospital name")
	processCmd.Flags().StringVar(&processLicense, "license", "", "Provider license number")
	processCmd.MarkFlagRequired("patient-email")
	processCmd.MarkFlagRequired("title")
}
