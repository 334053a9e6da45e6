package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/config"
	"github.com/jonathan/jobportal/internal/types"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage the local jobs table",
	Long:  "Jobs are owned by the job service. These commands seed a development database.",
}

var jobsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Insert a job posting",
	RunE:  runJobsAdd,
}

var (
	jobTitle    string
	jobCategory string
	jobCountry  string
	jobPostedBy string
)

func init() {
	jobsAddCmd.Flags().StringVar(&jobTitle, "title", "", "Job title (required)")
	jobsAddCmd.Flags().StringVar(&jobCategory, "category", "", "Job category")
	jobsAddCmd.Flags().StringVar(&jobCountry, "country", "", "Country")
	jobsAddCmd.Flags().StringVar(&jobPostedBy, "posted-by", "", "Employer user ID (required)")

	if err := jobsAddCmd.MarkFlagRequired("title"); err != nil {
		panic(fmt.Sprintf("failed to mark title flag as required: %v", err))
	}
	if err := jobsAddCmd.MarkFlagRequired("posted-by"); err != nil {
		panic(fmt.Sprintf("failed to mark posted-by flag as required: %v", err))
	}

	jobsCmd.AddCommand(jobsAddCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsAdd(cmd *cobra.Command, _ []string) error {
	postedBy, err := uuid.Parse(jobPostedBy)
	if err != nil {
		return fmt.Errorf("invalid --posted-by: %w", err)
	}
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}

	database, err := openDatabase(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	job, err := database.CreateJob(cmd.Context(), types.Job{
		Title:    jobTitle,
		Category: jobCategory,
		Country:  jobCountry,
		PostedBy: postedBy,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(job)
}
