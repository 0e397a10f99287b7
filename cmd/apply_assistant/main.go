// Package main provides the entry point for the apply-assistant HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apply_assistant",
	Short: "Job application assistant HTTP API server",
	Long:  "Apply Assistant collects job postings, scores them against your resume and preferences, drafts applications, and exposes a review workflow via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
