package main

import (
	"github.com/spf13/cobra"
)

var (
	industry     string
	profilesPath string
)

var rootCmd = &cobra.Command{
	Use:   "leadctl",
	Short: "Operate the lead qualification bot",
	Long: `leadctl runs the lead qualification conversation locally and maintains
stored classifications. Configuration is read from the environment and .env,
the same way the API server reads it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&industry, "industry", "", "business script to use (defaults to INDUSTRY)")
	rootCmd.PersistentFlags().StringVar(&profilesPath, "profiles", "", "business profiles YAML (defaults to BUSINESS_PROFILES_PATH)")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
