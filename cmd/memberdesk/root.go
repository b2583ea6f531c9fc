package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "memberdesk",
	Short:         "Memberdesk is a membership dashboard with member-number login.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, membersCmd)
}
