package main

import (
	"os"

	"github.com/spf13/cobra"
)

const componentName = "heat"

var rootCmd = &cobra.Command{
	Use:   componentName + " ARGS_FILE",
	Short: "Manage OpenStack Heat orchestration stacks",
	Long:  "Ansible binary module that creates or deletes a Heat stack and waits for the operation to complete",
	Args:  cobra.ExactArgs(1),
	Run:   runModule,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
