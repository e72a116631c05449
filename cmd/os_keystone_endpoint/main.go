package main

import (
	"os"

	"github.com/spf13/cobra"
)

const componentName = "os_keystone_endpoint"

var rootCmd = &cobra.Command{
	Use:   componentName + " ARGS_FILE",
	Short: "Manage OpenStack Identity endpoint entries",
	Long:  "Ansible binary module that ensures a Keystone endpoint entry is present or absent",
	Args:  cobra.ExactArgs(1),
	Run:   runModule,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
