package main

import (
	"os"

	"github.com/spf13/cobra"
)

const componentName = "os_keystone_service"

var rootCmd = &cobra.Command{
	Use:   componentName + " ARGS_FILE",
	Short: "Manage OpenStack Identity service entries",
	Long:  "Ansible binary module that ensures a Keystone service entry is present or absent",
	Args:  cobra.ExactArgs(1),
	Run:   runModule,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
