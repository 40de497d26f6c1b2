package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a question/answer interview engine",
	Long:  `Parley collects structured data through dynamic interviews defined in simple YAML files.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "interviews.yml", "Interview config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}
