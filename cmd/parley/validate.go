package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aretw0/parley/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the interview config for consistency",
	Long:  `Loads the config file and reports malformed questions, steps or includes.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		if len(args) > 0 {
			configPath = args[0]
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		ids := make([]string, 0, len(cfg.Interviews))
		for id := range cfg.Interviews {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			iv := cfg.Interviews[id]
			fmt.Printf("%s: %d questions, %d steps\n", id, len(iv.Questions), len(iv.Steps))
		}
		fmt.Println("Config is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
