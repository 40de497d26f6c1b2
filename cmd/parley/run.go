package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/parley"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [interview-id]",
	Short: "Run an interview interactively",
	Long:  `Starts an interview from the config file and asks its questions on the terminal.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		target, _ := cmd.Flags().GetString("target")

		engine, err := parley.New(configPath)
		if err != nil {
			fmt.Printf("Error initializing parley: %v\n", err)
			os.Exit(1)
		}

		interviewID := ""
		if len(args) > 0 {
			interviewID = args[0]
		} else {
			// With a single configured interview the id can be omitted.
			for id := range engine.Interviews() {
				if interviewID != "" {
					fmt.Println("Error: multiple interviews configured, pass an interview id")
					os.Exit(1)
				}
				interviewID = id
			}
		}

		runner := parley.NewRunner()
		runner.Input = os.Stdin
		runner.Output = os.Stdout

		result, err := runner.Run(context.Background(), engine, interviewID, target)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if result == nil {
			return
		}

		encoded, err := json.MarshalIndent(result.Data, "", "  ")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(encoded))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("target", "", "Target handed back with the completed result")
}
