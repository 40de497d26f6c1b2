package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// starterConfig is the golden-path interview written by `parley init`.
const starterConfig = `interviews:
  - id: hello
    questions:
      - id: q-name
        title: Welcome!
        fields:
          - type: text
            label: What is your name?
            set: name
      - id: q-age
        title: Nice to meet you, {{ name }}
        fields:
          - type: number
            integer: true
            min: 0
            label: How old are you?
            set: age
    steps:
      - ask: q-name
      - ask: q-age
      - exit: See you next year, {{ name }}!
        when: age < 18
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter interview config",
	Long:  `Creates an interviews.yml with a small example interview to build on.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Error: %s already exists\n", configPath)
			os.Exit(1)
		}
		if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", configPath)
		fmt.Println("Try it: parley run hello")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
