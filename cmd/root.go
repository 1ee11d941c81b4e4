// Package cmd wires up the face-clock command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-clock",
	Short: "Face recognition attendance system",
	Long: `Face Clock is an attendance system driven by face recognition.
A kiosk camera posts captures to the web API; the system extracts a face
embedding, matches it against enrolled employees and records alternating
entry/exit events per work day.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
