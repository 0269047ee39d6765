package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "midicompare",
	Short: "Compares midi files",
	Long:  `Compares midi (or wav) files by notes, harmony, rhythm and key and writes the notes they share as a new midi file.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// a missing .env is fine
		_ = godotenv.Load()
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
