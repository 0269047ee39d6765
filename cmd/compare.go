package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jsphweid/midicompare/engine"
	"github.com/jsphweid/midicompare/model"
	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"
)

var (
	compareMode string
	compareOut  string
)

func init() {
	compareCmd.Flags().StringVarP(&compareMode, "mode", "m", "basic", "basic or enhanced")
	compareCmd.Flags().StringVarP(&compareOut, "out", "o", "", "where to write the common notes midi file")
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare <file1> <file2>",
	Short: "Compares two files",
	Long:  `Compares two midi or wav files and optionally writes the notes they share.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(runCompare(args[0], args[1]))
	},
}

func runCompare(path1, path2 string) error {
	mode, err := engine.ParseMode(compareMode)
	if err != nil {
		return err
	}
	a, err := newAppFromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	doc1, err := a.loadDocument(ctx, path1, nil)
	if err != nil {
		return err
	}
	doc2, err := a.loadDocument(ctx, path2, nil)
	if err != nil {
		return err
	}

	res, err := a.engine.Compare(ctx, doc1, doc2, mode)
	if err != nil {
		return err
	}

	var midiBytes []byte
	switch r := res.(type) {
	case model.ComparisonResult:
		printBasic(r)
		midiBytes = r.OutputMidi
	case model.EnhancedComparisonResult:
		printEnhanced(r)
		midiBytes = r.OutputMidi
	}

	if compareOut != "" {
		if err := os.WriteFile(compareOut, midiBytes, 0666); err != nil {
			return xerrors.New(err)
		}
		fmt.Printf("Wrote common notes to %v\n", compareOut)
	}
	return nil
}

func printBasic(r model.ComparisonResult) {
	fmt.Printf("similarity: %.1f%%\n", r.Similarity*100)
	fmt.Printf("common notes: %v (of %v and %v)\n", r.CommonNoteCount, r.TotalNotes1, r.TotalNotes2)
}

func printEnhanced(r model.EnhancedComparisonResult) {
	printBasic(r.ComparisonResult)
	fmt.Printf("note similarity: %.1f%%\n", r.NoteSimilarity*100)
	fmt.Printf("harmonic similarity: %.1f%%\n", r.HarmonicSimilarity*100)
	fmt.Printf("rhythm similarity: %.1f%%\n", r.RhythmSimilarity*100)
	fmt.Printf("key similarity: %.1f%%\n", r.KeySimilarity*100)
	fmt.Printf("common chords: %v\n", r.Details.CommonChords)
	fmt.Printf("tempo: %v vs %v bpm (%.1f%%)\n", r.Details.Tempo.Tempo1, r.Details.Tempo.Tempo2, r.Details.Tempo.Similarity*100)
	fmt.Printf("key: %v vs %v (distance %v)\n", r.Details.Keys.Key1, r.Details.Keys.Key2, r.Details.Keys.Distance)
}
