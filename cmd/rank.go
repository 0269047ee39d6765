package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/jsphweid/midicompare/engine"
	"github.com/jsphweid/midicompare/model"
	"github.com/jsphweid/midicompare/util"
	"github.com/spf13/cobra"
)

var (
	rankMode  string
	rankLimit int
)

func init() {
	rankCmd.Flags().StringVarP(&rankMode, "mode", "m", "basic", "basic or enhanced")
	rankCmd.Flags().IntVarP(&rankLimit, "limit", "n", 0, "max number of files to compare (0 is all)")
	rootCmd.AddCommand(rankCmd)
}

var rankCmd = &cobra.Command{
	Use:   "rank <reference> <dir>",
	Short: "Ranks a library against a reference",
	Long:  `Compares a reference file with every midi file under dir, most similar first.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(runRank(args[0], args[1]))
	},
}

type ranked struct {
	path       string
	similarity float64
}

func runRank(reference, dir string) error {
	mode, err := engine.ParseMode(rankMode)
	if err != nil {
		return err
	}
	a, err := newAppFromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ref, err := a.loadDocument(ctx, reference, nil)
	if err != nil {
		return err
	}
	paths, err := util.GatherAllMidiPaths(dir, rankLimit)
	if err != nil {
		return err
	}

	var results []ranked
	for i, path := range paths {
		fmt.Printf("Comparing %v of %v midi files\n", i+1, len(paths))
		doc, err := a.loadDocument(ctx, path, nil)
		if err != nil {
			fmt.Printf("Skipping %v because: %v\n", path, err)
			continue
		}
		res, err := a.engine.Compare(ctx, ref, doc, mode)
		if err != nil {
			return err
		}
		results = append(results, ranked{path: path, similarity: similarityOf(res)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].similarity > results[j].similarity
	})
	for _, r := range results {
		fmt.Printf("%6.1f%%  %v\n", r.similarity*100, r.path)
	}
	return nil
}

func similarityOf(res any) float64 {
	switch r := res.(type) {
	case model.ComparisonResult:
		return r.Similarity
	case model.EnhancedComparisonResult:
		return r.Similarity
	}
	return 0
}
