package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/midicompare/convert"
	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"
)

var convertOutDir string

func init() {
	convertCmd.Flags().StringVarP(&convertOutDir, "out-dir", "o", ".", "directory for the converted midi file")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <file.wav>",
	Short: "Converts audio to midi",
	Long:  `Converts a wav file to a short midi phrase. Unreadable audio produces a fallback scale.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(runConvert(args[0]))
	},
}

func runConvert(path string) error {
	a, err := newAppFromEnv()
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return xerrors.New(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return xerrors.New(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// stages can arrive faster than they are worth printing
	debounced := debounce.New(100 * time.Millisecond)
	res, err := a.converter.Convert(ctx, convert.Request{
		Fingerprint: convert.Fingerprint{Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()},
		Data:        data,
		OnProgress: func(p convert.Progress) {
			debounced(func() {
				fmt.Printf("[%3d%%] %v\n", p.Percent, p.Message)
			})
		},
	})
	if err != nil {
		return err
	}

	out := filepath.Join(convertOutDir, res.Filename)
	if err := os.WriteFile(out, res.Midi, 0666); err != nil {
		return xerrors.New(err)
	}
	if res.Fallback {
		fmt.Println("Could not read audio, wrote a fallback scale instead")
	}
	fmt.Printf("Converted %v to %v in %.1fs (%v notes, confidence %.2f)\n",
		path, out, res.ProcessingTime.Seconds(), res.Document.NumNotes(), res.Confidence)
	return nil
}
