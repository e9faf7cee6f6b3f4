package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsphweid/boomparts/constants"
	"github.com/jsphweid/boomparts/engine"
	"github.com/jsphweid/boomparts/manifest"
	"github.com/jsphweid/boomparts/model"
)

var inspectManifest bool

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectManifest, "manifest", false, "treat the argument as a manifest.toml or job.json")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <score>",
	Short: "Shows the tubes a score needs",
	Long: `Shows every tube the score needs, how many copies of it sound at once and the
times it is hit. With --manifest, lists the parts of a written manifest instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectManifest {
			return inspectManifestFile(cmd.OutOrStdout(), args[0])
		}
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		s, err := loadScore(cfg, logger, args[0])
		if err != nil {
			return err
		}
		opts, err := cfg.EngineOptions(logger)
		if err != nil {
			return err
		}
		opts.Policy = engine.PolicyBestEffort
		inspect(cmd.OutOrStdout(), s, engine.Run(s, opts))
		return nil
	},
}

func inspect(out io.Writer, s model.Score, res engine.Result) {
	s = s.Clone()
	s.Normalize()
	fmt.Fprintf(out, "%s: %d notes in %d voices\n", s.Title, s.NoteCount(), len(s.Voices))

	rows := make([][]string, 0, len(res.Resolutions))
	for _, r := range res.Resolutions {
		var hits []string
		for _, iv := range res.Timeline.Tubes[r.Tube] {
			hits = append(hits, strconv.FormatFloat(secondsAt(iv.Onset, s), 'f', 2, 64))
		}
		rows = append(rows, []string{
			r.Tube.Name(),
			r.Tube.String(),
			strconv.Itoa(len(hits)),
			strconv.Itoa(r.Depth),
			strings.Join(hits, " "),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Tube", "Colour", "Hits", "Copies", "Hit times (s)"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))

	if n := res.Diagnostics.Count(model.UnsupportedPitch); n > 0 {
		fmt.Fprintf(out, "%d notes have no tube\n", n)
	}
	if n := res.Diagnostics.Count(model.MalformedNote); n > 0 {
		fmt.Fprintf(out, "%d notes are malformed\n", n)
	}
	fmt.Fprintf(out, "%d performers needed\n", len(res.Assignment.Performers))
}

// secondsAt converts a tick position to seconds using the score's tempo
// marks. Tempos must be sorted.
func secondsAt(at model.Ticks, s model.Score) float64 {
	bpm := constants.DefaultBPM
	var last model.Ticks
	var secs float64
	perTick := func(bpm float64) float64 { return 60 / bpm / float64(s.Division) }
	for _, t := range s.Tempos {
		if t.At > at {
			break
		}
		secs += float64(t.At-last) * perTick(bpm)
		last, bpm = t.At, t.BPM
	}
	return secs + float64(at-last)*perTick(bpm)
}

func inspectManifestFile(out io.Writer, path string) error {
	m, err := manifest.Read(path)
	if err != nil {
		return err
	}
	if m.BatchID != "" {
		fmt.Fprintln(out, manifest.Describe(m))
	}
	rows := make([][]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		rows = append(rows, []string{strconv.Itoa(e.Performer), e.Label, e.Source, e.Output})
	}
	fmt.Fprintln(out, renderTable([]string{"Performer", "Label", "Source", "Output"}, rows, []columnAlignment{alignRight}))
	return nil
}
