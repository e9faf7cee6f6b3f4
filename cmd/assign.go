package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jsphweid/boomparts/config"
	"github.com/jsphweid/boomparts/db"
	"github.com/jsphweid/boomparts/engine"
	"github.com/jsphweid/boomparts/file"
	"github.com/jsphweid/boomparts/manifest"
	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/notation"
	"github.com/jsphweid/boomparts/score"
	"github.com/jsphweid/boomparts/util"
)

var assignFlags struct {
	copies         int
	policy         string
	packing        string
	out            string
	format         string
	manifestFormat string
	clean          bool
	dryRun         bool
}

func init() {
	rootCmd.AddCommand(assignCmd)
	f := assignCmd.Flags()
	f.IntVar(&assignFlags.copies, "copies", 1, "copies owned of each tube")
	f.StringVar(&assignFlags.policy, "policy", "fail", "conflict policy: fail or best-effort")
	f.StringVar(&assignFlags.packing, "packing", "span", "performer packing: span or note")
	f.StringVarP(&assignFlags.out, "out", "o", "", "output directory")
	f.StringVar(&assignFlags.format, "format", "musicxml", "part format: musicxml or midi")
	f.StringVar(&assignFlags.manifestFormat, "manifest-format", "toml", "manifest format: toml or json")
	f.BoolVar(&assignFlags.clean, "clean", false, "empty the output directory first")
	f.BoolVar(&assignFlags.dryRun, "dry-run", false, "report the assignment without writing files")
}

var assignCmd = &cobra.Command{
	Use:   "assign <score>",
	Short: "Assigns tubes and performers for a score",
	Long: `Assigns every note of a MusicXML, MXL, MIDI or JSON score to a tube copy and a
performer, then writes one part per performer and a render manifest. Exits non-zero when
the assignment fails or a part can't be written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		if err := applyAssignFlags(cmd, cfg); err != nil {
			return err
		}
		return assign(cmd.OutOrStdout(), cfg, logger, args[0])
	},
}

func applyAssignFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("copies") {
		cfg.Inventory.Copies = assignFlags.copies
	}
	if f.Changed("policy") {
		cfg.Scheduling.ConflictPolicy = assignFlags.policy
	}
	if f.Changed("packing") {
		cfg.Scheduling.PerformerPacking = assignFlags.packing
	}
	if f.Changed("out") {
		cfg.Output.Dir = assignFlags.out
	}
	if f.Changed("format") {
		cfg.Output.Format = assignFlags.format
	}
	if f.Changed("manifest-format") {
		cfg.Output.ManifestFormat = assignFlags.manifestFormat
	}
	return cfg.Validate()
}

func assign(out io.Writer, cfg *config.Config, logger *zap.Logger, path string) error {
	s, err := loadScore(cfg, logger, path)
	if err != nil {
		return err
	}
	opts, err := cfg.EngineOptions(logger)
	if err != nil {
		return err
	}

	res := engine.Run(s, opts)
	if len(res.Diagnostics) > 0 {
		fmt.Fprintln(out, renderDiagnostics(res.Diagnostics))
	}
	if res.Failed {
		return res.Err()
	}
	fmt.Fprintln(out, renderParts(res.Parts))
	if assignFlags.dryRun {
		return nil
	}

	writer, err := notation.ForFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if assignFlags.clean {
		if err := util.RecreateOutputDir(cfg.Output.Dir); err != nil {
			return err
		}
	}
	emitter := manifest.Emitter{
		Writer: writer,
		Dir:    cfg.Output.Dir,
		Render: cfg.RenderSettings(),
		Format: cfg.Output.ManifestFormat,
		Logger: logger,
	}
	m, failed, err := emitter.Emit(res.Parts, notation.HeaderFor(s))
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		fmt.Fprintln(out, renderDiagnostics(failed))
	}
	fmt.Fprintln(out, manifest.Describe(m))
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d parts could not be written", len(failed), len(res.Parts))
	}
	return nil
}

// loadScore reads the score and, when enabled, fills in catalogue metadata.
// Metadata lookups are best effort.
func loadScore(cfg *config.Config, logger *zap.Logger, path string) (model.Score, error) {
	s, err := score.Load(path)
	if err != nil {
		return model.Score{}, err
	}
	if !cfg.Metadata.Enabled {
		return s, nil
	}
	store, err := db.New(cfg.Metadata)
	if err != nil {
		logger.Warn("metadata lookup unavailable", zap.Error(err))
		return s, nil
	}
	key := filepath.Base(path)
	mds, err := store.GetScoreMetadatas([]string{key})
	if err != nil {
		logger.Warn("metadata lookup failed", zap.String("score", key), zap.Error(err))
		return s, nil
	}
	if md, ok := mds[key]; ok {
		db.Apply(&s, md, file.TitleFromPath(path))
	}
	return s, nil
}

func renderDiagnostics(ds model.Diagnostics) string {
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		var tube string
		if d.Tube != nil {
			tube = d.Tube.String()
		}
		var locs []string
		for _, n := range d.Notes {
			locs = append(locs, n.Location())
		}
		where := strings.Join(locs, ", ")
		if d.Kind == model.PartSerializationFailure {
			where = "performer " + strconv.Itoa(d.Performer)
		}
		detail := d.Detail
		if d.Kind == model.IrresolvableTubeConflict {
			detail = fmt.Sprintf("needs %d copies, %d available", d.Required, d.Available)
		}
		if d.Cause != nil {
			if detail != "" {
				detail += ": "
			}
			detail += d.Cause.Error()
		}
		rows = append(rows, []string{d.Kind.String(), tube, where, detail})
	}
	return renderTable([]string{"Problem", "Tube", "Where", "Detail"}, rows, nil)
}

func renderParts(parts []model.Part) string {
	rows := make([][]string, 0, len(parts))
	for _, p := range parts {
		var tubes []string
		for _, t := range p.Tubes() {
			tubes = append(tubes, t.Name())
		}
		var overbooked int
		for _, pn := range p.Notes {
			if pn.Overbooked {
				overbooked++
			}
		}
		rows = append(rows, []string{p.Label, strings.Join(tubes, " "), strconv.Itoa(len(p.Notes)), strconv.Itoa(overbooked)})
	}
	return renderTable([]string{"Part", "Tubes", "Notes", "Extra copies"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight})
}
