package model_selection

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// ScoredConfiguration is one leaderboard entry.
type ScoredConfiguration struct {
	// Index is the position of Config in grid enumeration order.
	Index  int           `yaml:"index"`
	Config Configuration `yaml:"params"`
	Score  float64       `yaml:"score"`
	// Std is the sample standard deviation of the fold scores; zero for
	// out-of-bag scoring.
	Std        float64   `yaml:"std"`
	FoldScores []float64 `yaml:"fold_scores,omitempty"`
}

// Result is the outcome of a tuning run.
type Result struct {
	RunID      string
	Family     string
	Resampling string
	Scorer     metrics.Scorer

	// Leaderboard lists the evaluated configurations in enumeration order.
	Leaderboard []ScoredConfiguration
	Best        ScoredConfiguration
	// BestIndex is the position of Best in Leaderboard, -1 when empty.
	BestIndex int

	// BestModel is Best.Config refitted on the full training set; nil when
	// refit is disabled or the run was cancelled.
	BestModel model.Estimator

	// Partial is set when the run was cancelled before every configuration
	// was evaluated.
	Partial bool
}

// BestParams returns the best configuration as a parameter map.
func (r *Result) BestParams() map[string]interface{} {
	return r.Best.Config.Map()
}

type yamlReport struct {
	RunID           string                `yaml:"run_id"`
	Family          string                `yaml:"family"`
	Resampling      string                `yaml:"resampling"`
	Scorer          string                `yaml:"scorer"`
	GreaterIsBetter bool                  `yaml:"greater_is_better"`
	Partial         bool                  `yaml:"partial"`
	Best            *ScoredConfiguration  `yaml:"best,omitempty"`
	Leaderboard     []ScoredConfiguration `yaml:"leaderboard"`
}

// WriteYAML writes the run as a YAML document.
func (r *Result) WriteYAML(w io.Writer) error {
	report := yamlReport{
		RunID:           r.RunID,
		Family:          r.Family,
		Resampling:      r.Resampling,
		Scorer:          r.Scorer.Name,
		GreaterIsBetter: r.Scorer.GreaterIsBetter,
		Partial:         r.Partial,
		Leaderboard:     r.Leaderboard,
	}
	if r.BestIndex >= 0 {
		best := r.Best
		report.Best = &best
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "model_selection: encode report")
	}
	return errors.WithStack(enc.Close())
}

// Summary renders the leaderboard as a table; the best entry is starred.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s | %s", r.Family, r.Resampling, r.Scorer.Name)
	if r.Partial {
		b.WriteString(" | partial")
	}
	b.WriteString("\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\t#\tscore\tstd\tparams")
	for i, e := range r.Leaderboard {
		mark := ""
		if i == r.BestIndex {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%s\n", mark, e.Index, e.Score, e.Std, e.Config)
	}
	_ = tw.Flush()
	return b.String()
}
