package results

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/avestel/MLRunViewer/src/aggregators"
	"github.com/avestel/MLRunViewer/src/gui"
	"github.com/avestel/MLRunViewer/src/tools"
)

// Training set sizes of the datasets the runners log against.
var trainingSetSizes = map[string]float64{
	"mnist":        60000,
	"fashionmnist": 60000,
	"cifar10":      50000,
	"cifar100":     50000,
}

// studyMissingLiteral is the padded token the step logger writes for missing
// training measurements.
const studyMissingLiteral = "     nan"

// Session holds one run's configuration and its merged training/evaluation
// time series, indexed by step number.
type Session struct {
	Name   string
	Path   string
	Config string                 // raw configuration text, "" when absent
	JSON   map[string]interface{} // parsed config.json, nil when absent
	Data   *Table                 // merged study/eval table, nil when both absent
}

// NewSession loads a result directory. The directory itself must exist;
// every file inside it is loaded best-effort, with failures logged as
// warnings and the corresponding field left absent.
func NewSession(path string) (*Session, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, tools.NewUserErrorf("Result directory %q cannot be accessed or does not exist", path)
	}
	s := &Session{Name: filepath.Base(path), Path: path}
	if raw, err := os.ReadFile(filepath.Join(path, "config")); err != nil {
		tools.Warningf("Result directory %q: unable to read configuration (%v)", path, err)
	} else {
		s.Config = strings.TrimSpace(string(raw))
	}
	if raw, err := os.ReadFile(filepath.Join(path, "config.json")); err != nil {
		tools.Warningf("Result directory %q: unable to read JSON configuration (%v)", path, err)
	} else if err := json.Unmarshal(raw, &s.JSON); err != nil {
		s.JSON = nil
		tools.Warningf("Result directory %q: unable to parse JSON configuration (%v)", path, err)
	}
	study, err := ReadLog(filepath.Join(path, "study"), studyMissingLiteral)
	if err != nil {
		tools.Warningf("Result directory %q: unable to read training data (%v)", path, err)
		study = nil
	}
	eval, err := ReadLog(filepath.Join(path, "eval"))
	if err != nil {
		tools.Warningf("Result directory %q: unable to read evaluation data (%v)", path, err)
		eval = nil
	}
	switch {
	case study != nil && eval != nil:
		s.Data = study.Join(eval)
	case study != nil:
		s.Data = study
	case eval != nil:
		s.Data = eval
	}
	return s, nil
}

// Table exposes the merged data so a Session can be passed directly to the
// plotting package.
func (s *Session) Table() *Table { return s.Data }

// Get selects columns of the merged data by name fragments; no fragments
// selects everything. The result is a reference into the session's data.
func (s *Session) Get(fragments ...string) *Table {
	if s.Data == nil {
		return nil
	}
	return Select(s.Data, fragments...)
}

// Display shows the (fragment-selected) data in a table-viewer window and
// returns the session for chaining.
func (s *Session) Display(fragments ...string) *Session {
	sub := s.Get(fragments...)
	if sub == nil {
		tools.Warningf("Session %q has no data to display", s.Name)
		return s
	}
	subset := ""
	if len(fragments) > 0 {
		subset = " (subset)"
	}
	gui.ShowGrid(sub.StringGrid(), fmt.Sprintf("Session data%s for %q", subset, s.Name))
	return s
}

// HasKnownRatio reports whether the session's aggregation rule (JSON "gar"
// key) is registered and declares an upper bound.
func (s *Session) HasKnownRatio() bool {
	if s.JSON == nil {
		tools.Warningf("No valid JSON-formatted configuration, cannot tell whether the associated GAR has a ratio")
		return false
	}
	name, ok := s.JSON["gar"].(string)
	if !ok {
		tools.Warningf("No valid JSON-formatted configuration, cannot tell whether the associated GAR has a ratio")
		return false
	}
	rule, ok := aggregators.Get(name)
	return ok && rule.UpperBound != nil
}

// computations is the explicit list of derived-column transforms run by
// ComputeAll. Each is individually idempotent and only warns when the
// configuration it needs is missing.
var computations = []func(*Session) *Session{
	(*Session).ComputeEpoch,
	(*Session).ComputeLR,
}

// ComputeAll runs every registered derived-column computation once and
// returns the session for chaining.
func (s *Session) ComputeAll() *Session {
	for _, compute := range computations {
		compute(s)
	}
	return s
}

// ComputeEpoch appends the "Epoch number" column (cumulative training point
// count divided by the dataset's training set size), if not already present.
func (s *Session) ComputeEpoch() *Session {
	const columnName = "Epoch number"
	if s.Data == nil || s.Data.HasColumn(columnName) {
		return s
	}
	dataset, ok := "", false
	if s.JSON != nil {
		dataset, ok = s.JSON["dataset"].(string)
	}
	if !ok {
		tools.Warningf("No valid JSON-formatted configuration, cannot compute the epoch number")
		return s
	}
	size, known := trainingSetSizes[dataset]
	if !known {
		tools.Warningf("Unknown dataset %q, cannot compute the epoch number", dataset)
		return s
	}
	count := s.Data.Column("Training point count")
	if count == nil || count.IsText() {
		tools.Warningf("Session %q has no %q column, cannot compute the epoch number", s.Name, "Training point count")
		return s
	}
	values := make([]float64, s.Data.Len())
	for i, v := range count.Values {
		values[i] = v / size
	}
	s.Data.AddColumn(columnName, values)
	return s
}

// ComputeLR appends the "Learning rate" column, if not already present. With
// a positive decay the rate follows the runners' staircase schedule
// lr / (floor(step/delta)*delta/decay + 1), otherwise it is constant.
func (s *Session) ComputeLR() *Session {
	const columnName = "Learning rate"
	if s.Data == nil || s.Data.HasColumn(columnName) {
		return s
	}
	if s.JSON == nil {
		tools.Warningf("No valid JSON-formatted configuration, cannot compute the learning rate")
		return s
	}
	lr, ok := jsonNumber(s.JSON, "learning_rate")
	if !ok {
		tools.Warningf("No valid JSON-formatted configuration, cannot compute the learning rate")
		return s
	}
	decay, _ := jsonNumber(s.JSON, "learning_rate_decay")
	delta, found := jsonNumber(s.JSON, "learning_rate_decay_delta")
	if !found {
		delta = 1
	}
	values := make([]float64, s.Data.Len())
	if decay > 0 {
		for i, step := range s.Data.Index {
			values[i] = lr / (math.Floor(float64(step)/delta)*delta/decay + 1)
		}
	} else {
		for i := range values {
			values[i] = lr
		}
	}
	s.Data.AddColumn(columnName, values)
	return s
}

func jsonNumber(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}

// ColumnSummary aggregates one numeric column the way the batch summaries of
// the monitoring pipeline do: count of present samples plus the usual spread
// statistics.
type ColumnSummary struct {
	Name   string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	P25    float64
	Median float64
	P75    float64
	Max    float64
}

// Describe summarizes the (fragment-selected) numeric columns. Text columns
// and all-missing columns are skipped.
func (s *Session) Describe(fragments ...string) []ColumnSummary {
	if s.Data == nil {
		return nil
	}
	var out []ColumnSummary
	for _, c := range Select(s.Data, fragments...).Columns {
		if c.IsText() {
			continue
		}
		samples := make(stats.Float64Data, 0, len(c.Values))
		for _, v := range c.Values {
			if !math.IsNaN(v) {
				samples = append(samples, v)
			}
		}
		if len(samples) == 0 {
			continue
		}
		cs := ColumnSummary{Name: c.Name, Count: len(samples)}
		cs.Mean, _ = stats.Mean(samples)
		cs.Std, _ = stats.StandardDeviation(samples)
		cs.Min, _ = stats.Min(samples)
		cs.P25, _ = stats.Percentile(samples, 25)
		cs.Median, _ = stats.Median(samples)
		cs.P75, _ = stats.Percentile(samples, 75)
		cs.Max, _ = stats.Max(samples)
		out = append(out, cs)
	}
	return out
}
