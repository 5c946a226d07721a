package results

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avestel/MLRunViewer/src/aggregators"
	"github.com/avestel/MLRunViewer/src/tools"
)

// writeResultDir lays out a result directory with the given files.
func writeResultDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

const studyContent = "step\tTraining loss\tTraining point count\n" +
	"100\t2.5\t60000\n" +
	"200\t1.5\t120000\n"

const evalContent = "step\tAccuracy\n" +
	"200\t0.5\n" +
	"300\t0.6\n"

func TestNewSession_MissingDirectory(t *testing.T) {
	_, err := NewSession(filepath.Join(t.TempDir(), "no-such-run"))
	require.Error(t, err)
	require.True(t, tools.IsUserError(err), "missing directory must be a user-facing error, got %v", err)
}

func TestNewSession_StudyOnly(t *testing.T) {
	dir := writeResultDir(t, map[string]string{"study": studyContent})
	s, err := NewSession(dir)
	require.NoError(t, err)
	require.Nil(t, s.JSON)
	require.Empty(t, s.Config)
	require.NotNil(t, s.Data)
	require.Equal(t, StepIndexName, s.Data.IndexName)
	require.Equal(t, []int64{100, 200}, s.Data.Index)
	require.Equal(t, []string{"Training loss", "Training point count"}, s.Data.ColumnNames())
}

func TestNewSession_MergesStudyAndEval(t *testing.T) {
	dir := writeResultDir(t, map[string]string{"study": studyContent, "eval": evalContent})
	s, err := NewSession(dir)
	require.NoError(t, err)
	require.Equal(t, []int64{100, 200, 300}, s.Data.Index)
	acc := s.Data.Column("Accuracy")
	require.NotNil(t, acc)
	require.True(t, math.IsNaN(acc.Values[0]))
	require.Equal(t, 0.5, acc.Values[1])
	loss := s.Data.Column("Training loss")
	require.True(t, math.IsNaN(loss.Values[2]))
}

func TestNewSession_ReadsConfigs(t *testing.T) {
	dir := writeResultDir(t, map[string]string{
		"study":       studyContent,
		"config":      "  --dataset mnist --gar average  \n",
		"config.json": `{"dataset": "mnist", "gar": "average", "learning_rate": 0.1}`,
	})
	s, err := NewSession(dir)
	require.NoError(t, err)
	require.Equal(t, "--dataset mnist --gar average", s.Config)
	require.Equal(t, "mnist", s.JSON["dataset"])
}

func TestComputeEpoch(t *testing.T) {
	dir := writeResultDir(t, map[string]string{
		"study":       studyContent,
		"config.json": `{"dataset": "mnist"}`,
	})
	s, err := NewSession(dir)
	require.NoError(t, err)
	s.ComputeEpoch()
	epoch := s.Data.Column("Epoch number")
	require.NotNil(t, epoch)
	require.Equal(t, []float64{1, 2}, epoch.Values)

	// Idempotent: a second run must not recompute or duplicate.
	epoch.Values[0] = 99
	s.ComputeEpoch()
	require.Equal(t, 99.0, s.Data.Column("Epoch number").Values[0])
	count := 0
	for _, c := range s.Data.Columns {
		if c.Name == "Epoch number" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestComputeEpoch_UnknownDatasetIsNoOp(t *testing.T) {
	dir := writeResultDir(t, map[string]string{
		"study":       studyContent,
		"config.json": `{"dataset": "imagenet"}`,
	})
	s, err := NewSession(dir)
	require.NoError(t, err)
	s.ComputeEpoch()
	require.False(t, s.Data.HasColumn("Epoch number"))
}

func TestComputeLR_Constant(t *testing.T) {
	dir := writeResultDir(t, map[string]string{
		"study":       studyContent,
		"config.json": `{"learning_rate": 0.1}`,
	})
	s, err := NewSession(dir)
	require.NoError(t, err)
	s.ComputeLR()
	lr := s.Data.Column("Learning rate")
	require.NotNil(t, lr)
	require.Equal(t, []float64{0.1, 0.1}, lr.Values)
}

func TestComputeLR_StaircaseDecay(t *testing.T) {
	study := "step\tTraining loss\n0\t2.5\n15\t2.0\n100\t1.0\n"
	dir := writeResultDir(t, map[string]string{
		"study":       study,
		"config.json": `{"learning_rate": 0.1, "learning_rate_decay": 50, "learning_rate_decay_delta": 10}`,
	})
	s, err := NewSession(dir)
	require.NoError(t, err)
	s.ComputeLR()
	lr := s.Data.Column("Learning rate")
	require.NotNil(t, lr)
	// lr / (floor(step/delta)*delta/decay + 1)
	require.InDelta(t, 0.1, lr.Values[0], 1e-12)
	require.InDelta(t, 0.1/(10.0/50.0+1.0), lr.Values[1], 1e-12)
	require.InDelta(t, 0.1/(100.0/50.0+1.0), lr.Values[2], 1e-12)
}

func TestComputeAll_SurvivesMissingConfig(t *testing.T) {
	dir := writeResultDir(t, map[string]string{"study": studyContent})
	s, err := NewSession(dir)
	require.NoError(t, err)
	require.Same(t, s, s.ComputeAll())
	require.False(t, s.Data.HasColumn("Epoch number"))
	require.False(t, s.Data.HasColumn("Learning rate"))
}

func TestComputeAll_RunsEveryComputation(t *testing.T) {
	dir := writeResultDir(t, map[string]string{
		"study":       studyContent,
		"config.json": `{"dataset": "cifar10", "learning_rate": 0.5}`,
	})
	s, err := NewSession(dir)
	require.NoError(t, err)
	s.ComputeAll()
	require.True(t, s.Data.HasColumn("Epoch number"))
	require.True(t, s.Data.HasColumn("Learning rate"))
	require.Equal(t, 60000.0/50000.0, s.Data.Column("Epoch number").Values[0])
}

func TestHasKnownRatio(t *testing.T) {
	aggregators.Register(aggregators.Rule{
		Name:       "krum",
		UpperBound: func(n, f int) float64 { return float64(f) / float64(n) },
	})
	aggregators.Register(aggregators.Rule{Name: "average"})

	dir := writeResultDir(t, map[string]string{
		"study":       studyContent,
		"config.json": `{"gar": "krum"}`,
	})
	s, err := NewSession(dir)
	require.NoError(t, err)
	require.True(t, s.HasKnownRatio())

	dir = writeResultDir(t, map[string]string{
		"study":       studyContent,
		"config.json": `{"gar": "average"}`,
	})
	s, err = NewSession(dir)
	require.NoError(t, err)
	require.False(t, s.HasKnownRatio(), "rule without an upper bound has no known ratio")

	dir = writeResultDir(t, map[string]string{"study": studyContent})
	s, err = NewSession(dir)
	require.NoError(t, err)
	require.False(t, s.HasKnownRatio(), "absent JSON configuration has no known ratio")
}

func TestDescribe(t *testing.T) {
	dir := writeResultDir(t, map[string]string{
		"study": "step\tTraining loss\n1\t1\n2\t2\n3\t3\n4\t4\n",
	})
	s, err := NewSession(dir)
	require.NoError(t, err)
	summaries := s.Describe("loss")
	require.Len(t, summaries, 1)
	sum := summaries[0]
	require.Equal(t, "Training loss", sum.Name)
	require.Equal(t, 4, sum.Count)
	require.InDelta(t, 2.5, sum.Mean, 1e-12)
	require.InDelta(t, 2.5, sum.Median, 1e-12)
	require.Equal(t, 1.0, sum.Min)
	require.Equal(t, 4.0, sum.Max)
}

func TestGet_DelegatesToSelect(t *testing.T) {
	dir := writeResultDir(t, map[string]string{"study": studyContent, "eval": evalContent})
	s, err := NewSession(dir)
	require.NoError(t, err)
	require.Same(t, s.Data, s.Get(), "Get with no fragments must return the data by reference")
	sub := s.Get("acc")
	require.Equal(t, []string{"Accuracy"}, sub.ColumnNames())
}
