package session

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/analysis"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/cleaning"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataio"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/log"
)

func testLogger() log.Logger {
	logger, _ := log.NewTestLogger(log.LevelError)
	return logger
}

func rawData() *dataset.Dataset {
	return dataset.MustNew(
		dataset.MustNewColumn("x", dataset.Numeric, []any{1.0, 2.0, 2.0, nil, 4.0, 5.0}),
		dataset.MustNewColumn("y", dataset.Numeric, []any{2.0, 4.0, 4.0, 8.0, 8.0, 10.0}),
	)
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(rawData(), WithLogger(testLogger()), WithSource("memory"))
	require.NoError(t, err)
	return s
}

var dropAll = cleaning.RuleSet{
	MissingValues: &cleaning.MissingValueRule{Policy: cleaning.MissingDrop},
	Duplicates:    &cleaning.DuplicateRule{Policy: cleaning.DuplicateDrop},
}

func TestNew(t *testing.T) {
	s := newSession(t)
	assert.NotEqual(t, uuid.Nil, s.ID())
	assert.Equal(t, "memory", s.Source())
	assert.False(t, s.IsCleaned())
	assert.Same(t, s.Raw(), s.Current())
	assert.Nil(t, s.Cleaned())

	other := newSession(t)
	assert.NotEqual(t, s.ID(), other.ID())

	_, err := New(nil)
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))
}

func TestCleanAlwaysStartsFromRaw(t *testing.T) {
	s := newSession(t)
	engine := cleaning.NewEngine(cleaning.WithLogger(testLogger()))

	report, err := s.Clean(engine, dropAll)
	require.NoError(t, err)
	require.Len(t, report.Stages, 2)
	assert.Equal(t, 4, s.Current().NumRows())
	assert.Equal(t, 6, s.Raw().NumRows(), "raw dataset is never modified")

	// Cleaning again with only the duplicate rule sees the raw rows again.
	_, err = s.Clean(engine, cleaning.RuleSet{Duplicates: &cleaning.DuplicateRule{Policy: cleaning.DuplicateDrop}})
	require.NoError(t, err)
	assert.Equal(t, 5, s.Current().NumRows())

	rules, last := s.LastClean()
	assert.Nil(t, rules.MissingValues)
	assert.Len(t, last.Stages, 1)
}

func TestCleanFailureKeepsPreviousResult(t *testing.T) {
	s := newSession(t)
	engine := cleaning.NewEngine(cleaning.WithLogger(testLogger()))
	_, err := s.Clean(engine, dropAll)
	require.NoError(t, err)
	before := s.Cleaned()

	_, err = s.Clean(engine, cleaning.RuleSet{MissingValues: &cleaning.MissingValueRule{Policy: cleaning.MissingFill}})
	var cfg *errors.ConfigError
	require.True(t, errors.As(err, &cfg))
	assert.Same(t, before, s.Cleaned())

	s.ResetCleaning()
	assert.False(t, s.IsCleaned())
	assert.Same(t, s.Raw(), s.Current())
}

func TestDatasetSelection(t *testing.T) {
	s := newSession(t)

	_, err := s.Dataset(Cleaned)
	var cfg *errors.ConfigError
	assert.True(t, errors.As(err, &cfg))

	_, err = s.Dataset("other")
	assert.True(t, errors.As(err, &cfg))

	ds, err := s.Dataset(Raw)
	require.NoError(t, err)
	assert.Same(t, s.Raw(), ds)

	assert.Equal(t, 6, s.Preview(0).NumRows())
	assert.Equal(t, 2, s.Preview(2).NumRows())
}

func TestAnalyzeUsesCurrentDataset(t *testing.T) {
	s := newSession(t)
	engine := cleaning.NewEngine(cleaning.WithLogger(testLogger()))
	_, err := s.Clean(engine, dropAll)
	require.NoError(t, err)

	d := analysis.NewDispatcher(analysis.WithLogger(testLogger()))
	res, err := s.Analyze(d, analysis.Request{Algorithm: "kmeans", Features: []string{"x", "y"}, NClusters: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, res.TrainSize)
}

func TestExport(t *testing.T) {
	s := newSession(t)
	dir := t.TempDir()

	path, err := s.Export(Current, "csv", "", dir)
	require.NoError(t, err)
	assert.Regexp(t, `data_export_\d{14}\.csv$`, filepath.Base(path))

	engine := cleaning.NewEngine(cleaning.WithLogger(testLogger()))
	_, err = s.Clean(engine, dropAll)
	require.NoError(t, err)

	path, err = s.Export(Cleaned, "excel", "result", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "result.xlsx"), path)

	loaded, err := dataio.Load(path, dataio.WithLogger(testLogger()))
	require.NoError(t, err)
	assert.True(t, s.Cleaned().Equal(loaded))

	path, err = s.Export(Raw, "csv", "", dir)
	require.NoError(t, err)
	assert.Regexp(t, `data_export_\d{14}\.csv$`, filepath.Base(path))
}

func TestDefaultFilename(t *testing.T) {
	ts := time.Date(2024, 1, 31, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "cleaned_data_20240131153000", DefaultFilename(true, ts))
	assert.Equal(t, "data_export_20240131153000", DefaultFilename(false, ts))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path, err := dataio.Export(rawData(), "csv", "raw", dir, dataio.WithLogger(testLogger()))
	require.NoError(t, err)

	s, err := Open(path, WithLogger(testLogger()))
	require.NoError(t, err)
	assert.Equal(t, path, s.Source())
	assert.True(t, rawData().Equal(s.Raw()))

	_, err = Open(filepath.Join(dir, "missing.csv"), WithLogger(testLogger()))
	assert.Error(t, err)
}

func TestConcurrentCleanAndRead(t *testing.T) {
	s := newSession(t)
	engine := cleaning.NewEngine(cleaning.WithLogger(testLogger()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Clean(engine, dropAll)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			n := s.Current().NumRows()
			assert.Contains(t, []int{4, 6}, n)
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, s.Current().NumRows())
}
