// Package session owns the datasets of one ingested file: the raw upload and,
// once cleaning has run, its cleaned version.
//
// A Session is created by the caller and passed explicitly to every step;
// nothing is kept in package state. All methods are safe for concurrent use.
// Cleaning always starts from the raw dataset, and readers see either the
// previous or the new cleaned dataset, never a partial one.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/analysis"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/cleaning"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataio"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/log"
)

// PreviewRows is the number of rows Preview returns by default.
const PreviewRows = 10

// Which selects one of the datasets held by a session.
type Which string

const (
	// Current is the cleaned dataset when present, else the raw one.
	Current Which = "current"
	Raw     Which = "raw"
	Cleaned Which = "cleaned"
)

// Session holds the raw and cleaned datasets of one file.
type Session struct {
	id      uuid.UUID
	source  string
	created time.Time
	base    log.Logger
	logger  log.Logger

	mu      sync.RWMutex
	raw     *dataset.Dataset
	cleaned *dataset.Dataset
	report  *cleaning.Report
	rules   cleaning.RuleSet
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithSource records where the raw dataset came from, usually a file path.
func WithSource(source string) Option {
	return func(s *Session) {
		s.source = source
	}
}

// New starts a session around an already loaded dataset.
func New(raw *dataset.Dataset, opts ...Option) (*Session, error) {
	if raw == nil {
		return nil, errors.NewValueError("session.New", "dataset must not be nil")
	}
	s := &Session{
		id:      uuid.New(),
		created: time.Now(),
		raw:     raw,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.GetLogger()
	}
	s.base = s.logger.With(log.SessionIDKey, s.id.String())
	s.logger = s.base.With(log.ComponentKey, "session")
	s.logger.Info("Session started",
		log.FileKey, s.source,
		log.RowsKey, raw.NumRows(),
		log.ColumnsKey, raw.NumCols(),
	)
	return s, nil
}

// Open loads path with dataio.Load and starts a session around it.
func Open(path string, opts ...Option) (*Session, error) {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	var loadOpts []dataio.Option
	if s.logger != nil {
		loadOpts = append(loadOpts, dataio.WithLogger(s.logger))
	}
	raw, err := dataio.Load(path, loadOpts...)
	if err != nil {
		return nil, err
	}
	return New(raw, append(opts, WithSource(path))...)
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Source returns the origin recorded with WithSource.
func (s *Session) Source() string { return s.source }

// Created returns when the session started.
func (s *Session) Created() time.Time { return s.created }

// Raw returns the dataset the session was started with.
func (s *Session) Raw() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw
}

// Cleaned returns the cleaned dataset, or nil if Clean has not succeeded yet.
func (s *Session) Cleaned() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cleaned
}

// IsCleaned reports whether a cleaned dataset is available.
func (s *Session) IsCleaned() bool {
	return s.Cleaned() != nil
}

// Current returns the cleaned dataset when available, else the raw one.
func (s *Session) Current() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cleaned != nil {
		return s.cleaned
	}
	return s.raw
}

// Dataset returns the dataset selected by which.
func (s *Session) Dataset(which Which) (*dataset.Dataset, error) {
	switch which {
	case Current, "":
		return s.Current(), nil
	case Raw:
		return s.Raw(), nil
	case Cleaned:
		if ds := s.Cleaned(); ds != nil {
			return ds, nil
		}
		return nil, errors.NewConfigError("dataset", "no cleaned dataset yet; run clean first")
	default:
		return nil, errors.NewConfigError("dataset", fmt.Sprintf("unknown dataset '%s'; use current, raw or cleaned", which))
	}
}

// Preview returns the first n rows of the current dataset. n <= 0 means PreviewRows.
func (s *Session) Preview(n int) *dataset.Dataset {
	if n <= 0 {
		n = PreviewRows
	}
	return s.Current().Head(n)
}

// Clean applies rules to the raw dataset and replaces the cleaned dataset.
// On error the previous cleaned dataset is kept.
func (s *Session) Clean(engine *cleaning.Engine, rules cleaning.RuleSet) (*cleaning.Report, error) {
	raw := s.Raw()
	cleaned, report, err := engine.ApplyWithReport(raw, rules)
	if err != nil {
		s.logger.Warn("Cleaning rejected", err)
		return nil, err
	}

	s.mu.Lock()
	s.cleaned = cleaned
	s.report = report
	s.rules = rules
	s.mu.Unlock()

	s.logger.Info("Session cleaned",
		log.RowsBeforeKey, raw.NumRows(),
		log.RowsAfterKey, cleaned.NumRows(),
	)
	return report, nil
}

// LastClean returns the rules and report of the last successful Clean.
func (s *Session) LastClean() (cleaning.RuleSet, *cleaning.Report) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules, s.report
}

// ResetCleaning discards the cleaned dataset.
func (s *Session) ResetCleaning() {
	s.mu.Lock()
	s.cleaned = nil
	s.report = nil
	s.rules = cleaning.RuleSet{}
	s.mu.Unlock()
}

// Analyze runs req against a snapshot of the current dataset.
func (s *Session) Analyze(d *analysis.Dispatcher, req analysis.Request) (*analysis.Result, error) {
	return d.Run(s.Current(), req)
}

// Export writes the selected dataset with dataio.Export. An empty filename
// gets a timestamped default name.
func (s *Session) Export(which Which, format, filename, dir string) (string, error) {
	ds, err := s.Dataset(which)
	if err != nil {
		return "", err
	}
	if filename == "" {
		filename = DefaultFilename(s.IsCleaned() && which != Raw, time.Now())
	}
	return dataio.Export(ds, format, filename, dir, dataio.WithLogger(s.base))
}

// DefaultFilename names an export taken at t, such as
// "cleaned_data_20240131153000" for a cleaned dataset.
func DefaultFilename(cleaned bool, t time.Time) string {
	prefix := "data_export_"
	if cleaned {
		prefix = "cleaned_data_"
	}
	return prefix + t.Format("20060102150405")
}
