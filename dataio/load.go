// Package dataio reads datasets from CSV and Excel files and writes them back.
package dataio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/log"
)

// Format identifies a file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// Formats lists the formats Load and Export understand.
func Formats() []Format { return []Format{CSV, XLSX} }

// ParseFormat accepts a format name or a file extension, with or without the
// dot. "excel" is an alias of xlsx.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case CSV, XLSX:
		return f, nil
	case "excel":
		return XLSX, nil
	case "xls":
		return "", errors.NewFormatError("xls", "legacy Excel files are not supported; save the workbook as .xlsx")
	default:
		return "", errors.NewFormatError(s, "supported formats are csv and xlsx")
	}
}

type options struct {
	logger log.Logger
	sheet  string
}

// Option configures Load and Export.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSheet selects the worksheet to read or write. The default reads the
// first sheet and writes "Sheet1".
func WithSheet(name string) Option {
	return func(o *options) {
		o.sheet = name
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.GetLogger()
	}
	o.logger = o.logger.With(log.ComponentKey, "dataio")
	return o
}

// Load reads a dataset from path. The format follows the file extension.
// The first row is the header; column kinds are inferred from the cells.
func Load(path string, opts ...Option) (*dataset.Dataset, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)

	var rows [][]string
	switch format {
	case CSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		rows, err = readCSV(f)
		if err != nil {
			return nil, err
		}
	case XLSX:
		rows, err = readXLSX(path, o.sheet)
		if err != nil {
			return nil, err
		}
	}

	ds, err := build(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	o.logger.Info("Dataset loaded",
		log.FileKey, path,
		log.FormatKey, string(format),
		log.RowsKey, ds.NumRows(),
		log.ColumnsKey, ds.NumCols(),
	)
	return ds, nil
}

// ReadCSV reads a dataset in CSV form from r.
func ReadCSV(r io.Reader) (*dataset.Dataset, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return build(rows)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewFormatError("csv", err.Error())
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewFormatError(path, err.Error())
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewFormatError(path, "workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewFormatError(path, fmt.Sprintf("read sheet '%s': %v", sheet, err))
	}
	return rows, nil
}

// build turns a header row plus data rows into a dataset. Short rows are
// padded with missing cells; a row longer than the header is rejected.
func build(rows [][]string) (*dataset.Dataset, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.NewFormatError("header", "file has no header row")
	}
	header := make([]string, len(rows[0]))
	for j, h := range rows[0] {
		header[j] = strings.TrimSpace(h)
		if header[j] == "" {
			header[j] = fmt.Sprintf("Unnamed: %d", j)
		}
	}

	body := rows[1:]
	raw := make([][]string, len(header))
	for j := range raw {
		raw[j] = make([]string, len(body))
	}
	for i, row := range body {
		if len(row) > len(header) {
			return nil, errors.NewFormatError(fmt.Sprintf("row %d", i+2),
				fmt.Sprintf("expected %d fields, got %d", len(header), len(row)))
		}
		for j, cell := range row {
			raw[j][i] = cell
		}
	}

	cols := make([]*dataset.Column, len(header))
	for j, name := range header {
		cols[j] = dataset.InferColumn(name, raw[j])
	}
	ds, err := dataset.New(cols...)
	if err != nil {
		return nil, errors.NewFormatError("header", err.Error())
	}
	return ds, nil
}
