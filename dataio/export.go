package dataio

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/log"
)

// DefaultSheet is the worksheet name used for xlsx exports.
const DefaultSheet = "Sheet1"

// Export writes ds into dir as filename in the given format and returns the
// written path. The extension is appended when filename lacks it and dir is
// created if needed. The row index is not written.
func Export(ds *dataset.Dataset, format, filename, dir string, opts ...Option) (string, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(filename) == "" {
		return "", errors.NewConfigError("filename", "must not be empty")
	}
	if filepath.Base(filename) != filename {
		return "", errors.NewConfigError("filename", "must not contain a directory")
	}
	o := newOptions(opts)

	ext := "." + string(f)
	if !strings.EqualFold(filepath.Ext(filename), ext) {
		filename += ext
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create export dir %s", dir)
	}
	path := filepath.Join(dir, filename)

	switch f {
	case CSV:
		err = writeCSVFile(ds, path)
	case XLSX:
		sheet := o.sheet
		if sheet == "" {
			sheet = DefaultSheet
		}
		err = writeXLSX(ds, path, sheet)
	}
	if err != nil {
		return "", err
	}

	o.logger.Info("Dataset exported",
		log.FileKey, path,
		log.FormatKey, string(f),
		log.RowsKey, ds.NumRows(),
		log.ColumnsKey, ds.NumCols(),
	)
	return path, nil
}

func writeCSVFile(ds *dataset.Dataset, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := WriteCSV(ds, file); err != nil {
		file.Close()
		return err
	}
	return errors.Wrap(file.Close(), "close csv")
}

// WriteCSV writes ds as CSV with a header row. Missing cells are empty.
func WriteCSV(ds *dataset.Dataset, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Names()); err != nil {
		return errors.Wrap(err, "write header")
	}
	cols := ds.Columns()
	record := make([]string, len(cols))
	for i := 0; i < ds.NumRows(); i++ {
		for j, c := range cols {
			record[j] = dataset.FormatCell(c.Values[i])
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

func writeXLSX(ds *dataset.Dataset, path, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return errors.Wrapf(err, "rename sheet to %s", sheet)
		}
	}

	header := make([]any, ds.NumCols())
	for j, name := range ds.Names() {
		header[j] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write header")
	}

	cols := ds.Columns()
	row := make([]any, len(cols))
	for i := 0; i < ds.NumRows(); i++ {
		for j, c := range cols {
			row[j] = c.Values[i]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrapf(err, "row %d", i)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
