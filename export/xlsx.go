// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/jcodagnone/hotspots/report"
	"github.com/jcodagnone/hotspots/spatial"
	"github.com/jcodagnone/hotspots/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/xuri/excelize/v2"
)

// ClustersSheet is the sheet written by WriteXLSX.
const ClustersSheet = "Clusters"

var clusterHeaders = []any{"Category", "Cluster", "Latitude", "Longitude", "Reports", "Weight"}

// WriteXLSX writes one row per cluster using a stream writer.
func WriteXLSX(w io.Writer, clusters []hotspot.Cluster, weight WeightFunc) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ClustersSheet)
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(ClustersSheet)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", clusterHeaders); err != nil {
		return err
	}

	for i, c := range clusters {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		row := []any{c.Category, c.ID, c.Center.Lat, c.Center.Lng, c.Count, weight(c.Count)}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("writing cluster %s/%d: %w", c.Category, c.ID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	return f.Write(w)
}

// RowError describes a spreadsheet row that could not be imported.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

type column int

const (
	colName column = iota
	colGender
	colPhone
	colLocation
	colLat
	colLng
	colCategory
	colOccurredOn
	colDescription
)

// headerAliases maps folded header labels to columns. Indonesian labels come
// from the paper form the spreadsheets were transcribed from.
var headerAliases = map[string]column{
	"reporter_name": colName, "reporter name": colName, "name": colName, "nama": colName, "nama pelapor": colName,
	"gender": colGender, "jenis kelamin": colGender,
	"phone": colPhone, "telepon": colPhone, "no. telepon": colPhone, "no telepon": colPhone,
	"location": colLocation, "lokasi": colLocation, "alamat": colLocation,
	"latitude": colLat, "lat": colLat,
	"longitude": colLng, "lng": colLng, "lon": colLng,
	"category": colCategory, "kategori": colCategory,
	"occurred_on": colOccurredOn, "occurred on": colOccurredOn, "date": colOccurredOn, "tanggal": colOccurredOn,
	"description": colDescription, "deskripsi": colDescription,
}

var columnNames = map[column]string{
	colName:        "reporter_name",
	colGender:      "gender",
	colPhone:       "phone",
	colLocation:    "location",
	colLat:         "latitude",
	colLng:         "longitude",
	colCategory:    "category",
	colOccurredOn:  "occurred_on",
	colDescription: "description",
}

var requiredColumns = []column{colName, colPhone, colLat, colLng, colCategory, colDescription}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "01-02-06", "1/2/06"}

// ErrMissingColumn is returned when the header row lacks a required column.
var ErrMissingColumn = errors.New("missing column")

func parseCoord(val string) (float64, error) {
	// Some locales write decimals with a comma.
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, errors.New("empty coordinate")
	}

	return strconv.ParseFloat(val, 64)
}

func parseDate(val string) (time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", val)
}

func mapHeader(header []string) (map[column]int, error) {
	cols := make(map[column]int)

	for i, label := range header {
		if c, ok := headerAliases[textutils.CollapseSpaces(textutils.LowerASCIIFolding(label))]; ok {
			if _, seen := cols[c]; !seen {
				cols[c] = i
			}
		}
	}

	var missing []string

	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, columnNames[c])
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	return cols, nil
}

func cellValue(row []string, cols map[column]int, c column) string {
	i, ok := cols[c]
	if !ok || i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}

func parseRow(row []string, cols map[column]int) (*report.Report, error) {
	lat, err := parseCoord(cellValue(row, cols, colLat))
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}

	lng, err := parseCoord(cellValue(row, cols, colLng))
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}

	occurredOn, err := parseDate(cellValue(row, cols, colOccurredOn))
	if err != nil {
		return nil, err
	}

	return &report.Report{
		ReporterName: cellValue(row, cols, colName),
		Gender:       cellValue(row, cols, colGender),
		Phone:        cellValue(row, cols, colPhone),
		Location:     cellValue(row, cols, colLocation),
		Point:        &spatial.Point{Lat: lat, Lng: lng},
		Category:     cellValue(row, cols, colCategory),
		OccurredOn:   occurredOn,
		Description:  cellValue(row, cols, colDescription),
	}, nil
}

// ReadReports reads reports from the first sheet of an xlsx file, or from
// sheet when it is not empty. The first row is the header. Rows that fail to
// parse or validate are skipped and returned as RowErrors.
func ReadReports(r io.Reader, sheet string, v report.Validator) ([]*report.Report, []*RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, nil, err
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(rows)-1,
			progressbar.OptionSetDescription("Reading "+sheet),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var (
		reports []*report.Report
		skipped []*RowError
	)

	for i, row := range rows[1:] {
		rowNum := i + 2

		if bar != nil {
			_ = bar.Add(1)
		}

		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		rep, err := parseRow(row, cols)
		if err == nil {
			report.Sanitize(rep)
			err = v.Validate(rep)
		}

		if err != nil {
			skipped = append(skipped, &RowError{Row: rowNum, Err: err})

			continue
		}

		reports = append(reports, rep)
	}

	log.Printf("Read %d reports from sheet %q, skipped %d rows", len(reports), sheet, len(skipped))

	return reports, skipped, nil
}
