// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/jcodagnone/hotspots/spatial"
	"github.com/uber/h3-go/v4"
)

// Repository handles persistence of incident reports.
type Repository interface {
	// CreateSchema creates the reports table
	CreateSchema() error

	// InsertReport stores a report and returns its id
	InsertReport(r *Report) (int64, error)

	// BulkInsertReports inserts a slice of reports in a single transaction
	BulkInsertReports(reports []*Report) error

	// ListReports returns reports newest first, optionally filtered by category
	ListReports(category *string, limit, offset int) ([]*Report, error)

	// CountReports returns the number of stored reports
	CountReports(category *string) (int, error)

	// FetchAllIncidents returns every report that has coordinates
	FetchAllIncidents() ([]hotspot.Incident, error)

	// CategoryCounts returns the number of reports per category
	CategoryCounts() (map[string]int, error)

	// HeatmapCells aggregates reports per H3 cell at the given resolution
	HeatmapCells(res int, category *string) ([]*HeatCell, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlReportRepository struct {
	db *sql.DB
}

// NewRepository creates a new report repository.
func NewRepository(db *sql.DB) Repository {
	return &sqlReportRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlReportRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlReportRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS reports_seq START 1;

		CREATE TABLE IF NOT EXISTS reports (
			id BIGINT PRIMARY KEY DEFAULT nextval('reports_seq'),
			reporter_name VARCHAR NOT NULL,
			gender VARCHAR,
			phone VARCHAR NOT NULL,
			location VARCHAR NOT NULL,
			point POINT_2D,
			category VARCHAR NOT NULL,
			occurred_on DATE,
			description TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

const insertReport = `
	INSERT INTO reports(
		reporter_name,
		gender,
		phone,
		location,
		point,
		category,
		occurred_on,
		description,
		created_at,
		h3_res5,
		h3_res6,
		h3_res7,
		h3_res8
	)
	VALUES (?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id
`

// insertArgs prepares the bind arguments of insertReport.
func insertArgs(rep *Report) ([]any, error) {
	if err := rep.computeH3(); err != nil {
		return nil, err
	}

	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now()
	}

	var lng, lat any
	if rep.Point != nil {
		lng = rep.Point.Lng
		lat = rep.Point.Lat
	}

	var occurredOn any
	if !rep.OccurredOn.IsZero() {
		occurredOn = rep.OccurredOn
	}

	return []any{
		rep.ReporterName,
		nve(rep.Gender),
		rep.Phone,
		rep.Location,
		lng,
		lat,
		rep.Category,
		occurredOn,
		rep.Description,
		rep.CreatedAt,
		nz(rep.H3Res5),
		nz(rep.H3Res6),
		nz(rep.H3Res7),
		nz(rep.H3Res8),
	}, nil
}

func (r *sqlReportRepository) InsertReport(rep *Report) (int64, error) {
	args, err := insertArgs(rep)
	if err != nil {
		return 0, err
	}

	if err := r.db.QueryRow(insertReport, args...).Scan(&rep.ID); err != nil {
		return 0, fmt.Errorf("inserting report: %w", err)
	}

	return rep.ID, nil
}

func (r *sqlReportRepository) BulkInsertReports(reports []*Report) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Printf("failed to rollback report import: %v", err)
		}
	}()

	stmt, err := tx.Prepare(insertReport)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, rep := range reports {
		args, err := insertArgs(rep)
		if err != nil {
			return fmt.Errorf("report %d: %w", i, err)
		}

		if err := stmt.QueryRow(args...).Scan(&rep.ID); err != nil {
			return fmt.Errorf("inserting report %d: %w", i, err)
		}
	}

	return tx.Commit()
}

var baseSelect = `
	SELECT id, reporter_name, gender, phone, location, point,
	       category, occurred_on, description, created_at,
	       h3_res5, h3_res6, h3_res7, h3_res8
	FROM reports
`

func (r *sqlReportRepository) list(query string, args []any) ([]*Report, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*Report

	for rows.Next() {
		rep := &Report{}

		var (
			gender     sql.NullString
			point      any
			occurredOn sql.NullTime
		)

		var h3Res5, h3Res6, h3Res7, h3Res8 sql.NullInt64

		err := rows.Scan(
			&rep.ID, &rep.ReporterName, &gender, &rep.Phone, &rep.Location, &point,
			&rep.Category, &occurredOn, &rep.Description, &rep.CreatedAt,
			&h3Res5, &h3Res6, &h3Res7, &h3Res8,
		)
		if err != nil {
			return nil, err
		}

		if point != nil {
			rep.Point = &spatial.Point{}
			if err := rep.Point.Scan(point); err != nil {
				return nil, fmt.Errorf("scanning point of report %d: %w", rep.ID, err)
			}
		}

		rep.Gender = gender.String
		if occurredOn.Valid {
			rep.OccurredOn = occurredOn.Time
		}

		rep.H3Res5 = h3Res5.Int64
		rep.H3Res6 = h3Res6.Int64
		rep.H3Res7 = h3Res7.Int64
		rep.H3Res8 = h3Res8.Int64

		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

func (r *sqlReportRepository) ListReports(category *string, limit, offset int) ([]*Report, error) {
	query := baseSelect

	args := []any{}

	if category != nil {
		query += " WHERE category = ?"

		args = append(args, *category)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ? OFFSET ?"

		args = append(args, limit, offset)
	}

	return r.list(query, args)
}

func (r *sqlReportRepository) CountReports(category *string) (int, error) {
	query := "SELECT COUNT(*) FROM reports"

	args := []any{}

	if category != nil {
		query += " WHERE category = ?"

		args = append(args, *category)
	}

	var count int
	err := r.db.QueryRow(query, args...).Scan(&count)

	return count, err
}

func (r *sqlReportRepository) FetchAllIncidents() ([]hotspot.Incident, error) {
	rows, err := r.db.Query(`
		SELECT category, point
		FROM reports
		WHERE point IS NOT NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]hotspot.Incident, 0)

	for rows.Next() {
		var (
			category string
			point    spatial.Point
		)

		if err := rows.Scan(&category, &point); err != nil {
			return nil, fmt.Errorf("scanning incident: %w", err)
		}

		incidents = append(incidents, hotspot.Incident{Category: category, Lat: point.Lat, Lng: point.Lng})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Printf("Fetched %d incidents for clustering", len(incidents))

	return incidents, nil
}

func (r *sqlReportRepository) CategoryCounts() (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT category, COUNT(*)
		FROM reports
		GROUP BY category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var category string

		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}

		counts[category] = count
	}

	return counts, rows.Err()
}

func (r *sqlReportRepository) HeatmapCells(res int, category *string) ([]*HeatCell, error) {
	if res < MinHeatmapRes || res > MaxHeatmapRes {
		return nil, fmt.Errorf("heatmap resolution must be between %d and %d (got %d)", MinHeatmapRes, MaxHeatmapRes, res)
	}

	// res is bounded above, so the column name is safe to interpolate.
	column := fmt.Sprintf("h3_res%d", res)
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM reports WHERE %s IS NOT NULL", column, column)

	args := []any{}

	if category != nil {
		query += " AND category = ?"

		args = append(args, *category)
	}

	query += " GROUP BY 1 ORDER BY 2 DESC, 1"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying heatmap: %w", err)
	}
	defer rows.Close()

	var cells []*HeatCell

	for rows.Next() {
		var (
			raw   int64
			count int
		)

		if err := rows.Scan(&raw, &count); err != nil {
			return nil, fmt.Errorf("scanning heatmap cell: %w", err)
		}

		cell := h3.Cell(raw)

		center, err := h3.CellToLatLng(cell)
		if err != nil {
			return nil, fmt.Errorf("locating cell %s: %w", cell, err)
		}

		cells = append(cells, &HeatCell{
			Cell:   cell.String(),
			Center: spatial.Point{Lat: center.Lat, Lng: center.Lng},
			Count:  count,
		})
	}

	return cells, rows.Err()
}

func nve(v string) any {
	if len(v) == 0 {
		return nil
	}

	return v
}

func nz(v int64) any {
	if v == 0 {
		return nil
	}

	return v
}
