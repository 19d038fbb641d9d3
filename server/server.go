// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes reports and their hotspots over a JSON API.
package server

import (
	"errors"
	"log"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/hotspots/export"
	"github.com/jcodagnone/hotspots/geocode"
	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/jcodagnone/hotspots/report"
	"github.com/jcodagnone/hotspots/spatial"
)

const (
	defaultPerPage    = 50
	maxPerPage        = 500
	defaultHeatmapRes = 7
)

type Server struct {
	repo      report.Repository
	engine    *hotspot.Engine
	validator report.Validator
	geocoder  geocode.Geocoder
}

// NewServer wires the API. geocoder may be nil, in which case reports must
// carry coordinates.
func NewServer(repo report.Repository, engine *hotspot.Engine, validator report.Validator, geocoder geocode.Geocoder) *Server {
	return &Server{
		repo:      repo,
		engine:    engine,
		validator: validator,
		geocoder:  geocoder,
	}
}

// Router registers every route on a new gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.healthz)

	api := r.Group("/api")
	api.POST("/reports", s.createReport)
	api.GET("/reports", s.listReports)
	api.GET("/clusters", s.listClusters)
	api.GET("/clusters.geojson", s.clustersGeoJSON)
	api.GET("/clusters/heat", s.clustersHeat)
	api.GET("/heatmap", s.heatmap)
	api.GET("/categories", s.categoryCounts)

	return r
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("Serving hotspots API on http://%s", addr)

	return s.Router().Run(addr)
}

func (s *Server) healthz(ctx *gin.Context) {
	if err := s.repo.DB().PingContext(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type reportRequest struct {
	ReporterName string   `json:"reporter_name"`
	Gender       string   `json:"gender"`
	Phone        string   `json:"phone"`
	Location     string   `json:"location"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Category     string   `json:"category"`
	OccurredOn   string   `json:"occurred_on"`
	Description  string   `json:"description"`
}

func (s *Server) createReport(ctx *gin.Context) {
	var req reportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})

		return
	}

	rep := &report.Report{
		ReporterName: req.ReporterName,
		Gender:       req.Gender,
		Phone:        req.Phone,
		Location:     req.Location,
		Category:     req.Category,
		Description:  req.Description,
	}

	if req.OccurredOn != "" {
		occurredOn, err := time.Parse(time.DateOnly, req.OccurredOn)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "occurred_on must be YYYY-MM-DD"})

			return
		}

		rep.OccurredOn = occurredOn
	}

	switch {
	case req.Latitude != nil && req.Longitude != nil:
		rep.Point = &spatial.Point{Lat: *req.Latitude, Lng: *req.Longitude}
	case req.Latitude != nil || req.Longitude != nil:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude must be given together"})

		return
	case s.geocoder != nil && strings.TrimSpace(req.Location) != "":
		res, err := s.geocoder.Geocode(ctx.Request.Context(), req.Location)
		if err != nil {
			log.Printf("Geocoding %q failed: %v", req.Location, err)
			ctx.JSON(geocodeStatus(err), gin.H{"error": "could not locate address: " + err.Error()})

			return
		}

		rep.Point = &res.Point
	}

	report.Sanitize(rep)

	if err := s.validator.Validate(rep); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if _, err := s.repo.InsertReport(rep); err != nil {
		log.Printf("Error saving report: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save report"})

		return
	}

	ctx.JSON(http.StatusCreated, rep)
}

func geocodeStatus(err error) int {
	switch {
	case geocode.IsNotFoundError(err):
		return http.StatusUnprocessableEntity
	case geocode.IsRateLimitError(err), geocode.IsQuotaExceededError(err):
		return http.StatusServiceUnavailable
	case geocode.IsTimeoutError(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// categoryParam returns the normalized category filter, or nil when absent.
func categoryParam(ctx *gin.Context) *string {
	raw := ctx.Query("category")
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	category, _ := report.NormalizeCategory(raw)

	return &category
}

func intParam(ctx *gin.Context, name string, def int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, errors.New(name + " must be a positive integer")
	}

	return v, nil
}

func (s *Server) listReports(ctx *gin.Context) {
	page, err := intParam(ctx, "page", 1)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	perPage, err := intParam(ctx, "per_page", defaultPerPage)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	perPage = min(perPage, maxPerPage)

	if page > math.MaxInt/perPage {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "page is out of range"})

		return
	}

	category := categoryParam(ctx)

	total, err := s.repo.CountReports(category)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	reports, err := s.repo.ListReports(category, perPage, (page-1)*perPage)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if reports == nil {
		reports = []*report.Report{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"reports":  reports,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// clusters loads every geolocated report and clusters them, optionally
// restricted to one category. Categories are clustered independently, so
// filtering before clustering gives the same clusters as filtering after.
func (s *Server) clusters(ctx *gin.Context) ([]hotspot.Cluster, int, bool) {
	incidents, err := s.repo.FetchAllIncidents()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return nil, 0, false
	}

	if category := categoryParam(ctx); category != nil {
		filtered := make([]hotspot.Incident, 0, len(incidents))

		for _, inc := range incidents {
			if inc.Category == *category {
				filtered = append(filtered, inc)
			}
		}

		incidents = filtered
	}

	clusters, err := s.engine.ComputeClusters(incidents)
	if err != nil {
		log.Printf("Error computing clusters: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return nil, 0, false
	}

	return clusters, len(incidents), true
}

func (s *Server) listClusters(ctx *gin.Context) {
	clusters, incidents, ok := s.clusters(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"clusters":   export.Weighted(clusters, s.engine.Weight),
		"incidents":  incidents,
		"eps_meters": s.engine.Config().EpsMeters(),
	})
}

func (s *Server) clustersGeoJSON(ctx *gin.Context) {
	clusters, _, ok := s.clusters(ctx)
	if !ok {
		return
	}

	data, err := export.FeatureCollection(clusters, s.engine.Weight).MarshalJSON()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Data(http.StatusOK, "application/geo+json", data)
}

func (s *Server) clustersHeat(ctx *gin.Context) {
	clusters, _, ok := s.clusters(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, export.HeatPoints(clusters))
}

func (s *Server) heatmap(ctx *gin.Context) {
	res, err := intParam(ctx, "res", defaultHeatmapRes)
	if err != nil || res < report.MinHeatmapRes || res > report.MaxHeatmapRes {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "res must be between 5 and 8"})

		return
	}

	cells, err := s.repo.HeatmapCells(res, categoryParam(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if cells == nil {
		cells = []*report.HeatCell{}
	}

	ctx.JSON(http.StatusOK, gin.H{"res": res, "cells": cells})
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

func (s *Server) categoryCounts(ctx *gin.Context) {
	counts, err := s.repo.CategoryCounts()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	result := make([]categoryCount, 0, len(counts)+len(report.Categories))

	for _, c := range report.Categories {
		result = append(result, categoryCount{Category: c, Count: counts[c]})
		delete(counts, c)
	}

	// labels outside the vocabulary, when the validator allows them
	extra := make([]string, 0, len(counts))
	for c := range counts {
		extra = append(extra, c)
	}

	sort.Strings(extra)

	for _, c := range extra {
		result = append(result, categoryCount{Category: c, Count: counts[c]})
	}

	ctx.JSON(http.StatusOK, result)
}
