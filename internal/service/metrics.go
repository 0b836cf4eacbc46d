package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ocrAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docflow_ocr_attempts_total",
			Help: "Tracked OCR attempts by engine and final status.",
		},
		[]string{"engine", "status"},
	)
	ocrEngineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docflow_ocr_engine_duration_seconds",
			Help:    "Duration of OCR engine calls.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"engine"},
	)
	documentStatusTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docflow_incoming_file_ocr_outcomes_total",
			Help: "Final status of incoming files after OCR processing.",
		},
		[]string{"status"},
	)
	conversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docflow_entity_conversions_total",
			Help: "Completed document conversions by source and target shape.",
		},
		[]string{"from", "to"},
	)
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docflow_dispatch_total",
			Help: "Incoming files handled by the dispatcher by result.",
		},
		[]string{"result"},
	)
)
