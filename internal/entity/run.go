package entity

import "time"

type RunSummary struct {
	ExportDate   time.Time
	DryRun       bool
	OrdersSeen   int
	OrdersFailed int
	ItemsNew     int
	ItemsSkipped int
	ItemsInvalid int
	OutputPath   string
}

type HealthCheckResult struct {
	Name    string
	Passed  bool
	Message string
	Details map[string]any
}
