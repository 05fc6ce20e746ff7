package entities

import (
	"time"
)

// StationStats aggregates one station's queue activity for one day.
// Averages are minutes; entries missing the relevant timestamps are
// excluded from the averages.
type StationStats struct {
	StationID            string    `json:"station_id"`
	Date                 time.Time `json:"date"`
	Total                int       `json:"total"`
	Waiting              int       `json:"waiting"`
	InProgress           int       `json:"in_progress"`
	Completed            int       `json:"completed"`
	Skipped              int       `json:"skipped"`
	AvgWaitMinutes       float64   `json:"avg_wait_minutes"`
	AvgTurnaroundMinutes float64   `json:"avg_turnaround_minutes"`
}

// DailySummary rolls station stats up across the whole facility for one
// day.
type DailySummary struct {
	Date     time.Time      `json:"date"`
	Stations []StationStats `json:"stations"`
	Total    int            `json:"total"`
}

// StationLoad is the load balancer's view of one station: how many live
// entries it currently holds.
type StationLoad struct {
	Station Station `json:"station"`
	Load    int     `json:"load"`
}
