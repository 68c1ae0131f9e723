package main

import (
	"github.com/himanishpuri/Rifft/pkg/rifft"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ListTracksResponse struct {
	Tracks []rifft.Track `json:"tracks"`
	Count  int           `json:"count"`
}

type AnalyzeResponse struct {
	Message string      `json:"message"`
	Track   rifft.Track `json:"track"`
}

type OnsetsResponse struct {
	TrackID string    `json:"track_id"`
	Onsets  []float64 `json:"onsets"` // seconds
	Count   int       `json:"count"`
}

type TrackDetailResponse struct {
	rifft.Track
	Levels []rifft.Level `json:"levels"`
}

type GenerateLevelResponse struct {
	Message string `json:"message"`
	LevelID string `json:"level_id"`
	TrackID string `json:"track_id"`
	Seed    uint64 `json:"seed"`
}

type DeleteTrackResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
