package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/Rifft/internal/onset"
	"github.com/himanishpuri/Rifft/pkg/rifft"
	"github.com/himanishpuri/Rifft/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service rifft.Service
	config  *ServerConfig
	log     rifft.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	MusicDir       string
	SampleRate     int
	AllowedOrigins []string
}

func NewServer(service rifft.Service, config *ServerConfig, log rifft.Logger) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     log,
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondServiceError maps unknown IDs to 404 and everything else to 500.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, rifft.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Errorf("%s: %v", what, err)
	s.respondError(w, http.StatusInternalServerError, what)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleListTracks handles GET /api/tracks
func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.service.ListTracks()
	if err != nil {
		s.respondServiceError(w, err, "Failed to retrieve tracks")
		return
	}
	if tracks == nil {
		tracks = []rifft.Track{}
	}
	s.respondJSON(w, http.StatusOK, ListTracksResponse{Tracks: tracks, Count: len(tracks)})
}

// handleGetTrack handles GET /api/tracks/{id}
func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	track, err := s.service.GetTrack(id)
	if err != nil {
		s.respondServiceError(w, err, "Failed to retrieve track")
		return
	}
	levels, err := s.service.ListLevels(id)
	if err != nil {
		s.respondServiceError(w, err, "Failed to retrieve levels")
		return
	}
	if levels == nil {
		levels = []rifft.Level{}
	}
	s.respondJSON(w, http.StatusOK, TrackDetailResponse{Track: *track, Levels: levels})
}

// handleDeleteTrack handles DELETE /api/tracks/{id}
func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.DeleteTrack(id); err != nil {
		s.respondServiceError(w, err, "Failed to delete track")
		return
	}
	s.log.Infof("Deleted track %s", id)
	s.respondJSON(w, http.StatusOK, DeleteTrackResponse{Message: "Track deleted successfully", ID: id})
}

// handleGetOnsets handles GET /api/tracks/{id}/onsets
func (s *Server) handleGetOnsets(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	onsets, err := s.service.GetOnsets(id)
	if err != nil {
		s.respondServiceError(w, err, "Failed to retrieve onsets")
		return
	}
	times := make([]float64, len(onsets))
	for i, o := range onsets {
		times[i] = o.Timestamp
	}
	s.respondJSON(w, http.StatusOK, OnsetsResponse{TrackID: id, Onsets: times, Count: len(times)})
}

// handleAnalyzeTrack handles POST /api/tracks (multipart upload, field "audio").
// Uploads are kept in MusicDir since generated levels point at them.
func (s *Server) handleAnalyzeTrack(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(100 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	if err := utils.MakeDir(s.config.MusicDir); err != nil {
		s.log.Errorf("Failed to create music dir: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	dest := filepath.Join(s.config.MusicDir, utils.GenerateUUID()+filepath.Ext(header.Filename))
	if err := saveUpload(dest, file); err != nil {
		s.log.Errorf("Failed to save upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	var trackID string
	if utils.HasExt(dest, ".wav") {
		trackID, err = s.service.AnalyzeWAV(ctx, dest, title, r.FormValue("artist"))
		if errors.Is(err, onset.ErrSampleRateMismatch) {
			trackID, err = s.service.AnalyzeTrack(ctx, dest, title, r.FormValue("artist"))
		}
	} else {
		trackID, err = s.service.AnalyzeTrack(ctx, dest, title, r.FormValue("artist"))
	}
	if err != nil {
		utils.DeleteFile(dest)
		s.log.Errorf("Failed to analyze upload: %v", err)
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to analyze track: %v", err))
		return
	}

	track, err := s.service.GetTrack(trackID)
	if err != nil {
		s.respondServiceError(w, err, "Failed to retrieve track")
		return
	}
	s.respondJSON(w, http.StatusCreated, AnalyzeResponse{Message: "Track analyzed successfully", Track: *track})
}

func saveUpload(dest string, src io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

// handleGenerateLevel handles POST /api/tracks/{id}/levels?seed=N. Without a
// seed one is drawn from the clock and echoed back.
func (s *Server) handleGenerateLevel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	seed := uint64(time.Now().UnixNano())
	if raw := r.URL.Query().Get("seed"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid seed %q", raw))
			return
		}
		seed = v
	}

	levelID, err := s.service.GenerateLevel(r.Context(), id, seed)
	if err != nil {
		s.respondServiceError(w, err, "Failed to generate level")
		return
	}
	s.respondJSON(w, http.StatusCreated, GenerateLevelResponse{
		Message: "Level generated successfully",
		LevelID: levelID,
		TrackID: id,
		Seed:    seed,
	})
}

// handleGetLevel handles GET /api/levels/{id} and returns the level
// descriptor the game loads.
func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var buf bytes.Buffer
	if err := s.service.ExportLevel(id, &buf); err != nil {
		s.respondServiceError(w, err, "Failed to export level")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
