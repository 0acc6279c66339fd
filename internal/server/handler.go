package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jmylchreest/pagewash/internal/logger"
)

// MissingURLMessage is the error body for a request without a url.
const MissingURLMessage = "Missing 'url' parameter"

// ScrapeRequest is the POST /scrape body.
type ScrapeRequest struct {
	URL string `json:"url" validate:"required"`
}

// ScrapeResponse is the POST /scrape success body.
type ScrapeResponse struct {
	URL         string `json:"url"`
	Chunks      int    `json:"chunks"`
	FinalOutput string `json:"final_output"`
}

// handleScrape handles POST /scrape
// Request: {"url": "https://example.com"}
// Response: {"url": "...", "chunks": 1, "final_output": "1\n..."}
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, MissingURLMessage)
		return
	}

	ctx := r.Context()
	log := logger.FromContext(ctx)
	log.Info("scrape started", "url", req.URL)

	result, err := s.runner.Run(ctx, req.URL)
	if err != nil {
		status := s.statusFor(err)
		log.Error("scrape failed", "url", req.URL, "status", status, "error", err)
		writeJSONError(w, status, err.Error())
		return
	}

	log.Info("scrape finished",
		"url", req.URL,
		"chunks", result.Chunks,
		"model", result.Model,
		"input_tokens", result.TokenUsage.InputTokens,
		"output_tokens", result.TokenUsage.OutputTokens,
		"fetch_duration", result.FetchDuration,
		"clean_duration", result.CleanDuration)

	writeJSON(w, http.StatusOK, ScrapeResponse{
		URL:         result.URL,
		Chunks:      result.Chunks,
		FinalOutput: result.FinalOutput,
	})
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
