package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmylchreest/pagewash/internal/logger"
	"github.com/jmylchreest/pagewash/pkg/pipeline"
)

// statusFor maps a pipeline error to an HTTP status. Every failure is a 500
// unless DistinctStatus is set, in which case upstream failures (fetch and
// model) become 502.
func (s *Server) statusFor(err error) int {
	if errors.Is(err, pipeline.ErrMissingURL) {
		return http.StatusBadRequest
	}

	var perr *pipeline.Error
	if s.opts.DistinctStatus && errors.As(err, &perr) {
		switch perr.Stage {
		case pipeline.StageFetch, pipeline.StageModel:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
