package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/Kerhoff/BlindList/internal/service"
)

// maxBodyBytes caps request bodies; every payload here is a few fields.
const maxBodyBytes = 64 << 10

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure. The caller should return immediately when ok == false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return false, "request body is empty"
		}
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// writeServiceError maps a service error to a status code. notFound is the
// message used for ErrNotFound so each route can phrase it.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var inputErr *service.InputError
	var rateErr *service.RateLimitError

	switch {
	case errors.As(err, &inputErr):
		s.respondError(w, http.StatusBadRequest, inputErr.Msg)
	case errors.Is(err, service.ErrNotFound):
		s.respondError(w, http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrInvalidOrExpired):
		s.respondError(w, http.StatusNotFound, "Invalid or expired token")
	case errors.As(err, &rateErr):
		secs := int(math.Ceil(rateErr.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		s.respondError(w, http.StatusTooManyRequests, "Too many requests, try again later")
	case errors.Is(err, service.ErrDependency):
		s.logger.WithError(err).WithField("path", redactPath(r.URL.Path)).Error("Backend unavailable")
		s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		s.logger.WithError(err).WithField("path", redactPath(r.URL.Path)).Error("Unhandled service error")
		s.respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
