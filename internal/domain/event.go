package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Lookup response statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// LookupRequest asks for the stations near an address. Zero bounds fall back
// to the service defaults.
type LookupRequest struct {
	ID            string `json:"id"`
	Address       string `json:"address"`
	MaxWalkMin    int    `json:"max_walk_min,omitempty"`
	MaxCandidates int    `json:"max_candidates,omitempty"`
}

// LookupResponse is published for every well-formed request, including the
// ones that failed to resolve.
type LookupResponse struct {
	RequestID     string          `json:"request_id"`
	Address       string          `json:"address"`
	MaxWalkMin    int             `json:"max_walk_min"`
	MaxCandidates int             `json:"max_candidates"`
	Status        string          `json:"status"`
	ErrorKind     string          `json:"error_kind,omitempty"`
	Error         string          `json:"error,omitempty"`
	Origin        *Coordinate     `json:"origin,omitempty"`
	Stations      []StationResult `json:"stations"`
	ProcessedAt   time.Time       `json:"processed_at"`
}

// ParseLookupRequest decodes a request message. The ID falls back to the
// message key when the payload omits it.
func ParseLookupRequest(raw RawEvent) (LookupRequest, error) {
	var req LookupRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return LookupRequest{}, fmt.Errorf("parse lookup request: %w", err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	return req, nil
}

// NewLookupResponse builds the response for req from a finder result.
func NewLookupResponse(req LookupRequest, res Lookup, err error) LookupResponse {
	resp := LookupResponse{
		RequestID:     req.ID,
		Address:       req.Address,
		MaxWalkMin:    req.MaxWalkMin,
		MaxCandidates: req.MaxCandidates,
		Stations:      []StationResult{},
		ProcessedAt:   clock.Now().UTC(),
	}
	if err != nil {
		resp.Status = StatusFailed
		resp.ErrorKind = ErrorKind(err)
		resp.Error = err.Error()
		return resp
	}
	origin := res.Origin
	resp.Status = StatusOK
	resp.Origin = &origin
	if res.Stations != nil {
		resp.Stations = res.Stations
	}
	return resp
}

// ErrorKind classifies err into the labels used in responses and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrGeocodeFailure):
		return "geocode_failure"
	case errors.Is(err, ErrAPIFailure):
		return "api_failure"
	default:
		return "internal"
	}
}
