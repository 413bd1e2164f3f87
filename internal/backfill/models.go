package backfill

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// MessageAlreadyExists marks a success that skipped work because elevation data was present.
const MessageAlreadyExists = "Elevation data already exists"

var (
	ErrNoGeometry      = errors.New("route has no geometry")
	ErrNoRecordUpdated = errors.New("no record was updated")
	ErrRunInProgress   = errors.New("backfill run already in progress")
)

// PersistenceError reports an update that matched no stored route.
type PersistenceError struct {
	RouteID string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("route %s: %v", e.RouteID, ErrNoRecordUpdated)
}

func (e *PersistenceError) Unwrap() error {
	return ErrNoRecordUpdated
}

// Progress tracks one route through a backfill. Progress is a percentage.
type Progress struct {
	RouteID   string `json:"route_id"`
	RouteName string `json:"route_name"`
	Status    Status `json:"status"`
	Message   string `json:"message"`
	Progress  int    `json:"progress"`
}

func (p Progress) skipped() bool {
	return p.Status == StatusSuccess && p.Message == MessageAlreadyExists
}

type Result struct {
	Total      int        `json:"total"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	Details    []Progress `json:"details"`
}

func (r *Result) add(p Progress) {
	r.Details = append(r.Details, p)
	switch {
	case p.skipped():
		r.Skipped++
	case p.Status == StatusSuccess:
		r.Successful++
	default:
		r.Failed++
	}
}

// Reporter receives each progress update as it happens. It must not block.
type Reporter func(Progress)
