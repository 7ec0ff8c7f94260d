// Package season models trading seasons. Purchases, sales and expenses may be
// tagged with a season so its performance can be reported on its own.
package season

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle stage of a season. At most one season is ACTIVE.
type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted:
		return true
	}
	return false
}

var (
	ErrEmptyName      = errors.New("season name cannot be empty")
	ErrMissingDates   = errors.New("season needs a start and an end date")
	ErrEndBeforeStart = errors.New("season cannot end before it starts")
	ErrInvalidStatus  = errors.New("season status must be UPCOMING, ACTIVE or COMPLETED")
)

// Season is a named span of trading days
type Season struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSeason validates the fields of a season. Dates are truncated to whole days and
// an empty status means UPCOMING.
func NewSeason(name string, start, end time.Time, status Status) (*Season, error) {
	s := &Season{CreatedAt: time.Now().UTC()}
	s.UpdatedAt = s.CreatedAt
	if err := s.Set(name, start, end, status); err != nil {
		return nil, err
	}
	return s, nil
}

// Set replaces the editable fields after validating them
func (s *Season) Set(name string, start, end time.Time, status Status) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if start.IsZero() || end.IsZero() {
		return ErrMissingDates
	}
	start, end = day(start), day(end)
	if end.Before(start) {
		return ErrEndBeforeStart
	}
	if status == "" {
		status = StatusUpcoming
	}
	if !status.IsValid() {
		return ErrInvalidStatus
	}

	s.Name, s.StartDate, s.EndDate, s.Status = name, start, end, status
	return nil
}

// Covers reports whether date falls within the season, both ends included
func (s *Season) Covers(date time.Time) bool {
	d := day(date)
	return !d.Before(s.StartDate) && !d.After(s.EndDate)
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Repository defines season persistence operations
type Repository interface {
	Create(ctx context.Context, s *Season) error
	Update(ctx context.Context, s *Season) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*Season, error)
	// List orders seasons by start date, newest first
	List(ctx context.Context) ([]*Season, error)
	// GetActive returns ErrNoActiveSeason when no season is ACTIVE
	GetActive(ctx context.Context) (*Season, error)
	// InUse reports whether any purchase, sale or expense is tagged with the season
	InUse(ctx context.Context, id int64) (bool, error)
}

// ErrSeasonNotFound indicates an unknown season id
type ErrSeasonNotFound struct {
	SeasonID int64
}

func (e ErrSeasonNotFound) Error() string {
	return "season not found: " + strconv.FormatInt(e.SeasonID, 10)
}

// ErrNoActiveSeason is returned by GetActive when every season is upcoming or completed
var ErrNoActiveSeason = errors.New("no active season")

// ErrActiveSeasonExists refuses a second ACTIVE season
type ErrActiveSeasonExists struct {
	ActiveID int64
}

func (e ErrActiveSeasonExists) Error() string {
	return "season " + strconv.FormatInt(e.ActiveID, 10) + " is already active"
}

// ErrSeasonInUse refuses to delete a season that records are tagged with
type ErrSeasonInUse struct {
	SeasonID int64
}

func (e ErrSeasonInUse) Error() string {
	return "season " + strconv.FormatInt(e.SeasonID, 10) + " has records tagged with it"
}
