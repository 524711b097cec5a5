package trip

import (
	"errors"
	"strings"
)

// Status is the trip status reported by the active-ride snapshot endpoint.
type Status string

const (
	StatusSearching Status = "searching"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid trip status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the known snapshot statuses.
func (status Status) Valid() bool {
	switch status {
	case StatusSearching, StatusAccepted, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// Terminal indicates the ride is over and the snapshot should be dropped.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusCancelled
}
