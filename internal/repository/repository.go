package repository

import (
	"context"
	"errors"

	"github.com/mr1hm/crisis-globe/internal/models"
)

var ErrNotFound = errors.New("not found")

type SortOrder string

const (
	SortBySeverity SortOrder = "severity" // highest score first
	SortByRecent   SortOrder = "recent"   // most recently verified first
)

type Filter struct {
	Limit       int
	Offset      int
	Type        *string
	Status      *models.CrisisStatus
	MinSeverity *float64 // >= this score
	Country     *string
	Sort        SortOrder // defaults to SortBySeverity
}

type CrisisRepository interface {
	// ReplaceSnapshot swaps the stored crisis list for snap. It reports false
	// without writing anything when a snapshot of the same or a newer
	// generation is already stored.
	ReplaceSnapshot(ctx context.Context, snap *models.Snapshot) (bool, error)
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
	GetByID(ctx context.Context, id string) (*models.Crisis, error)
	ListCrises(ctx context.Context, opts Filter) ([]models.Crisis, error)
}
