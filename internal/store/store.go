// Package store declares the persistence contract internal/lifecycle
// and internal/orchestrator depend on, so neither imports internal/db
// directly. internal/db.PostgresStore is the only production
// implementation.
package store

import (
	"context"

	"github.com/rawblock/mint-engine/internal/configline"
	"github.com/rawblock/mint-engine/pkg/models"
)

// ErrNotFound is returned by any Get* method when the record does not exist.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "store: record not found" }

// Store persists the record kinds of §3/§6.
type Store interface {
	GetMachine(ctx context.Context, id string) (*models.Machine, *configline.Suffix, error)
	SaveMachine(ctx context.Context, m *models.Machine, suffix *configline.Suffix) error
	ListMachineIDs(ctx context.Context) ([]string, error)

	GetBuyerInfo(ctx context.Context, machineID, buyer string) (*models.BuyerInfo, error)
	SaveBuyerInfo(ctx context.Context, b *models.BuyerInfo) error

	GetFreezeRecord(ctx context.Context, machineID string) (*models.FreezeRecord, error)
	SaveFreezeRecord(ctx context.Context, f *models.FreezeRecord) error

	GetCollectionBinding(ctx context.Context, machineID string) (*models.CollectionBinding, error)
	SaveCollectionBinding(ctx context.Context, b *models.CollectionBinding) error

	DeleteMachine(ctx context.Context, id string) error
}
