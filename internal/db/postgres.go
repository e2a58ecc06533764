// Package db persists the engine's record kinds (§3, §6) to PostgreSQL.
// Each row stores the exact byte-packed layout internal/machine encodes
// and decodes, so the bytes on disk are bit-for-bit the same shape the
// spec's persisted-layout section describes; Postgres itself only ever
// sees an opaque BYTEA column plus the lookup key.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/mint-engine/internal/configline"
	"github.com/rawblock/mint-engine/internal/machine"
	"github.com/rawblock/mint-engine/internal/store"
	"github.com/rawblock/mint-engine/pkg/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for Mint Engine")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes the schema.sql file.
func (s *PostgresStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/db/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %v", err)
	}

	_, err = s.pool.Exec(context.Background(), string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("Mint engine schema initialized")
	return nil
}

var _ store.Store = (*PostgresStore)(nil)

// GetMachine loads a Machine and its config-line suffix (nil for
// hidden-mode machines).
func (s *PostgresStore) GetMachine(ctx context.Context, id string) (*models.Machine, *configline.Suffix, error) {
	var body, suffixBody []byte
	err := s.pool.QueryRow(ctx, `SELECT body, suffix FROM machines WHERE id = $1`, id).Scan(&body, &suffixBody)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, store.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	m, err := machine.DecodeMachine(body)
	if err != nil {
		return nil, nil, err
	}
	m.ID = id

	var suffix *configline.Suffix
	if len(suffixBody) > 0 {
		suffix, err = configline.Decode(suffixBody)
		if err != nil {
			return nil, nil, err
		}
	}
	return m, suffix, nil
}

// SaveMachine upserts a Machine and its suffix.
func (s *PostgresStore) SaveMachine(ctx context.Context, m *models.Machine, suffix *configline.Suffix) error {
	body := machine.EncodeMachine(m)
	var suffixBody []byte
	if suffix != nil {
		suffixBody = configline.Encode(suffix)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO machines (id, body, suffix)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, suffix = EXCLUDED.suffix
	`, m.ID, body, suffixBody)
	return err
}

// ListMachineIDs returns every machine ID currently persisted, for the
// on-demand audit scan to enumerate.
func (s *PostgresStore) ListMachineIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM machines`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteMachine closes a Machine's record (§4.2, "Withdraw").
func (s *PostgresStore) DeleteMachine(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM machines WHERE id = $1`, id)
	return err
}

// GetBuyerInfo loads a per-(machine,buyer) ledger record.
func (s *PostgresStore) GetBuyerInfo(ctx context.Context, machineID, buyer string) (*models.BuyerInfo, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM buyer_infos WHERE machine_id = $1 AND buyer = $2`, machineID, buyer).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b, err := machine.DecodeBuyerInfo(body)
	if err != nil {
		return nil, err
	}
	b.MachineID = machineID
	b.Buyer = buyer
	return b, nil
}

// SaveBuyerInfo upserts a ledger record.
func (s *PostgresStore) SaveBuyerInfo(ctx context.Context, b *models.BuyerInfo) error {
	body := machine.EncodeBuyerInfo(b)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO buyer_infos (machine_id, buyer, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (machine_id, buyer) DO UPDATE SET body = EXCLUDED.body
	`, b.MachineID, b.Buyer, body)
	return err
}

// GetFreezeRecord loads a Machine's freeze escrow record.
func (s *PostgresStore) GetFreezeRecord(ctx context.Context, machineID string) (*models.FreezeRecord, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM freeze_records WHERE machine_id = $1`, machineID).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return machine.DecodeFreezeRecord(body)
}

// SaveFreezeRecord upserts a freeze escrow record.
func (s *PostgresStore) SaveFreezeRecord(ctx context.Context, f *models.FreezeRecord) error {
	body := machine.EncodeFreezeRecord(f)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO freeze_records (machine_id, body)
		VALUES ($1, $2)
		ON CONFLICT (machine_id) DO UPDATE SET body = EXCLUDED.body
	`, f.MachineID, body)
	return err
}

// GetCollectionBinding loads a Machine's collection-mint binding.
func (s *PostgresStore) GetCollectionBinding(ctx context.Context, machineID string) (*models.CollectionBinding, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM collection_bindings WHERE machine_id = $1`, machineID).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return machine.DecodeCollectionBinding(body)
}

// SaveCollectionBinding upserts a collection-mint binding.
func (s *PostgresStore) SaveCollectionBinding(ctx context.Context, b *models.CollectionBinding) error {
	body := machine.EncodeCollectionBinding(b)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collection_bindings (machine_id, body)
		VALUES ($1, $2)
		ON CONFLICT (machine_id) DO UPDATE SET body = EXCLUDED.body
	`, b.MachineID, body)
	return err
}

// GetPool exposes the connection pool for callers that need a raw query
// (audit reporting, health checks).
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}
