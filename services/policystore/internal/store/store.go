// Package store is the relational index over ledger-committed policies. It
// never holds policy definitions, only the tail hash each definition was
// committed under.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("store: policy not found")
	ErrDuplicate = errors.New("store: policy already exists")
)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

type Policy struct {
	PolicyID   string `json:"policyId"`
	DeviceID   string `json:"deviceId"`
	Owner      string `json:"owner"`
	LedgerHash string `json:"hash"`
}

// Insert adds an index row for a confirmed ledger write. The policy_id
// primary key closes the concurrent check-then-insert race: a second insert
// for the same policy_id fails with ErrDuplicate regardless of interleaving.
func (s *Store) Insert(ctx context.Context, p Policy) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO policy(policy_id,device_id,owner,ledger_hash) VALUES($1,$2,$3,$4)`,
		p.PolicyID, p.DeviceID, p.Owner, p.LedgerHash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, p.PolicyID)
	}
	return err
}

func (s *Store) GetByPolicyID(ctx context.Context, policyID string) (Policy, error) {
	var p Policy
	err := s.DB.QueryRow(ctx, `SELECT policy_id,device_id,owner,ledger_hash FROM policy WHERE policy_id=$1`, policyID).
		Scan(&p.PolicyID, &p.DeviceID, &p.Owner, &p.LedgerHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Policy{}, fmt.Errorf("%w: %s", ErrNotFound, policyID)
	}
	return p, err
}

// ListByDeviceID returns the device's policies ordered by policy_id. The
// ordering is load-bearing: the policy store ID digest is computed over
// documents in exactly this order.
func (s *Store) ListByDeviceID(ctx context.Context, deviceID string) ([]Policy, error) {
	rows, err := s.DB.Query(ctx, `SELECT policy_id,device_id,owner,ledger_hash FROM policy WHERE device_id=$1 ORDER BY policy_id ASC`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Policy
	for rows.Next() {
		var p Policy
		if err := rows.Scan(&p.PolicyID, &p.DeviceID, &p.Owner, &p.LedgerHash); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteByDeviceID removes every index row for the device. The referenced
// ledger bundles stay where they are; the ledger is append-only.
func (s *Store) DeleteByDeviceID(ctx context.Context, deviceID string) (int64, error) {
	tag, err := s.DB.Exec(ctx, `DELETE FROM policy WHERE device_id=$1`, deviceID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
