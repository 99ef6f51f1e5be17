package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNoSnapshot = errors.New("no snapshot stored")

// querier is the slice of pgxpool.Pool the snapshot repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SnapshotRepo struct {
	q querier
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{q: db.Pool}
}

// Save stores a snapshot. It returns false without writing when the scene's
// most recent snapshot has the same digest. Older identical snapshots do not
// count, so returning to an earlier state is stored again.
func (r *SnapshotRepo) Save(ctx context.Context, s *Snapshot) (bool, error) {
	payload, digest, err := s.Encode()
	if err != nil {
		return false, err
	}
	var latest []byte
	err = r.q.QueryRow(ctx,
		`SELECT digest FROM scene_snapshots WHERE scene = $1 ORDER BY id DESC LIMIT 1`,
		s.Scene,
	).Scan(&latest)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("load latest digest: %w", err)
	}
	if bytes.Equal(latest, digest[:]) {
		return false, nil
	}
	if _, err := r.q.Exec(ctx,
		`INSERT INTO scene_snapshots (scene, frame, node_count, digest, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.Scene, int64(s.Frame), len(s.Nodes), digest[:], payload,
	); err != nil {
		return false, fmt.Errorf("save snapshot: %w", err)
	}
	return true, nil
}

// Latest loads the most recent snapshot of a scene.
func (r *SnapshotRepo) Latest(ctx context.Context, sceneName string) (*Snapshot, error) {
	var payload []byte
	err := r.q.QueryRow(ctx,
		`SELECT payload FROM scene_snapshots WHERE scene = $1 ORDER BY id DESC LIMIT 1`,
		sceneName,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return DecodeSnapshot(payload)
}

// Prune keeps the newest keep snapshots of a scene and deletes the rest.
func (r *SnapshotRepo) Prune(ctx context.Context, sceneName string, keep int) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM scene_snapshots WHERE scene = $1 AND id NOT IN (
		     SELECT id FROM scene_snapshots WHERE scene = $1 ORDER BY id DESC LIMIT $2)`,
		sceneName, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
