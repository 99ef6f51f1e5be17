package persist

import (
	"context"
	"fmt"
)

// JournalEntry records one entity lifecycle event.
type JournalEntry struct {
	Frame     uint64
	Kind      string // "created", "deleted", "attached", "detached"
	EntityUID int32
	ClassTID  int32
}

type JournalRepo struct {
	db    *DB
	scene string
}

func NewJournalRepo(db *DB, sceneName string) *JournalRepo {
	return &JournalRepo{db: db, scene: sceneName}
}

// Write stores a batch of entries in a single transaction.
func (r *JournalRepo) Write(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO entity_journal (scene, frame, kind, entity_uid, class_tid)
			 VALUES ($1, $2, $3, $4, $5)`,
			r.scene, int64(e.Frame), e.Kind, e.EntityUID, e.ClassTID,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// History returns the journal of one entity, oldest first.
func (r *JournalRepo) History(ctx context.Context, uid int32) ([]JournalEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT frame, kind, entity_uid, class_tid FROM entity_journal
		 WHERE scene = $1 AND entity_uid = $2 ORDER BY id`, r.scene, uid,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var frame int64
		if err := rows.Scan(&frame, &e.Kind, &e.EntityUID, &e.ClassTID); err != nil {
			return nil, err
		}
		e.Frame = uint64(frame)
		result = append(result, e)
	}
	return result, rows.Err()
}
