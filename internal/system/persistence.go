package system

import (
	"context"
	"time"

	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/core/event"
	"github.com/scenekit/engine/internal/persist"
	"github.com/scenekit/engine/internal/scene"
	"go.uber.org/zap"
)

// SnapshotStore is implemented by persist.SnapshotRepo.
type SnapshotStore interface {
	Save(ctx context.Context, s *persist.Snapshot) (bool, error)
}

// JournalStore is implemented by persist.JournalRepo.
type JournalStore interface {
	Write(ctx context.Context, entries []persist.JournalEntry) error
}

// PersistenceSystem journals entity lifecycle events and periodically
// stores a snapshot of the scene hierarchy. Stage Discard.
type PersistenceSystem struct {
	scene    *scene.Scene
	name     string
	snaps    SnapshotStore
	journal  JournalStore
	pending  []persist.JournalEntry
	frame    uint64
	interval uint64 // snapshot every N frames
	log      *zap.Logger
}

// NewPersistenceSystem subscribes to the world's lifecycle events. journal
// may be nil to skip journaling.
func NewPersistenceSystem(sc *scene.Scene, name string, snaps SnapshotStore, journal JournalStore, log *zap.Logger, intervalFrames uint64) *PersistenceSystem {
	s := &PersistenceSystem{
		scene:    sc,
		name:     name,
		snaps:    snaps,
		journal:  journal,
		interval: intervalFrames,
		log:      log,
	}
	if journal != nil {
		bus := sc.World().Events()
		event.Subscribe(bus, func(ev ecs.EntityCreated) { s.record("created", ev.UID, ecs.InvalidComponentTID) })
		event.Subscribe(bus, func(ev ecs.EntityDeleted) { s.record("deleted", ev.UID, ecs.InvalidComponentTID) })
		event.Subscribe(bus, func(ev ecs.ComponentAttached) { s.record("attached", ev.UID, ev.TID) })
		event.Subscribe(bus, func(ev ecs.ComponentDetached) { s.record("detached", ev.UID, ev.TID) })
	}
	return s
}

// SnapshotEveryFrames converts a wall-clock snapshot interval into frames.
// A positive interval shorter than one tick still snapshots every frame;
// zero or negative disables periodic snapshots.
func SnapshotEveryFrames(interval, tick time.Duration) uint64 {
	if interval <= 0 {
		return 0
	}
	if tick <= 0 || interval < tick {
		return 1
	}
	return uint64(interval / tick)
}

func (s *PersistenceSystem) Stage() ecs.ProcessStage { return ecs.Discard }

func (s *PersistenceSystem) Update(ctx *ecs.ProcessContext) {
	s.frame = ctx.Frame
	if s.interval == 0 || (ctx.Frame+1)%s.interval != 0 {
		return
	}
	s.flush()
}

// SaveNow writes pending journal entries and a snapshot immediately.
// Called for graceful shutdown.
func (s *PersistenceSystem) SaveNow() {
	s.flush()
}

// Pending returns the number of journal entries not yet written.
func (s *PersistenceSystem) Pending() int { return len(s.pending) }

// record runs during event dispatch at the start of the next frame, so
// s.frame still holds the frame the event happened in.
func (s *PersistenceSystem) record(kind string, uid ecs.EntityUID, tid ecs.ComponentTID) {
	s.pending = append(s.pending, persist.JournalEntry{
		Frame:     s.frame,
		Kind:      kind,
		EntityUID: int32(uid),
		ClassTID:  int32(tid),
	})
}

func (s *PersistenceSystem) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.journal != nil && len(s.pending) > 0 {
		if err := s.journal.Write(ctx, s.pending); err != nil {
			s.log.Error("journal write failed", zap.Int("entries", len(s.pending)), zap.Error(err))
		} else {
			s.pending = s.pending[:0]
		}
	}

	snap := persist.Capture(s.scene, s.name, s.frame)
	stored, err := s.snaps.Save(ctx, snap)
	if err != nil {
		s.log.Error("snapshot save failed", zap.Uint64("frame", s.frame), zap.Error(err))
		return
	}
	if stored {
		s.log.Info("snapshot saved", zap.Uint64("frame", s.frame), zap.Int("nodes", len(snap.Nodes)))
	} else {
		s.log.Debug("snapshot unchanged", zap.Uint64("frame", s.frame))
	}
}
