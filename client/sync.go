package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Offline queue operation types.
const (
	OpTaskProgress      = "task_progress"
	OpChallengeProgress = "challenge_progress"
	OpChatMessage       = "chat_message"
)

// Durable store keys.
const (
	offlineDataKey = "offline-data"
	lastSyncedKey  = "last-synced"
)

// ErrOffline is returned by SyncNow when there is no connectivity.
var ErrOffline = errors.New("cannot sync while offline")

// OfflineItem is one queued mutation created while disconnected.
type OfflineItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	TaskID      int64     `json:"taskId,omitempty"`
	ChallengeID int64     `json:"challengeId,omitempty"`
	Value       int       `json:"value,omitempty"`
	Date        string    `json:"date,omitempty"`
	Content     string    `json:"content,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Notifier surfaces sync outcomes to the user; failures are transient
// notices, never panics.
type Notifier interface {
	Notify(title, detail string)
}

// LogNotifier writes notices to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(title, detail string) {
	log.Printf("[Sync] %s: %s", title, detail)
}

// SyncState is the engine's externally visible state.
type SyncState struct {
	Online     bool
	Syncing    bool
	LastSynced time.Time
}

// Engine owns the durable offline queue and replays it against the REST
// API when connectivity returns. One cycle at a time; items are replayed
// in insertion order and each is removed from the queue right after its
// own successful replay, so a partial failure never causes duplicate
// replays later.
type Engine struct {
	store    Store
	api      *API
	notifier Notifier

	mu         sync.Mutex
	online     bool
	syncing    bool
	lastSynced time.Time
}

func NewEngine(store Store, api *API, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	e := &Engine{store: store, api: api, notifier: notifier, online: true}

	var last time.Time
	if ok, err := store.Get(lastSyncedKey, &last); err == nil && ok {
		e.lastSynced = last
	}
	return e
}

// AddOfflineData appends a mutation to the durable queue. This is the
// complete effect of a user action performed offline; the item gets its
// reconciliation id and timestamp here.
func (e *Engine) AddOfflineData(item OfflineItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	queue, err := e.loadQueue()
	if err != nil {
		return err
	}
	return e.store.Put(offlineDataKey, append(queue, item))
}

// Queue returns a snapshot of the pending items.
func (e *Engine) Queue() ([]OfflineItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadQueue()
}

// SetOnline feeds the engine a connectivity transition. Going online
// with a non-empty queue starts a sync cycle automatically, off the
// caller's goroutine: the socket invokes this from its connect loop and
// must not wait out a replay.
func (e *Engine) SetOnline(online bool) {
	e.mu.Lock()
	wasOnline := e.online
	e.online = online
	var pending int
	if queue, err := e.loadQueue(); err == nil {
		pending = len(queue)
	}
	e.mu.Unlock()

	if online && !wasOnline && pending > 0 {
		go func() { _ = e.syncCycle(context.Background()) }()
	}
}

// SyncNow runs a user-initiated sync cycle.
func (e *Engine) SyncNow(ctx context.Context) error {
	e.mu.Lock()
	online := e.online
	e.mu.Unlock()

	if !online {
		e.notifier.Notify("Cannot sync", "You are currently offline")
		return ErrOffline
	}
	return e.syncCycle(ctx)
}

// syncCycle drains the queue in insertion order. A trigger while a cycle
// is already running is ignored.
func (e *Engine) syncCycle(ctx context.Context) error {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return nil
	}
	e.syncing = true
	queue, err := e.loadQueue()
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	if err != nil {
		return err
	}

	replayed := 0
	for _, item := range queue {
		if err := e.dispatch(ctx, item); err != nil {
			e.notifier.Notify("Sync failed", "Could not synchronize offline data")
			return fmt.Errorf("replay %s: %w", item.Type, err)
		}
		if err := e.removeItem(item.ID); err != nil {
			return err
		}
		replayed++
	}

	now := time.Now()
	e.mu.Lock()
	e.lastSynced = now
	_ = e.store.Put(lastSyncedKey, now)
	e.mu.Unlock()

	if replayed > 0 {
		_ = e.api.MarkSynced(ctx)
		e.notifier.Notify("Sync completed", fmt.Sprintf("%d items synchronized", replayed))
	} else {
		e.notifier.Notify("Sync completed", "All data is up to date")
	}
	return nil
}

func (e *Engine) dispatch(ctx context.Context, item OfflineItem) error {
	switch item.Type {
	case OpTaskProgress:
		return e.api.PostTaskProgress(ctx, item.TaskID, item.Value, item.Date)
	case OpChallengeProgress:
		return e.api.PostChallengeProgress(ctx, item.ChallengeID, item.Value, item.Date)
	case OpChatMessage:
		return e.api.PostChatMessage(ctx, item.ChallengeID, item.Content, item.ID)
	default:
		// Unknown items cannot be replayed; dropping beats wedging the
		// queue forever.
		log.Printf("[Sync] dropping unknown queue item type %q", item.Type)
		return nil
	}
}

func (e *Engine) removeItem(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	queue, err := e.loadQueue()
	if err != nil {
		return err
	}
	kept := queue[:0]
	for _, it := range queue {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	return e.store.Put(offlineDataKey, kept)
}

// loadQueue must be called with e.mu held.
func (e *Engine) loadQueue() ([]OfflineItem, error) {
	var queue []OfflineItem
	if _, err := e.store.Get(offlineDataKey, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

// State reports the engine's current status for UI indicators.
func (e *Engine) State() SyncState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SyncState{Online: e.online, Syncing: e.syncing, LastSynced: e.lastSynced}
}
