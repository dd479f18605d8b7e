package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/charityquest/quest-admin/common"
	"github.com/charityquest/quest-admin/schema"
)

// DashboardData is one immutable in-memory copy of the derived extracts.
// Requests read a snapshot pointer, Reload swaps in a fresh one.
type DashboardData struct {
	Series      schema.DailySeries
	DayLog      []schema.UserDayRow
	Locations   []schema.LocationPoint
	SkippedRows int
	LoadedAt    time.Time
}

// Loader fetches the published extracts from object storage and derives
// the dashboard state through the Normalizer.
type Loader struct {
	logger     *log.Logger
	store      ObjectStore
	normalizer Normalizer
	keys       common.ExtractKeys

	mu   sync.RWMutex
	data *DashboardData
}

func NewLoader(logger *log.Logger, store ObjectStore, normalizer Normalizer, keys common.ExtractKeys) *Loader {
	return &Loader{
		logger:     logger,
		store:      store,
		normalizer: normalizer,
		keys:       keys,
	}
}

// Load fetches both extracts, derives the dashboard state and swaps it in.
// The previous state stays visible until the new one is fully built.
func (l *Loader) Load(ctx context.Context) error {
	raw, err := l.store.Fetch(ctx, l.keys.Signups)
	if err != nil {
		return fmt.Errorf("fetching signups extract: %w", err)
	}
	signups, skippedSignups, err := schema.ReadSignupEvents(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decoding signups extract: %w", err)
	}

	raw, err = l.store.Fetch(ctx, l.keys.Map)
	if err != nil {
		return fmt.Errorf("fetching map extract: %w", err)
	}
	logins, skippedLogins, err := schema.ReadLoginEvents(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decoding map extract: %w", err)
	}

	series, dayLog := l.normalizer.Normalize(signups)
	locations, skippedCoords := l.normalizer.AggregateLocations(logins)

	data := &DashboardData{
		Series:      series,
		DayLog:      dayLog,
		Locations:   locations,
		SkippedRows: skippedSignups + skippedLogins + skippedCoords,
		LoadedAt:    time.Now().UTC(),
	}
	l.mu.Lock()
	l.data = data
	l.mu.Unlock()

	l.logger.Printf("extract loaded: %d daily buckets, %d log rows, %d map points, %d skipped rows",
		len(series), len(dayLog), len(locations), data.SkippedRows)
	return nil
}

// Reload re-fetches the extracts, replacing the restart-the-server dance
// the batch job used to need.
func (l *Loader) Reload(ctx context.Context) error {
	return l.Load(ctx)
}

// Current returns the loaded state. ok is false before the first
// successful Load.
func (l *Loader) Current() (*DashboardData, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.data, l.data != nil
}
