package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/charityquest/quest-admin/common"
	"github.com/charityquest/quest-admin/schema"
)

const querySignups = `
    WITH usrs AS (
        SELECT DISTINCT entityid, username
        FROM trans_player_linked_account
    ),

    times AS (
        SELECT DISTINCT entityid, timestamp
        FROM trans_player_inventory_item_added
    )

    SELECT usrs.username, usrs.entityid, times.timestamp
    FROM times
    JOIN usrs ON times.entityid = usrs.entityid
    ORDER BY timestamp
`

const queryLocations = `
    WITH locs AS
        (SELECT DISTINCT eventid,
            entityid,
            platformusername,
            location.countrycode countrycode,
            location.city city,
            location.latitude latitude,
            location.longitude longitude,
            timestamp
        FROM trans_player_logged_in ), usrs AS
        (SELECT DISTINCT entityid
        FROM trans_player_inventory_item_added
        WHERE itemid = 'quest_contract'
        GROUP BY entityid)

    SELECT locs.platformusername,
            usrs.entityid,
            locs.countrycode,
            locs.city,
            locs.latitude,
            locs.longitude,
            locs.timestamp
    FROM locs
    JOIN usrs
        ON locs.entityid = usrs.entityid
    ORDER BY timestamp
`

// Exporter runs the extraction batch: it queries the engine for raw
// events, cleans them, and publishes the extract files. Each run fully
// replaces the previous extracts, there is no incremental update.
type Exporter struct {
	logger     *log.Logger
	engine     QueryEngine
	store      ObjectStore
	normalizer Normalizer
	keys       common.ExtractKeys
}

func NewExporter(logger *log.Logger, engine QueryEngine, store ObjectStore, normalizer Normalizer, keys common.ExtractKeys) Exporter {
	return Exporter{
		logger:     logger,
		engine:     engine,
		store:      store,
		normalizer: normalizer,
		keys:       keys,
	}
}

// Export runs both extraction queries and publishes the three extracts:
// raw sign-ups, raw login locations, and the derived daily series.
func (e Exporter) Export(ctx context.Context) error {
	signups, err := e.runEvents(ctx, querySignups, schema.SignupsFromRecords, "signups")
	if err != nil {
		return err
	}
	buffer, err := schema.WriteSignupEvents(signups)
	if err != nil {
		return fmt.Errorf("rendering signups extract: %w", err)
	}
	if err := e.store.Publish(ctx, e.keys.Signups, buffer); err != nil {
		return fmt.Errorf("publishing signups extract: %w", err)
	}

	series, _ := e.normalizer.Normalize(signups)
	buffer, err = schema.WriteDailySeries(series)
	if err != nil {
		return fmt.Errorf("rendering daily series extract: %w", err)
	}
	if err := e.store.Publish(ctx, e.keys.Daily, buffer); err != nil {
		return fmt.Errorf("publishing daily series extract: %w", err)
	}

	logins, err := e.runEvents(ctx, queryLocations, schema.LoginsFromRecords, "locations")
	if err != nil {
		return err
	}
	buffer, err = schema.WriteLoginEvents(logins)
	if err != nil {
		return fmt.Errorf("rendering map extract: %w", err)
	}
	if err := e.store.Publish(ctx, e.keys.Map, buffer); err != nil {
		return fmt.Errorf("publishing map extract: %w", err)
	}

	e.logger.Printf("export done: %d signup rows, %d location rows, %d daily buckets", len(signups), len(logins), len(series))
	return nil
}

func (e Exporter) runEvents(ctx context.Context, query string, fromRecords func([][]string) ([]schema.RawEvent, int, error), name string) ([]schema.RawEvent, error) {
	common.TimeIt(ctx, "query_"+name)
	records, err := e.engine.RunQuery(ctx, query)
	common.TimeEnd(ctx, "query_"+name)
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", name, err)
	}
	events, skipped, err := fromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("%s result decode failed: %w", name, err)
	}
	if skipped > 0 {
		e.logger.Printf("%s query: skipped %d rows that failed to parse", name, skipped)
	}
	return events, nil
}
