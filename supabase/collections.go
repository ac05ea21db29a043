package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	postgrest "github.com/supabase-community/postgrest-go"

	scalexone "github.com/creastat/scalexone"
)

// collectionRepo reads and reorders one ordered collection table.
type collectionRepo struct {
	c      *Client
	table  string
	parent string
}

// Collection returns the repo for an ordered collection.
func (c *Client) Collection(name CollectionName) scalexone.OrderedCollectionRepo {
	return &collectionRepo{c: c, table: string(name), parent: name.parentColumn()}
}

func (r *collectionRepo) List(ctx context.Context, parentID string) ([]scalexone.OrderedItem, error) {
	if r.parent == "" {
		return nil, fmt.Errorf("unknown collection %q: %w", r.table, scalexone.ErrInvalidConfig)
	}
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var rows []map[string]json.RawMessage
	_, err := r.c.api().From(r.table).
		Select("*", "", false).
		Eq(r.parent, parentID).
		Order("order", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}

	items := make([]scalexone.OrderedItem, 0, len(rows))
	for _, row := range rows {
		it, err := rowToItem(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s row: %w", r.table, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func (r *collectionRepo) UpdateOrder(ctx context.Context, id string, order int) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	var updated []map[string]json.RawMessage
	_, err := r.c.api().From(r.table).
		Update(map[string]int{"order": order}, "representation", "").
		Eq("id", id).
		ExecuteTo(&updated)
	if err != nil {
		return fmt.Errorf("failed to update %s order: %w", r.table, err)
	}
	// Row-level security filters rows out instead of failing the update.
	if len(updated) == 0 {
		return fmt.Errorf("%s %s: %w", r.table, id, scalexone.ErrNotFound)
	}
	return nil
}

// rowToItem lifts the shared columns out of a row and keeps the rest as the
// item payload.
func rowToItem(row map[string]json.RawMessage) (scalexone.OrderedItem, error) {
	var it scalexone.OrderedItem
	fields := map[string]any{
		"id":    &it.ID,
		"key":   &it.Key,
		"name":  &it.Label,
		"order": &it.Order,
	}
	for col, dst := range fields {
		raw, ok := row[col]
		if !ok || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return it, fmt.Errorf("column %s: %w", col, err)
		}
		delete(row, col)
	}
	if it.Label == "" {
		if raw, ok := row["title"]; ok {
			_ = json.Unmarshal(raw, &it.Label)
		}
	}
	if it.Key == "" {
		it.Key = it.ID
	}
	if len(row) > 0 {
		payload, err := json.Marshal(row)
		if err != nil {
			return it, err
		}
		it.Payload = payload
	}
	return it, nil
}

// Compile-time check that collectionRepo implements OrderedCollectionRepo
var _ scalexone.OrderedCollectionRepo = (*collectionRepo)(nil)
