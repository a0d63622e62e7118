// Package catalog reads and writes catalog snapshots: the equipment,
// categories, coupons, settings and (optionally) bookings of a store in
// one JSON document, plain or gzipped.
package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"rental-storefront/internal/model"
	"rental-storefront/internal/repository"

	"github.com/google/uuid"
)

// Snapshot is the serialised form of a store's catalog.
type Snapshot struct {
	Equipment  []model.Equipment `json:"equipment"`
	Categories []model.Category  `json:"categories"`
	Coupons    []model.Coupon    `json:"coupons"`
	Settings   *model.Settings   `json:"settings,omitempty"`
	Bookings   []model.Booking   `json:"bookings,omitempty"`
}

// Loader defines the interface for loading catalog snapshots.
type Loader interface {
	// Load reads the snapshot stored at path.
	Load(ctx context.Context, path string) (*Snapshot, error)
}

var gzipMagic = []byte{0x1f, 0x8b}

// Decode reads a snapshot from r. Gzipped input is detected by its magic
// bytes, so both .json and .json.gz files are accepted.
func Decode(r io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br
	if head, err := br.Peek(len(gzipMagic)); err == nil && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	var snap Snapshot
	if err := json.NewDecoder(src).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode catalog snapshot: %w", err)
	}
	return &snap, nil
}

// Encode writes snap to w as gzipped JSON.
func Encode(w io.Writer, snap *Snapshot) error {
	gz := gzip.NewWriter(w)

	enc := json.NewEncoder(gz)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		_ = gz.Close()
		return fmt.Errorf("failed to encode catalog snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to flush catalog snapshot: %w", err)
	}
	return nil
}

// Counts reports how many records Apply wrote.
type Counts struct {
	Equipment  int `json:"equipment"`
	Categories int `json:"categories"`
	Coupons    int `json:"coupons"`
	Bookings   int `json:"bookings"`
}

// Apply writes snap into repos. Categories are saved before equipment so
// category references resolve; coupons replace the stored list; bookings
// are written group by group.
func Apply(ctx context.Context, snap *Snapshot, repos repository.Repositories) (Counts, error) {
	var counts Counts
	if snap == nil {
		return counts, nil
	}

	for i := range snap.Categories {
		if err := repos.Categories.Save(ctx, &snap.Categories[i]); err != nil {
			return counts, fmt.Errorf("failed to apply category %s: %w", snap.Categories[i].ID, err)
		}
		counts.Categories++
	}

	for i := range snap.Equipment {
		if err := repos.Equipment.Save(ctx, &snap.Equipment[i]); err != nil {
			return counts, fmt.Errorf("failed to apply equipment %s: %w", snap.Equipment[i].ID, err)
		}
		counts.Equipment++
	}

	if snap.Coupons != nil {
		if err := repos.Coupons.ReplaceAll(ctx, snap.Coupons); err != nil {
			return counts, fmt.Errorf("failed to apply coupons: %w", err)
		}
		counts.Coupons = len(snap.Coupons)
	}

	if snap.Settings != nil {
		if err := repos.Settings.Save(ctx, *snap.Settings); err != nil {
			return counts, fmt.Errorf("failed to apply settings: %w", err)
		}
	}

	for _, group := range groupBookings(snap.Bookings) {
		if err := repos.Bookings.CreateGroup(ctx, group, nil); err != nil {
			return counts, fmt.Errorf("failed to apply booking group %s: %w", group[0].GroupID, err)
		}
		counts.Bookings += len(group)
	}

	return counts, nil
}

// Capture reads the full catalog, bookings included, from repos.
func Capture(ctx context.Context, repos repository.Repositories) (*Snapshot, error) {
	equipment, err := repos.Equipment.List(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := repos.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	coupons, err := repos.Coupons.List(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := repos.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := repos.Bookings.List(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Equipment:  equipment,
		Categories: categories,
		Coupons:    coupons,
		Settings:   &settings,
		Bookings:   bookings,
	}, nil
}

// groupBookings splits bookings by group in first-seen order, each group
// sorted by sequence. Records without a group become their own group.
func groupBookings(bookings []model.Booking) [][]model.Booking {
	index := make(map[uuid.UUID]int)
	groups := make([][]model.Booking, 0)

	for _, b := range bookings {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		if b.GroupID == uuid.Nil {
			b.GroupID = b.ID
		}
		i, ok := index[b.GroupID]
		if !ok {
			i = len(groups)
			index[b.GroupID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], b)
	}

	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Sequence < g[j].Sequence })
	}
	return groups
}
