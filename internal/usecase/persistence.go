package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/quantity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
)

const (
	cityKeyPrefix   = "inventory:city:"
	selectedCityKey = "selectedCity"
)

// Keys written by earlier versions of the app. They are absorbed into city
// bundles once at startup and then removed.
const (
	legacyDepartmentsKey  = "departments"
	legacyItemsKey        = "items"
	legacyInventoryKey    = "inventoryData"
	legacyHistoryKey      = "inventoryHistory"
	legacyAppDataKey      = "inventoryAppData"
	legacyAllItemsKey     = "allItems"
	legacyAllInventoryKey = "allInventoryData"
	legacyAllHistoryKey   = "allHistory"

	legacyBackupPrefix = "legacy-backup:"
)

var legacyKeys = []string{
	legacyDepartmentsKey,
	legacyItemsKey,
	legacyInventoryKey,
	legacyHistoryKey,
	legacyAppDataKey,
	legacyAllItemsKey,
	legacyAllInventoryKey,
	legacyAllHistoryKey,
}

func cityKey(city string) string { return cityKeyPrefix + city }

// cityBundle is the persisted form of one city.
type cityBundle struct {
	Version     int                   `json:"version"`
	Departments []entity.Department   `json:"departments"`
	Items       []entity.Item         `json:"items"`
	Quantities  entity.Quantities     `json:"quantities"`
	History     []entity.HistoryEntry `json:"history"`
	LastUpdated time.Time             `json:"lastUpdated"`
}

// legacyAppData is the old "inventoryAppData" document.
type legacyAppData struct {
	Departments   []entity.Department   `json:"departments"`
	Items         []entity.Item         `json:"items"`
	InventoryData rawQuantities         `json:"inventoryData"`
	History       []entity.HistoryEntry `json:"history"`
}

// rawQuantities holds quantities as they were stored: numbers or strings
// such as "1,5".
type rawQuantities map[string]map[string]json.RawMessage

func (r rawQuantities) normalize() entity.Quantities {
	out := entity.Quantities{}
	for deptID, items := range r {
		policy := quantity.PolicyFor(deptID)
		m := make(map[string]float64, len(items))
		for itemID, raw := range items {
			var num float64
			if err := json.Unmarshal(raw, &num); err == nil {
				m[itemID] = quantity.ParseFloat(num, policy).Float64()
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				continue
			}
			q, err := quantity.Parse(s, policy)
			if err != nil {
				log.Printf("[store] dropping legacy quantity %s/%s=%q: %v", deptID, itemID, s, err)
				continue
			}
			m[itemID] = q.Float64()
		}
		out[deptID] = m
	}
	return out
}

// normalizeState enforces the store invariants on loaded data: a department
// set, items pointing at known departments, non-negative rounded quantities
// only for existing (department, item) pairs, and a capped history.
func normalizeState(s entity.CityState) entity.CityState {
	if len(s.Departments) == 0 {
		s.Departments = entity.DefaultDepartments()
	}
	known := make(map[string]bool, len(s.Departments))
	for _, d := range s.Departments {
		known[d.ID] = true
	}

	items := make([]entity.Item, 0, len(s.Items))
	seen := make(map[string]bool, len(s.Items))
	for _, it := range s.Items {
		if it.ID == "" || seen[it.ID] || !known[it.Category] {
			continue
		}
		seen[it.ID] = true
		items = append(items, it)
	}
	s.Items = items

	q := entity.Quantities{}
	for _, it := range items {
		v, ok := s.Quantities[it.Category][it.ID]
		if !ok {
			continue
		}
		if q[it.Category] == nil {
			q[it.Category] = map[string]float64{}
		}
		q[it.Category][it.ID] = quantity.ParseFloat(v, quantity.PolicyFor(it.Category)).Float64()
	}
	s.Quantities = q

	if len(s.History) > constants.HistoryLimit {
		s.History = s.History[:constants.HistoryLimit]
	}
	if s.History == nil {
		s.History = []entity.HistoryEntry{}
	}
	return s
}

func decodeBundle(raw []byte) (entity.CityState, error) {
	var b cityBundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return entity.CityState{}, err
	}
	if b.Version > constants.BundleSchemaVersion {
		return entity.CityState{}, fmt.Errorf("unsupported bundle version %d", b.Version)
	}
	return normalizeState(entity.CityState{
		Departments: b.Departments,
		Items:       b.Items,
		Quantities:  b.Quantities,
		History:     b.History,
	}), nil
}

func encodeBundle(s entity.CityState, now time.Time) ([]byte, error) {
	return json.Marshal(cityBundle{
		Version:     constants.BundleSchemaVersion,
		Departments: s.Departments,
		Items:       s.Items,
		Quantities:  s.Quantities,
		History:     s.History,
		LastUpdated: now.UTC(),
	})
}

// loadCity reads one city bundle. A missing or unreadable bundle yields the
// seed state; the second return value reports whether a bundle was found.
func loadCity(ctx context.Context, store repository.KeyValueStore, city string) (entity.CityState, bool) {
	raw, err := store.Get(ctx, cityKey(city))
	if errors.Is(err, repository.ErrNotFound) {
		return entity.SeedState(city), false
	}
	if err != nil {
		log.Printf("[store] read %s failed, using seed: %v", city, err)
		return entity.SeedState(city), false
	}
	state, err := decodeBundle(raw)
	if err != nil {
		log.Printf("[store] malformed bundle for %s, using seed: %v", city, err)
		return entity.SeedState(city), false
	}
	return state, true
}

func readSelectedCity(ctx context.Context, store repository.KeyValueStore) string {
	raw, err := store.Get(ctx, selectedCityKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("[store] read selected city: %v", err)
		}
		return ""
	}
	city := strings.TrimSpace(string(raw))
	// tolerate a JSON-quoted value
	var quoted string
	if json.Unmarshal(raw, &quoted) == nil {
		city = strings.TrimSpace(quoted)
	}
	return city
}

// migrateLegacy absorbs legacy keys into per-city bundles. A city that
// already has a bundle is left alone. All legacy keys are removed afterwards;
// values that could not be decoded are first copied under legacyBackupPrefix.
func migrateLegacy(ctx context.Context, store repository.KeyValueStore, fallbackCity string, now time.Time) error {
	present := &legacyValues{raw: map[string][]byte{}, malformed: map[string]bool{}}
	for _, key := range legacyKeys {
		raw, err := store.Get(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read legacy key %s: %w", key, err)
		}
		present.raw[key] = raw
	}
	if len(present.raw) == 0 {
		return nil
	}

	migrated := map[string]entity.CityState{}
	hasBundle := func(city string) bool {
		if _, ok := migrated[city]; ok {
			return true
		}
		_, err := store.Get(ctx, cityKey(city))
		return err == nil
	}

	// Per-city maps first.
	var allItems map[string][]entity.Item
	var allInventory map[string]rawQuantities
	var allHistory map[string][]entity.HistoryEntry
	present.decode(legacyAllItemsKey, &allItems)
	present.decode(legacyAllInventoryKey, &allInventory)
	present.decode(legacyAllHistoryKey, &allHistory)

	cities := map[string]bool{}
	for c := range allItems {
		cities[c] = true
	}
	for c := range allInventory {
		cities[c] = true
	}
	for c := range allHistory {
		cities[c] = true
	}
	for city := range cities {
		if strings.TrimSpace(city) == "" || hasBundle(city) {
			continue
		}
		state := entity.SeedState(city)
		if items, ok := allItems[city]; ok {
			state.Items = items
		}
		if q, ok := allInventory[city]; ok {
			state.Quantities = q.normalize()
		}
		if h, ok := allHistory[city]; ok {
			state.History = h
		}
		migrated[city] = normalizeState(state)
	}

	// Flat keys mirrored the active city.
	city := readSelectedCity(ctx, store)
	if city == "" {
		city = fallbackCity
	}
	if flat, ok := flatLegacyState(present, city); ok && !hasBundle(city) {
		migrated[city] = normalizeState(flat)
	}

	for c, state := range migrated {
		raw, err := encodeBundle(state, now)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c, err)
		}
		if err := store.Set(ctx, cityKey(c), raw); err != nil {
			return fmt.Errorf("write bundle %s: %w", c, err)
		}
		log.Printf("[store] migrated legacy data for %s (%d items)", c, len(state.Items))
	}
	for key, raw := range present.raw {
		if present.malformed[key] || !json.Valid(raw) {
			if err := store.Set(ctx, legacyBackupPrefix+key, raw); err != nil {
				return fmt.Errorf("back up legacy key %s: %w", key, err)
			}
			log.Printf("[store] kept unreadable legacy key %s as %s%s", key, legacyBackupPrefix, key)
		}
		if err := store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete legacy key %s: %w", key, err)
		}
	}
	return nil
}

func flatLegacyState(present *legacyValues, city string) (entity.CityState, bool) {
	state := entity.SeedState(city)
	found := false

	var app legacyAppData
	if present.decode(legacyAppDataKey, &app) {
		found = true
		if len(app.Departments) > 0 {
			state.Departments = app.Departments
		}
		if app.Items != nil {
			state.Items = app.Items
		}
		if app.InventoryData != nil {
			state.Quantities = app.InventoryData.normalize()
		}
		if app.History != nil {
			state.History = app.History
		}
		return state, found
	}

	var deps []entity.Department
	if present.decode(legacyDepartmentsKey, &deps) {
		found = true
		if len(deps) > 0 {
			state.Departments = deps
		}
	}
	var items []entity.Item
	if present.decode(legacyItemsKey, &items) {
		found = true
		state.Items = items
	}
	var inv rawQuantities
	if present.decode(legacyInventoryKey, &inv) {
		found = true
		state.Quantities = inv.normalize()
	}
	var history []entity.HistoryEntry
	if present.decode(legacyHistoryKey, &history) {
		found = true
		state.History = history
	}
	return state, found
}

// legacyValues holds the legacy keys found in the store and remembers which
// of them failed to decode.
type legacyValues struct {
	raw       map[string][]byte
	malformed map[string]bool
}

func (l *legacyValues) decode(key string, dst interface{}) bool {
	raw, ok := l.raw[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("[store] ignoring malformed legacy key %s: %v", key, err)
		l.malformed[key] = true
		return false
	}
	return true
}
