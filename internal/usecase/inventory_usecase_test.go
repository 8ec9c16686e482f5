package usecase

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/connectivity"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/storage"
)

const testCity = "Львів"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{fn: f}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every pending timer.
func (s *fakeScheduler) fire() {
	s.mu.Lock()
	pending := append([]*fakeTimer(nil), s.timers...)
	s.timers = nil
	s.mu.Unlock()
	for _, t := range pending {
		if !t.stopped {
			t.fn()
		}
	}
}

type stubSyncer struct {
	mu     sync.Mutex
	calls  []entity.CityState
	sheet  string
	err    error
	synced chan struct{}
}

func newStubSyncer(err error) *stubSyncer {
	return &stubSyncer{err: err, synced: make(chan struct{}, 4)}
}

func (s *stubSyncer) Sync(ctx context.Context, spreadsheetID string, state entity.CityState) error {
	s.mu.Lock()
	s.calls = append(s.calls, state)
	s.sheet = spreadsheetID
	s.mu.Unlock()
	s.synced <- struct{}{}
	return s.err
}

// failingStore fails every Set; reads go to an in-memory store.
type failingStore struct {
	repository.KeyValueStore
}

func (f failingStore) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("disk full")
}

func newTestStore(t *testing.T, kv repository.KeyValueStore) (*inventoryUseCase, *fakeScheduler) {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemoryKeyValueStore()
	}
	sched := &fakeScheduler{}
	u := NewInventoryUseCase(context.Background(), InventoryDeps{
		Store:     kv,
		Clock:     newFakeClock(),
		Scheduler: sched,
	}).(*inventoryUseCase)
	t.Cleanup(u.Close)
	return u, sched
}

func firstItem(t *testing.T, s entity.CityState, deptID string) entity.Item {
	t.Helper()
	items := entity.ItemsIn(s.Items, deptID)
	if len(items) == 0 {
		t.Fatalf("no items in %s", deptID)
	}
	return items[0]
}

func TestGetStateSeedsCity(t *testing.T) {
	u, _ := newTestStore(t, nil)
	state := u.GetState(context.Background(), testCity)

	if !reflect.DeepEqual(state.Departments, entity.DefaultDepartments()) {
		t.Fatalf("departments = %v", state.Departments)
	}
	if len(state.Items) == 0 {
		t.Fatalf("seed catalog empty for %s", testCity)
	}
	if len(state.History) != 0 {
		t.Fatalf("fresh city has history")
	}

	unknown := u.GetState(context.Background(), "Полтава")
	if len(unknown.Items) != 0 || len(unknown.Departments) != 3 {
		t.Fatalf("unknown city state = %+v", unknown)
	}
}

func TestGetStateReturnsCopy(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	state := u.GetState(ctx, testCity)
	item := firstItem(t, state, constants.DepartmentTableware)

	state.Items[0].Name = "hacked"
	state.Quantities[constants.DepartmentTableware] = map[string]float64{item.ID: 99}

	again := u.GetState(ctx, testCity)
	if again.Items[0].Name == "hacked" || again.Quantities.Get(constants.DepartmentTableware, item.ID) != 0 {
		t.Fatalf("GetState leaked internal state")
	}
}

func TestUpdateItemCountLastWriteWins(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	item := firstItem(t, u.GetState(ctx, testCity), constants.DepartmentTableware)

	for _, v := range []float64{3, 10, 7} {
		if err := u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, item.ID, v); err != nil {
			t.Fatalf("UpdateItemCount(%v): %v", v, err)
		}
	}
	state := u.GetState(ctx, testCity)
	if got := state.Quantities.Get(constants.DepartmentTableware, item.ID); got != 7 {
		t.Fatalf("quantity = %v, want 7", got)
	}
	if len(state.History) != 3 {
		t.Fatalf("history = %d, want 3", len(state.History))
	}
	newest := state.History[0]
	if newest.OldValue != 10 || newest.NewValue != 7 || newest.ItemName != item.Name || newest.UserName != constants.DefaultUserName {
		t.Fatalf("newest history entry = %+v", newest)
	}
	if state.History[0].Timestamp <= state.History[1].Timestamp {
		t.Fatalf("history not newest-first")
	}
}

func TestUpdateItemCountNoOpWritesNothing(t *testing.T) {
	kv := storage.NewMemoryKeyValueStore()
	u, _ := newTestStore(t, kv)
	ctx := context.Background()
	item := firstItem(t, u.GetState(ctx, testCity), constants.DepartmentTableware)

	if err := u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, item.ID, 0); err != nil {
		t.Fatalf("UpdateItemCount: %v", err)
	}
	if len(u.GetState(ctx, testCity).History) != 0 {
		t.Fatalf("setting the current value produced history")
	}
	if _, err := kv.Get(ctx, cityKey(testCity)); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("no-op write persisted a bundle: %v", err)
	}

	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, item.ID, 4)
	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, item.ID, 4)
	if n := len(u.GetState(ctx, testCity).History); n != 1 {
		t.Fatalf("history = %d, want 1", n)
	}
}

func TestUpdateItemCountClampsAndRounds(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	state := u.GetState(ctx, testCity)
	plate := firstItem(t, state, constants.DepartmentTableware)
	oil := firstItem(t, state, constants.DepartmentHousehold)

	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, plate.ID, 5)
	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, plate.ID, -3)
	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentHousehold, oil.ID, 1.239)

	state = u.GetState(ctx, testCity)
	if got := state.Quantities.Get(constants.DepartmentTableware, plate.ID); got != 0 {
		t.Fatalf("negative not clamped: %v", got)
	}
	if got := state.Quantities.Get(constants.DepartmentHousehold, oil.ID); got != 1.24 {
		t.Fatalf("household rounding = %v, want 1.24", got)
	}

	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, plate.ID, 2.4)
	if got := u.GetState(ctx, testCity).Quantities.Get(constants.DepartmentTableware, plate.ID); got != 2 {
		t.Fatalf("whole-number rounding = %v, want 2", got)
	}
}

func TestUpdateItemCountRejectsUnknown(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	item := firstItem(t, u.GetState(ctx, testCity), constants.DepartmentTableware)

	if err := u.UpdateItemCount(ctx, testCity, "dept-9", item.ID, 1); !errors.Is(err, ErrUnknownDepartment) {
		t.Fatalf("unknown dept error = %v", err)
	}
	if err := u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, "item-nope", 1); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("unknown item error = %v", err)
	}
	if err := u.UpdateItemCount(ctx, testCity, constants.DepartmentPackaging, item.ID, 1); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("item in wrong department error = %v", err)
	}
}

func TestAdjustItemCount(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	item := firstItem(t, u.GetState(ctx, testCity), constants.DepartmentPackaging)

	v, err := u.AdjustItemCount(ctx, testCity, constants.DepartmentPackaging, item.ID, 1)
	if err != nil || v != 1 {
		t.Fatalf("Adjust(+1) = %v, %v", v, err)
	}
	v, _ = u.AdjustItemCount(ctx, testCity, constants.DepartmentPackaging, item.ID, 2)
	if v != 3 {
		t.Fatalf("Adjust(+2) = %v, want 3", v)
	}
	v, _ = u.AdjustItemCount(ctx, testCity, constants.DepartmentPackaging, item.ID, -10)
	if v != 0 {
		t.Fatalf("Adjust(-10) = %v, want 0", v)
	}
}

func TestHistoryIsCapped(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	item := firstItem(t, u.GetState(ctx, testCity), constants.DepartmentTableware)

	for i := 1; i <= constants.HistoryLimit+25; i++ {
		_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, item.ID, float64(i))
	}
	history := u.GetState(ctx, testCity).History
	if len(history) != constants.HistoryLimit {
		t.Fatalf("history = %d, want %d", len(history), constants.HistoryLimit)
	}
	if history[0].NewValue != float64(constants.HistoryLimit+25) {
		t.Fatalf("newest entry = %+v", history[0])
	}
	for i := 1; i < len(history); i++ {
		if history[i-1].Timestamp < history[i].Timestamp {
			t.Fatalf("history out of order at %d", i)
		}
	}
}

func TestResetDepartmentCounts(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	state := u.GetState(ctx, testCity)
	tableware := entity.ItemsIn(state.Items, constants.DepartmentTableware)
	household := firstItem(t, state, constants.DepartmentHousehold)

	for i, it := range tableware {
		_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, it.ID, float64(i+2))
	}
	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentHousehold, household.ID, 1.5)
	before := u.GetState(ctx, testCity)

	if err := u.ResetDepartmentCounts(ctx, testCity, constants.DepartmentTableware); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	after := u.GetState(ctx, testCity)
	for _, it := range tableware {
		if got := after.Quantities.Get(constants.DepartmentTableware, it.ID); got != 0 {
			t.Fatalf("%s = %v after reset", it.ID, got)
		}
	}
	if after.Quantities.Get(constants.DepartmentHousehold, household.ID) != 1.5 {
		t.Fatalf("reset touched another department")
	}
	if !reflect.DeepEqual(after.Items, before.Items) {
		t.Fatalf("reset changed the item list")
	}
	if len(after.History) != len(before.History)+1 {
		t.Fatalf("reset should add exactly one history entry")
	}
	if h := after.History[0]; h.NewValue != 0 || h.OldValue <= 0 || h.DepartmentID != constants.DepartmentTableware {
		t.Fatalf("reset entry = %+v", h)
	}

	// resetting an empty department records nothing
	_ = u.ResetDepartmentCounts(ctx, testCity, constants.DepartmentTableware)
	if len(u.GetState(ctx, testCity).History) != len(after.History) {
		t.Fatalf("empty reset produced history")
	}
	if err := u.ResetDepartmentCounts(ctx, testCity, "dept-x"); !errors.Is(err, ErrUnknownDepartment) {
		t.Fatalf("unknown dept reset error = %v", err)
	}
}

func TestAddNewItem(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()

	a, err := u.AddNewItem(ctx, testCity, "  Келих  ", constants.DepartmentTableware)
	if err != nil {
		t.Fatalf("AddNewItem: %v", err)
	}
	b, _ := u.AddNewItem(ctx, testCity, "Келих", constants.DepartmentTableware)
	if a.ID == b.ID {
		t.Fatalf("duplicate ids: %s", a.ID)
	}
	if a.Name != "Келих" || a.Category != constants.DepartmentTableware || a.Code() == a.ID {
		t.Fatalf("item = %+v", a)
	}

	if _, err := u.AddNewItem(ctx, testCity, " ", constants.DepartmentTableware); !errors.Is(err, ErrEmptyItemName) {
		t.Fatalf("blank name error = %v", err)
	}
	if _, err := u.AddNewItem(ctx, testCity, "X", "dept-x"); !errors.Is(err, ErrUnknownDepartment) {
		t.Fatalf("unknown dept error = %v", err)
	}
}

func TestAddNewItemBumpsCollidingID(t *testing.T) {
	kv := storage.NewMemoryKeyValueStore()
	clock := &fixedClock{t: time.UnixMilli(1700000000000)}
	u := NewInventoryUseCase(context.Background(), InventoryDeps{Store: kv, Clock: clock, Scheduler: &fakeScheduler{}})
	defer u.Close()
	ctx := context.Background()

	a, _ := u.AddNewItem(ctx, testCity, "A", constants.DepartmentTableware)
	b, _ := u.AddNewItem(ctx, testCity, "B", constants.DepartmentTableware)
	if a.ID != "item-1700000000000" || b.ID != "item-1700000000001" {
		t.Fatalf("ids = %s, %s", a.ID, b.ID)
	}
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func itemIDs(items []entity.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestAddThenDeleteRestoresItems(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	before := itemIDs(u.GetState(ctx, testCity).Items)

	item, err := u.AddNewItem(ctx, testCity, "X", constants.DepartmentHousehold)
	if err != nil {
		t.Fatalf("AddNewItem: %v", err)
	}
	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentHousehold, item.ID, 2)
	u.DeleteItem(ctx, testCity, item.ID, constants.DepartmentHousehold)

	state := u.GetState(ctx, testCity)
	if !reflect.DeepEqual(itemIDs(state.Items), before) {
		t.Fatalf("items after add+delete = %v, want %v", itemIDs(state.Items), before)
	}
	if _, ok := state.Quantities[constants.DepartmentHousehold][item.ID]; ok {
		t.Fatalf("quantity of deleted item still present")
	}
	for _, it := range entity.ItemsIn(state.Items, constants.DepartmentHousehold) {
		if it.ID == item.ID {
			t.Fatalf("deleted item still listed")
		}
	}

	// unknown item is a no-op
	u.DeleteItem(ctx, testCity, "item-missing", constants.DepartmentHousehold)
}

func TestDepartmentTotalAndSearch(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	state := u.GetState(ctx, testCity)
	household := entity.ItemsIn(state.Items, constants.DepartmentHousehold)

	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentHousehold, household[0].ID, 1.25)
	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentHousehold, household[1].ID, 2.5)
	if got := u.DepartmentTotal(ctx, testCity, constants.DepartmentHousehold); got != 3.75 {
		t.Fatalf("DepartmentTotal = %v, want 3.75", got)
	}

	found := u.SearchItems(ctx, testCity, constants.DepartmentHousehold, "ОЛІЯ")
	if len(found) != 1 || found[0].Name != "Олія (л)" {
		t.Fatalf("SearchItems = %v", found)
	}
	if all := u.SearchItems(ctx, testCity, constants.DepartmentHousehold, ""); len(all) != len(household) {
		t.Fatalf("empty query returned %d items", len(all))
	}
}

func TestRoundTripAfterReload(t *testing.T) {
	kv := storage.NewMemoryKeyValueStore()
	ctx := context.Background()

	first, _ := newTestStore(t, kv)
	state := first.GetState(ctx, testCity)
	plate := firstItem(t, state, constants.DepartmentTableware)
	oil := firstItem(t, state, constants.DepartmentHousehold)
	_ = first.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, plate.ID, 12)
	_ = first.UpdateItemCount(ctx, testCity, constants.DepartmentHousehold, oil.ID, 0.75)
	added, _ := first.AddNewItem(ctx, testCity, "Нова позиція", constants.DepartmentPackaging)
	want := first.GetState(ctx, testCity)

	second, _ := newTestStore(t, kv)
	got := second.GetState(ctx, testCity)

	if !reflect.DeepEqual(got.Departments, want.Departments) ||
		!reflect.DeepEqual(got.Items, want.Items) ||
		!reflect.DeepEqual(got.Quantities, want.Quantities) {
		t.Fatalf("state differs after reload:\n got %+v\nwant %+v", got, want)
	}
	if !reflect.DeepEqual(got.History, want.History) {
		t.Fatalf("history differs after reload")
	}
	if got.Items[len(got.Items)-1].ID != added.ID {
		t.Fatalf("added item missing after reload")
	}
}

func TestCitiesAreIndependent(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	lviv := firstItem(t, u.GetState(ctx, "Львів"), constants.DepartmentTableware)
	_ = u.UpdateItemCount(ctx, "Львів", constants.DepartmentTableware, lviv.ID, 3)

	kharkiv := u.GetState(ctx, "Харків")
	for _, items := range kharkiv.Quantities {
		if len(items) != 0 {
			t.Fatalf("Харків got quantities from Львів: %v", kharkiv.Quantities)
		}
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	u, _ := newTestStore(t, failingStore{storage.NewMemoryKeyValueStore()})
	ctx := context.Background()
	item := firstItem(t, u.GetState(ctx, testCity), constants.DepartmentTableware)

	if err := u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, item.ID, 6); err != nil {
		t.Fatalf("persistence error surfaced: %v", err)
	}
	if got := u.GetState(ctx, testCity).Quantities.Get(constants.DepartmentTableware, item.ID); got != 6 {
		t.Fatalf("in-memory state lost: %v", got)
	}
}

func TestMalformedBundleFallsBackToSeed(t *testing.T) {
	kv := storage.NewMemoryKeyValueStore()
	_ = kv.Set(context.Background(), cityKey(testCity), []byte("{broken"))
	u, _ := newTestStore(t, kv)

	state := u.GetState(context.Background(), testCity)
	if !reflect.DeepEqual(state.Items, entity.SeedState(testCity).Items) {
		t.Fatalf("expected seed items for malformed bundle")
	}
}

func TestSelectCityPersists(t *testing.T) {
	kv := storage.NewMemoryKeyValueStore()
	ctx := context.Background()
	u, _ := newTestStore(t, kv)

	if u.SelectedCity() != constants.DefaultCity {
		t.Fatalf("default selected city = %q", u.SelectedCity())
	}
	if err := u.SelectCity(ctx, "  "); !errors.Is(err, ErrEmptyCity) {
		t.Fatalf("empty city error = %v", err)
	}
	if err := u.SelectCity(ctx, "Харків"); err != nil {
		t.Fatalf("SelectCity: %v", err)
	}
	again, _ := newTestStore(t, kv)
	if again.SelectedCity() != "Харків" {
		t.Fatalf("selected city after reload = %q", again.SelectedCity())
	}
}

func TestClearAll(t *testing.T) {
	kv := storage.NewMemoryKeyValueStore()
	ctx := context.Background()
	u, _ := newTestStore(t, kv)
	item := firstItem(t, u.GetState(ctx, testCity), constants.DepartmentTableware)
	_ = u.UpdateItemCount(ctx, testCity, constants.DepartmentTableware, item.ID, 2)
	_ = u.SelectCity(ctx, "Харків")

	if err := u.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	keys, _ := kv.Keys(ctx, "")
	if len(keys) != 0 {
		t.Fatalf("keys left after ClearAll: %v", keys)
	}
	if got := u.GetState(ctx, testCity).Quantities.Get(constants.DepartmentTableware, item.ID); got != 0 {
		t.Fatalf("memory not cleared: %v", got)
	}
	if u.SelectedCity() != constants.DefaultCity {
		t.Fatalf("selected city not reset")
	}
}

func TestConcurrentUpdates(t *testing.T) {
	u, _ := newTestStore(t, nil)
	ctx := context.Background()
	item := firstItem(t, u.GetState(ctx, testCity), constants.DepartmentTableware)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = u.AdjustItemCount(ctx, testCity, constants.DepartmentTableware, item.ID, 1)
		}()
	}
	wg.Wait()
	if got := u.GetState(ctx, testCity).Quantities.Get(constants.DepartmentTableware, item.ID); got != 50 {
		t.Fatalf("quantity after 50 concurrent +1 = %v", got)
	}
}

func TestConnectivityStatusWithoutSyncer(t *testing.T) {
	obs := connectivity.NewManual(true)
	sched := &fakeScheduler{}
	u := NewInventoryUseCase(context.Background(), InventoryDeps{
		Store:        storage.NewMemoryKeyValueStore(),
		Scheduler:    sched,
		Connectivity: obs,
	})
	defer u.Close()

	var seen []SyncStatus
	var mu sync.Mutex
	unsubscribe := u.SubscribeStatus(func(s Status) {
		mu.Lock()
		seen = append(seen, s.SyncStatus)
		mu.Unlock()
	})
	defer unsubscribe()

	obs.SetOnline(false)
	if u.IsOnline() || u.SyncStatus() != SyncError {
		t.Fatalf("offline: online=%v status=%s", u.IsOnline(), u.SyncStatus())
	}
	obs.SetOnline(true)
	if !u.IsOnline() || u.SyncStatus() != SyncSuccess {
		t.Fatalf("online: status=%s", u.SyncStatus())
	}
	sched.fire()
	if u.SyncStatus() != SyncIdle {
		t.Fatalf("status after reset delay = %s", u.SyncStatus())
	}

	mu.Lock()
	defer mu.Unlock()
	want := []SyncStatus{SyncError, SyncSuccess, SyncIdle}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("status sequence = %v, want %v", seen, want)
	}
}

func TestReconnectPushesSelectedCity(t *testing.T) {
	obs := connectivity.NewManual(false)
	syncer := newStubSyncer(nil)
	sched := &fakeScheduler{}
	kv := storage.NewMemoryKeyValueStore()
	_ = kv.Set(context.Background(), selectedCityKey, []byte("Харків"))

	u := NewInventoryUseCase(context.Background(), InventoryDeps{
		Store:         kv,
		Scheduler:     sched,
		Connectivity:  obs,
		Syncer:        syncer,
		SpreadsheetID: "sheet-1",
	})
	defer u.Close()

	obs.SetOnline(true)
	select {
	case <-syncer.synced:
	case <-time.After(time.Second):
		t.Fatalf("remote sync not started")
	}
	waitForStatus(t, u, SyncSuccess)

	syncer.mu.Lock()
	if syncer.sheet != "sheet-1" || len(syncer.calls) != 1 {
		t.Fatalf("sync calls = %d sheet=%q", len(syncer.calls), syncer.sheet)
	}
	if !reflect.DeepEqual(syncer.calls[0].Items, entity.SeedState("Харків").Items) {
		t.Fatalf("synced the wrong city")
	}
	syncer.mu.Unlock()
}

func TestReconnectSyncErrorIsSwallowed(t *testing.T) {
	obs := connectivity.NewManual(false)
	syncer := newStubSyncer(errors.New("403"))
	u := NewInventoryUseCase(context.Background(), InventoryDeps{
		Store:         storage.NewMemoryKeyValueStore(),
		Scheduler:     &fakeScheduler{},
		Connectivity:  obs,
		Syncer:        syncer,
		SpreadsheetID: "sheet-1",
	})
	defer u.Close()

	obs.SetOnline(true)
	<-syncer.synced
	waitForStatus(t, u, SyncError)
	if !u.IsOnline() {
		t.Fatalf("sync failure must not flip the online flag")
	}
}

func TestCloseDuringReconnect(t *testing.T) {
	for i := 0; i < 300; i++ {
		obs := connectivity.NewManual(false)
		syncer := newStubSyncer(nil)
		u := NewInventoryUseCase(context.Background(), InventoryDeps{
			Store:         storage.NewMemoryKeyValueStore(),
			Scheduler:     &fakeScheduler{},
			Connectivity:  obs,
			Syncer:        syncer,
			SpreadsheetID: "sheet-1",
		})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			obs.SetOnline(true)
		}()
		go func() {
			defer wg.Done()
			u.Close()
		}()
		wg.Wait()

		syncer.mu.Lock()
		calls := len(syncer.calls)
		syncer.mu.Unlock()
		if calls > 1 {
			t.Fatalf("iteration %d: sync calls = %d", i, calls)
		}

		// Nothing may start once Close has returned.
		obs.SetOnline(false)
		obs.SetOnline(true)
		time.Sleep(time.Millisecond)
		syncer.mu.Lock()
		after := len(syncer.calls)
		syncer.mu.Unlock()
		if after != calls {
			t.Fatalf("iteration %d: sync started after Close", i)
		}
	}
}

func TestCloseStopsResetTimer(t *testing.T) {
	obs := connectivity.NewManual(false)
	sched := &fakeScheduler{}
	u := NewInventoryUseCase(context.Background(), InventoryDeps{
		Store:        storage.NewMemoryKeyValueStore(),
		Scheduler:    sched,
		Connectivity: obs,
	})
	obs.SetOnline(true)
	u.Close()

	sched.fire()
	if u.SyncStatus() != SyncSuccess {
		t.Fatalf("timer ran after Close: %s", u.SyncStatus())
	}
	obs.SetOnline(false)
	if u.SyncStatus() != SyncSuccess {
		t.Fatalf("observer still subscribed after Close")
	}
}

func waitForStatus(t *testing.T, u InventoryUseCase, want SyncStatus) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if u.SyncStatus() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status = %s, want %s", u.SyncStatus(), want)
}
