package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/quantity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/metrics"
)

var (
	ErrUnknownDepartment = errors.New("unknown department")
	ErrUnknownItem       = errors.New("unknown item")
	ErrEmptyItemName     = errors.New("item name is empty")
	ErrEmptyCity         = errors.New("city is empty")
)

// resetItemName is recorded in the history entry of a department reset.
const resetItemName = "Усі позиції"

// InventoryUseCase is the per-city inventory store.
type InventoryUseCase interface {
	GetState(ctx context.Context, city string) entity.CityState
	// UpdateItemCount stores value clamped at zero and rounded to the
	// department's precision (whole numbers except household), so 2.4 on
	// dept-1 is stored as 2.
	UpdateItemCount(ctx context.Context, city, departmentID, itemID string, value float64) error
	AdjustItemCount(ctx context.Context, city, departmentID, itemID string, delta float64) (float64, error)
	ResetDepartmentCounts(ctx context.Context, city, departmentID string) error
	AddNewItem(ctx context.Context, city, name, departmentID string) (entity.Item, error)
	DeleteItem(ctx context.Context, city, itemID, departmentID string)
	DepartmentTotal(ctx context.Context, city, departmentID string) float64
	SearchItems(ctx context.Context, city, departmentID, query string) []entity.Item

	SelectCity(ctx context.Context, city string) error
	SelectedCity() string
	ClearAll(ctx context.Context) error

	CheckOnlineStatus(ctx context.Context) bool
	IsOnline() bool
	SyncStatus() SyncStatus
	Status() Status
	SubscribeStatus(fn func(Status)) (unsubscribe func())

	Close()
}

// InventoryDeps are the capabilities the store is built from. Store is
// required; everything else has a sensible default.
type InventoryDeps struct {
	Store         repository.KeyValueStore
	Clock         Clock
	Scheduler     Scheduler
	Connectivity  repository.ConnectivityObserver
	Syncer        repository.RemoteSyncer
	SpreadsheetID string
	User          entity.User
	DefaultCity   string
	Metrics       *metrics.Metrics
}

// cityData is the live state of one city.
type cityData struct {
	departments []entity.Department
	items       []entity.Item
	quantities  entity.Quantities
	history     *historyRing
}

func newCityData(s entity.CityState) *cityData {
	return &cityData{
		departments: s.Departments,
		items:       s.Items,
		quantities:  s.Quantities.Clone(),
		history:     newHistoryRingFrom(constants.HistoryLimit, s.History),
	}
}

func (c *cityData) snapshot() entity.CityState {
	return entity.CityState{
		Departments: c.departments,
		Items:       c.items,
		Quantities:  c.quantities,
		History:     c.history.Snapshot(),
	}.Clone()
}

func (c *cityData) findItem(itemID string) (entity.Item, int) {
	for i, it := range c.items {
		if it.ID == itemID {
			return it, i
		}
	}
	return entity.Item{}, -1
}

type inventoryUseCase struct {
	store         repository.KeyValueStore
	clock         Clock
	scheduler     Scheduler
	connectivity  repository.ConnectivityObserver
	syncer        repository.RemoteSyncer
	spreadsheetID string
	user          entity.User
	defaultCity   string
	metrics       *metrics.Metrics

	mu           sync.Mutex
	cities       map[string]*cityData
	selectedCity string

	statusMu    sync.Mutex
	online      bool
	syncStatus  SyncStatus
	statusSubs  map[int]func(Status)
	nextSubID   int
	resetTimer  Timer
	closed      bool
	unsubscribe func()

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewInventoryUseCase builds the store, runs the one-time legacy migration
// and subscribes to connectivity changes.
func NewInventoryUseCase(ctx context.Context, deps InventoryDeps) InventoryUseCase {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = SystemScheduler()
	}
	if strings.TrimSpace(deps.DefaultCity) == "" {
		deps.DefaultCity = constants.DefaultCity
	}
	if deps.User.ID == "" {
		deps.User = entity.User{ID: constants.DefaultUserID, Name: constants.DefaultUserName}
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	u := &inventoryUseCase{
		store:         deps.Store,
		clock:         deps.Clock,
		scheduler:     deps.Scheduler,
		connectivity:  deps.Connectivity,
		syncer:        deps.Syncer,
		spreadsheetID: strings.TrimSpace(deps.SpreadsheetID),
		user:          deps.User,
		defaultCity:   deps.DefaultCity,
		metrics:       deps.Metrics,
		cities:        make(map[string]*cityData),
		online:        true,
		syncStatus:    SyncIdle,
		statusSubs:    make(map[int]func(Status)),
		baseCtx:       baseCtx,
		cancel:        cancel,
	}

	if err := migrateLegacy(ctx, u.store, u.defaultCity, u.clock.Now()); err != nil {
		log.Printf("[store] legacy migration failed: %v", err)
	}
	u.selectedCity = readSelectedCity(ctx, u.store)
	if u.selectedCity == "" {
		u.selectedCity = u.defaultCity
	}

	if u.connectivity != nil {
		u.online = u.connectivity.Online()
		u.unsubscribe = u.connectivity.Subscribe(u.handleConnectivity)
	}
	return u
}

// cityLocked returns the live state of city, loading it on first use.
// Callers hold u.mu.
func (u *inventoryUseCase) cityLocked(ctx context.Context, city string) *cityData {
	if c, ok := u.cities[city]; ok {
		return c
	}
	state, _ := loadCity(ctx, u.store, city)
	c := newCityData(state)
	u.cities[city] = c
	return c
}

// persistLocked writes the whole city bundle. Failures are logged, the
// in-memory state stays authoritative.
func (u *inventoryUseCase) persistLocked(ctx context.Context, city string, c *cityData) {
	raw, err := encodeBundle(c.snapshot(), u.clock.Now())
	if err == nil {
		err = u.store.Set(ctx, cityKey(city), raw)
	}
	if err != nil {
		log.Printf("[store] persist %s failed: %v", city, err)
		u.metrics.PersistFailure()
	}
}

func (u *inventoryUseCase) recordLocked(c *cityData, dept entity.Department, item entity.Item, oldValue, newValue float64) {
	c.history.Push(entity.HistoryEntry{
		Timestamp:      u.clock.Now().UnixMilli(),
		UserID:         u.user.ID,
		UserName:       u.user.Name,
		ItemID:         item.ID,
		ItemName:       item.Name,
		DepartmentID:   dept.ID,
		DepartmentName: dept.Name,
		OldValue:       oldValue,
		NewValue:       newValue,
	})
}

func (u *inventoryUseCase) GetState(ctx context.Context, city string) entity.CityState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cityLocked(ctx, city).snapshot()
}

// lookupLocked resolves a (department, item) pair that must belong together.
func lookupLocked(c *cityData, departmentID, itemID string) (entity.Department, entity.Item, error) {
	dept, ok := entity.FindDepartment(c.departments, departmentID)
	if !ok {
		return entity.Department{}, entity.Item{}, fmt.Errorf("%w: %s", ErrUnknownDepartment, departmentID)
	}
	item, idx := c.findItem(itemID)
	if idx < 0 || item.Category != departmentID {
		return entity.Department{}, entity.Item{}, fmt.Errorf("%w: %s in %s", ErrUnknownItem, itemID, departmentID)
	}
	return dept, item, nil
}

// setCountLocked stores value (clamped and rounded to the department's
// policy). It returns the stored value and whether anything changed.
func (u *inventoryUseCase) setCountLocked(c *cityData, dept entity.Department, item entity.Item, value float64) (float64, bool) {
	value = quantity.ParseFloat(value, quantity.PolicyFor(dept.ID)).Float64()
	old := c.quantities.Get(dept.ID, item.ID)
	if old == value {
		return value, false
	}
	if c.quantities[dept.ID] == nil {
		c.quantities[dept.ID] = map[string]float64{}
	}
	c.quantities[dept.ID][item.ID] = value
	u.recordLocked(c, dept, item, old, value)
	return value, true
}

func (u *inventoryUseCase) UpdateItemCount(ctx context.Context, city, departmentID, itemID string, value float64) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	c := u.cityLocked(ctx, city)
	dept, item, err := lookupLocked(c, departmentID, itemID)
	if err != nil {
		return err
	}
	if _, changed := u.setCountLocked(c, dept, item, value); changed {
		u.metrics.Mutation("update")
		u.persistLocked(ctx, city, c)
	}
	return nil
}

// AdjustItemCount adds delta to the current count, never going below zero.
func (u *inventoryUseCase) AdjustItemCount(ctx context.Context, city, departmentID, itemID string, delta float64) (float64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	c := u.cityLocked(ctx, city)
	dept, item, err := lookupLocked(c, departmentID, itemID)
	if err != nil {
		return 0, err
	}
	next := c.quantities.Get(dept.ID, item.ID) + delta
	value, changed := u.setCountLocked(c, dept, item, next)
	if changed {
		u.metrics.Mutation("adjust")
		u.persistLocked(ctx, city, c)
	}
	return value, nil
}

// ResetDepartmentCounts zeroes a department. One history entry summarizes
// the reset when anything non-zero was cleared.
func (u *inventoryUseCase) ResetDepartmentCounts(ctx context.Context, city, departmentID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	c := u.cityLocked(ctx, city)
	dept, ok := entity.FindDepartment(c.departments, departmentID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDepartment, departmentID)
	}
	var cleared float64
	for _, v := range c.quantities[departmentID] {
		cleared += v
	}
	had := len(c.quantities[departmentID]) > 0
	if !had {
		return nil
	}
	c.quantities[departmentID] = map[string]float64{}
	if cleared > 0 {
		u.recordLocked(c, dept, entity.Item{Name: resetItemName}, cleared, 0)
	}
	u.metrics.Mutation("reset")
	u.persistLocked(ctx, city, c)
	return nil
}

func (u *inventoryUseCase) AddNewItem(ctx context.Context, city, name, departmentID string) (entity.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.Item{}, ErrEmptyItemName
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	c := u.cityLocked(ctx, city)
	if _, ok := entity.FindDepartment(c.departments, departmentID); !ok {
		return entity.Item{}, fmt.Errorf("%w: %s", ErrUnknownDepartment, departmentID)
	}

	stamp := u.clock.Now().UnixMilli()
	id := constants.ItemIDPrefix + strconv.FormatInt(stamp, 10)
	for _, idx := c.findItem(id); idx >= 0; _, idx = c.findItem(id) {
		stamp++
		id = constants.ItemIDPrefix + strconv.FormatInt(stamp, 10)
	}

	item := entity.Item{ID: id, Name: name, Category: departmentID}
	c.items = append(c.items, item)
	u.metrics.Mutation("add_item")
	u.persistLocked(ctx, city, c)
	return item, nil
}

// DeleteItem removes an item and its quantity. Unknown items are ignored.
func (u *inventoryUseCase) DeleteItem(ctx context.Context, city, itemID, departmentID string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	c := u.cityLocked(ctx, city)
	item, idx := c.findItem(itemID)
	if idx < 0 {
		return
	}
	c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
	delete(c.quantities[departmentID], itemID)
	delete(c.quantities[item.Category], itemID)
	u.metrics.Mutation("delete_item")
	u.persistLocked(ctx, city, c)
}

func (u *inventoryUseCase) DepartmentTotal(ctx context.Context, city, departmentID string) float64 {
	u.mu.Lock()
	defer u.mu.Unlock()

	c := u.cityLocked(ctx, city)
	var total float64
	for _, item := range entity.ItemsIn(c.items, departmentID) {
		total += c.quantities.Get(departmentID, item.ID)
	}
	return quantity.ParseFloat(total, quantity.PolicyFor(departmentID)).Float64()
}

// SearchItems filters a department's items by a case-insensitive substring.
func (u *inventoryUseCase) SearchItems(ctx context.Context, city, departmentID, query string) []entity.Item {
	u.mu.Lock()
	defer u.mu.Unlock()

	c := u.cityLocked(ctx, city)
	items := entity.ItemsIn(c.items, departmentID)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]entity.Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), q) {
			out = append(out, item)
		}
	}
	return out
}

func (u *inventoryUseCase) SelectCity(ctx context.Context, city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return ErrEmptyCity
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.selectedCity == city {
		return nil
	}
	u.selectedCity = city
	if err := u.store.Set(ctx, selectedCityKey, []byte(city)); err != nil {
		log.Printf("[store] persist selected city failed: %v", err)
		u.metrics.PersistFailure()
	}
	return nil
}

func (u *inventoryUseCase) SelectedCity() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.selectedCity
}

// ClearAll drops every persisted key and all in-memory state.
func (u *inventoryUseCase) ClearAll(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	keys, err := u.store.Keys(ctx, "")
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	for _, key := range keys {
		if err := u.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	u.cities = make(map[string]*cityData)
	u.selectedCity = u.defaultCity
	u.metrics.Mutation("clear_all")
	log.Printf("[store] cleared %d keys", len(keys))
	return nil
}

// Close stops timers and waits for a running remote sync.
func (u *inventoryUseCase) Close() {
	u.statusMu.Lock()
	if u.closed {
		u.statusMu.Unlock()
		return
	}
	u.closed = true
	if u.resetTimer != nil {
		u.resetTimer.Stop()
		u.resetTimer = nil
	}
	unsubscribe := u.unsubscribe
	u.statusMu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	u.cancel()
	u.wg.Wait()
}
