package entity

import "strings"

// Department is a fixed product category (tableware, household goods, packaging).
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is a named inventory line belonging to exactly one department.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Code returns the display code of the item: its ID without the "item-" prefix.
func (i Item) Code() string {
	return strings.Replace(i.ID, "item-", "", 1)
}

// Quantities maps departmentID -> itemID -> counted amount. A missing entry means 0.
type Quantities map[string]map[string]float64

// Get returns the quantity for (departmentID, itemID), 0 if absent.
func (q Quantities) Get(departmentID, itemID string) float64 {
	if q == nil {
		return 0
	}
	return q[departmentID][itemID]
}

// Clone returns a deep copy.
func (q Quantities) Clone() Quantities {
	out := make(Quantities, len(q))
	for dept, items := range q {
		m := make(map[string]float64, len(items))
		for id, v := range items {
			m[id] = v
		}
		out[dept] = m
	}
	return out
}

// Department returns a copy holding only one department's quantities.
func (q Quantities) Department(departmentID string) Quantities {
	out := Quantities{}
	if items, ok := q[departmentID]; ok {
		m := make(map[string]float64, len(items))
		for id, v := range items {
			m[id] = v
		}
		out[departmentID] = m
	}
	return out
}

// HistoryEntry is an audit record of one quantity change.
type HistoryEntry struct {
	Timestamp      int64   `json:"timestamp"` // unix millis
	UserID         string  `json:"userId"`
	UserName       string  `json:"userName"`
	ItemID         string  `json:"itemId"`
	ItemName       string  `json:"itemName"`
	DepartmentID   string  `json:"departmentId"`
	DepartmentName string  `json:"departmentName"`
	OldValue       float64 `json:"oldValue"`
	NewValue       float64 `json:"newValue"`
}

// CityState is the full inventory partition of one city.
type CityState struct {
	Departments []Department   `json:"departments"`
	Items       []Item         `json:"items"`
	Quantities  Quantities     `json:"quantities"`
	History     []HistoryEntry `json:"history"`
}

// Clone returns a deep copy so callers can't mutate store internals.
func (s CityState) Clone() CityState {
	out := CityState{
		Departments: append([]Department(nil), s.Departments...),
		Items:       append([]Item(nil), s.Items...),
		Quantities:  s.Quantities.Clone(),
		History:     append([]HistoryEntry(nil), s.History...),
	}
	if out.Departments == nil {
		out.Departments = []Department{}
	}
	if out.Items == nil {
		out.Items = []Item{}
	}
	if out.History == nil {
		out.History = []HistoryEntry{}
	}
	return out
}

// ItemsIn returns the items of one department, in list order.
func ItemsIn(items []Item, departmentID string) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Category == departmentID {
			out = append(out, item)
		}
	}
	return out
}

// FindDepartment looks up a department by ID.
func FindDepartment(departments []Department, id string) (Department, bool) {
	for _, d := range departments {
		if d.ID == id {
			return d, true
		}
	}
	return Department{}, false
}

// User is the operator identity recorded in history entries.
type User struct {
	ID   string
	Name string
}

// Document is one generated workbook ready for delivery.
type Document struct {
	FileName       string
	DepartmentID   string
	DepartmentName string
	Data           []byte
}
