package entity

import "github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"

// DefaultDepartments returns the shared department taxonomy.
func DefaultDepartments() []Department {
	return []Department{
		{ID: constants.DepartmentTableware, Name: "Посуд"},
		{ID: constants.DepartmentHousehold, Name: "Господарські товари"},
		{ID: constants.DepartmentPackaging, Name: "Упаковка"},
	}
}

var seedCatalogs = map[string][]Item{
	"Кременчук": {
		{ID: "item-1001", Name: "Тарілка мілка 24 см", Category: constants.DepartmentTableware},
		{ID: "item-1002", Name: "Тарілка глибока 22 см", Category: constants.DepartmentTableware},
		{ID: "item-1003", Name: "Чашка 250 мл", Category: constants.DepartmentTableware},
		{ID: "item-1004", Name: "Келих для вина", Category: constants.DepartmentTableware},
		{ID: "item-2001", Name: "Засіб для миття посуду (л)", Category: constants.DepartmentHousehold},
		{ID: "item-2002", Name: "Сіль технічна (кг)", Category: constants.DepartmentHousehold},
		{ID: "item-2003", Name: "Серветки (уп)", Category: constants.DepartmentHousehold},
		{ID: "item-2004", Name: "Рушники паперові (рул)", Category: constants.DepartmentHousehold},
		{ID: "item-3001", Name: "Контейнер 500 мл", Category: constants.DepartmentPackaging},
		{ID: "item-3002", Name: "Пакет-майка", Category: constants.DepartmentPackaging},
	},
	"Львів": {
		{ID: "item-1101", Name: "Тарілка мілка 24 см", Category: constants.DepartmentTableware},
		{ID: "item-1102", Name: "Миска для супу", Category: constants.DepartmentTableware},
		{ID: "item-1103", Name: "Чашка кавова 180 мл", Category: constants.DepartmentTableware},
		{ID: "item-2101", Name: "Олія (л)", Category: constants.DepartmentHousehold},
		{ID: "item-2102", Name: "Серветки (уп)", Category: constants.DepartmentHousehold},
		{ID: "item-2103", Name: "Мішки для сміття (рул)", Category: constants.DepartmentHousehold},
		{ID: "item-3101", Name: "Коробка для піци 32 см", Category: constants.DepartmentPackaging},
		{ID: "item-3102", Name: "Стакан паперовий 350 мл", Category: constants.DepartmentPackaging},
	},
	"Харків": {
		{ID: "item-1201", Name: "Тарілка десертна", Category: constants.DepartmentTableware},
		{ID: "item-1202", Name: "Склянка 300 мл", Category: constants.DepartmentTableware},
		{ID: "item-2201", Name: "Миючий засіб (л)", Category: constants.DepartmentHousehold},
		{ID: "item-2202", Name: "Пральний порошок (кг)", Category: constants.DepartmentHousehold},
		{ID: "item-2203", Name: "Туалетний папір (рул)", Category: constants.DepartmentHousehold},
		{ID: "item-3201", Name: "Контейнер 750 мл", Category: constants.DepartmentPackaging},
		{ID: "item-3202", Name: "Кришка для стакана", Category: constants.DepartmentPackaging},
	},
}

// SeedCities lists the cities that ship with a built-in catalog.
func SeedCities() []string {
	return []string{"Кременчук", "Львів", "Харків"}
}

// SeedState returns the initial state for a city. Cities without a built-in
// catalog start with the department set and no items.
func SeedState(city string) CityState {
	return CityState{
		Departments: DefaultDepartments(),
		Items:       append([]Item{}, seedCatalogs[city]...),
		Quantities:  Quantities{},
		History:     []HistoryEntry{},
	}
}
