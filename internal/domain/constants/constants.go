package constants

import "time"

// Department IDs (shared by every city)
const (
	DepartmentTableware = "dept-1"
	DepartmentHousehold = "dept-2"
	DepartmentPackaging = "dept-3"
)

// Inventory store
const (
	// HistoryLimit number of history entries kept per city
	HistoryLimit = 100

	// ItemIDPrefix prefix of generated item IDs ("item-<millis>")
	ItemIDPrefix = "item-"

	// SyncStatusResetDelay how long "success" stays visible before returning to idle
	SyncStatusResetDelay = time.Second

	// BundleSchemaVersion version written into every persisted city bundle
	BundleSchemaVersion = 1
)

// Defaults
const (
	// DefaultBrand organization name printed in exported documents
	DefaultBrand = "Той самий Баранчик"

	// DefaultCity city used when nothing is selected yet
	DefaultCity = "Кременчук"

	// DefaultUserID / DefaultUserName the fixed auto-login user
	DefaultUserID   = "user1"
	DefaultUserName = "Гладнева Е.А."

	// DefaultPort HTTP listener port
	DefaultPort = "3001"

	// DefaultTimezone used for document dates
	DefaultTimezone = "Europe/Kyiv"
)

// Bot intake
const (
	// MaxFileUploadSize maximum accepted spreadsheet size (bytes)
	MaxFileUploadSize = 5 * 1024 * 1024 // 5MB

	// SessionTimeout idle bot sessions older than this are dropped
	SessionTimeout = 2 * time.Hour

	// SessionCleanupInterval how often stale sessions are swept
	SessionCleanupInterval = 15 * time.Minute
)

// SummarySheetName name of the cross-department summary sheet
const SummarySheetName = "Сводная"
