package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
	StatusRejected  = "rejected"
)

const (
	// PricePerHour add-on pricing multiplies by the slot count.
	PricePerHour = "hour"
	// PricePerSession add-on pricing is charged once per reservation.
	PricePerSession = "session"
)

const (
	// DefaultHoldMinutes время удержания слотов до подтверждения
	DefaultHoldMinutes = 15

	// DefaultSweepIntervalSeconds период проверки просроченных броней
	DefaultSweepIntervalSeconds = 60

	// DefaultCleanupHour час ежедневной очистки старых записей
	DefaultCleanupHour = 4

	// DefaultRetentionDays сколько дней хранить записи со статусом expired
	DefaultRetentionDays = 30

	// DefaultCacheTTL время жизни кэша доступности в секундах
	DefaultCacheTTL = 60
)

// DateFormat is the canonical calendar-date layout used across storage,
// the HTTP API and pub/sub payloads.
const DateFormat = "2006-01-02"
