package redisx

import "time"

const (
	// Dedup notifikasi webhook: dedup:webhook:{transaction_id}:{transaction_status}
	KeyDedupWebhook = "dedup:webhook:%s:%s"

	// Dedup event consumer notifier: dedup:notifier:{event_id}
	KeyDedupNotifier = "dedup:notifier:%s"

	// Cache status order: order_status:{order_id} -> {"status":"...","payment_status":"..."}
	KeyOrderStatus = "order_status:%s"

	// Cache lookup pickup: pickup:{code} -> order_id
	KeyPickupCode = "pickup:%s"
)

var (
	TTLDedup       = 48 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLPickupCache = 10 * time.Minute
)
