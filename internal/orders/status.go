package orders

type Status string

const (
	StatusPending     Status = "pending"
	StatusProcessing  Status = "processing"
	StatusPaid        Status = "paid"
	StatusReadyPickup Status = "ready_pickup" // alias dari paid utk eligibility pickup
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusRefunded    Status = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PickupStatus string

const (
	PickupPending PickupStatus = "pending"
	PickupDone    PickupStatus = "picked_up"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:     {StatusProcessing: true, StatusPaid: true, StatusCancelled: true},
	StatusProcessing:  {StatusPaid: true, StatusCancelled: true},
	StatusPaid:        {StatusCompleted: true, StatusRefunded: true, StatusCancelled: true},
	StatusReadyPickup: {StatusCompleted: true, StatusRefunded: true, StatusCancelled: true},
	StatusCompleted:   {},
	StatusCancelled:   {},
	StatusRefunded:    {},
}

var validNextPayment = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:  {PaymentPaid: true, PaymentFailed: true, PaymentRefunded: true},
	PaymentPaid:     {},
	PaymentFailed:   {},
	PaymentRefunded: {},
}

func CanTransition(from, to Status) bool {
	if from == to {
		return true // tulis ulang nilai sama = no-op, bukan pelanggaran
	}
	return validNext[from][to]
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	return validNextPayment[from][to]
}

// Terminal berarti tidak ada transisi keluar lagi dari core ini.
func IsTerminal(s Status) bool {
	return len(validNext[s]) == 0
}

// Pickup hanya boleh saat order sudah dibayar. ready_pickup diperlakukan
// setara paid (lihat DESIGN.md soal duality-nya).
func EligibleForPickup(s Status) bool {
	return s == StatusPaid || s == StatusReadyPickup
}
