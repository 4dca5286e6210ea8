package domain

import "time"

type StockAdjustmentStatus string

const (
	StockAdjustmentStatusPending StockAdjustmentStatus = "PENDING"
	StockAdjustmentStatusApplied StockAdjustmentStatus = "APPLIED"
	StockAdjustmentStatusFailed  StockAdjustmentStatus = "FAILED"
)

type StockAdjustmentReason string

const (
	StockAdjustmentReasonRentalCreated  StockAdjustmentReason = "RENTAL_CREATED"
	StockAdjustmentReasonRentalReturned StockAdjustmentReason = "RENTAL_RETURNED"
	StockAdjustmentReasonReassignedTo   StockAdjustmentReason = "RENTAL_REASSIGNED_TO"
	StockAdjustmentReasonReassignedFrom StockAdjustmentReason = "RENTAL_REASSIGNED_FROM"
)

// StockAdjustment is a ledger change that could not be applied after its
// rental write committed. The reconciler replays pending ones.
type StockAdjustment struct {
	ID        string                `json:"id"`
	MovieID   string                `json:"movieId"`
	RentalID  string                `json:"rentalId"`
	Delta     int                   `json:"delta"` // +1 restores a unit, -1 takes one
	Reason    StockAdjustmentReason `json:"reason"`
	Status    StockAdjustmentStatus `json:"status"`
	Attempts  int                   `json:"attempts"`
	LastError string                `json:"lastError"`
	CreatedOn time.Time             `json:"createdOn"`
	UpdatedOn time.Time             `json:"updatedOn"`
}
