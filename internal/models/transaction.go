package models

import (
	"time"

	"gorm.io/gorm"
)

type TransactionStatus string

const (
	// TransactionStatusConfirmed is the initial state of every rental: the
	// bike is held by the customer.
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	// TransactionStatusReturnRequested means the customer asked to return
	// the bike and is waiting for an admin to confirm.
	TransactionStatusReturnRequested TransactionStatus = "return_requested"
	// TransactionStatusCompleted is terminal: return confirmed, bike released.
	TransactionStatusCompleted TransactionStatus = "completed"
	// TransactionStatusCancelled is terminal: rental cancelled, bike released.
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// transitions is the closed state machine for a rental transaction.
// Anything not listed here is an invalid transition.
var transitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusConfirmed: {
		TransactionStatusReturnRequested,
		TransactionStatusCancelled,
	},
	TransactionStatusReturnRequested: {
		TransactionStatusCompleted,
	},
}

// IsTerminal reports whether no further transitions are permitted.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusCancelled
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Transaction is a rental record. BikeName and UserEmail are snapshots taken
// at creation time; later renames of the bike or user deliberately do not
// propagate to historical transactions.
type Transaction struct {
	gorm.Model
	BikeID           uint              `json:"bikeId" gorm:"not null;index"`
	BikeName         string            `json:"bikeName" gorm:"not null"`
	UserID           uint              `json:"userId" gorm:"not null;index"`
	UserEmail        string            `json:"userEmail" gorm:"not null"`
	StationID        *uint             `json:"stationId,omitempty"`
	RentDate         time.Time         `json:"rentDate" gorm:"not null"`
	ReturnDate       time.Time         `json:"returnDate" gorm:"not null"`
	ActualReturnDate *time.Time        `json:"actualReturnDate,omitempty"`
	TotalPrice       int64             `json:"totalPrice" gorm:"not null"` // VND
	Status           TransactionStatus `json:"status" gorm:"not null;default:'confirmed'"`
	Bike             *Bike             `json:"bike,omitempty" gorm:"foreignKey:BikeID"`
	User             *User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name
func (Transaction) TableName() string {
	return "transactions"
}

// Active reports whether the transaction still holds its bike.
func (t *Transaction) Active() bool {
	return !t.Status.IsTerminal()
}
