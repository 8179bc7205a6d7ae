package payment

import (
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/shared/money"
)

type PaymentRecorded struct {
	PaymentID PaymentID
	BookingID booking.BookingID
	Amount    money.Money
	At        time.Time
}

func (e PaymentRecorded) EventName() string     { return "payment.recorded" }
func (e PaymentRecorded) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentRecorded) OccurredAt() time.Time { return e.At }

type PaymentCompleted struct {
	PaymentID PaymentID
	BookingID booking.BookingID
	At        time.Time
}

func (e PaymentCompleted) EventName() string     { return "payment.completed" }
func (e PaymentCompleted) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentCompleted) OccurredAt() time.Time { return e.At }

type PaymentFailed struct {
	PaymentID PaymentID
	BookingID booking.BookingID
	At        time.Time
}

func (e PaymentFailed) EventName() string     { return "payment.failed" }
func (e PaymentFailed) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentFailed) OccurredAt() time.Time { return e.At }
