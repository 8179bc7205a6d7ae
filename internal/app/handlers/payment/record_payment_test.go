package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/app/actor"
	domainbooking "stayhub/internal/domain/booking"
	domainpayment "stayhub/internal/domain/payment"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/infra/storage/memory"
)

var (
	testNow   = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	testClock = func() time.Time { return testNow }
)

type fixture struct {
	factory *memory.Factory
	record  *RecordPaymentHandler
	refund  *IssueRefundHandler
	get     *GetPaymentHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	locations := memory.NewLocationRepository()
	factory := &memory.Factory{
		LocationRepo: locations,
		ListingRepo:  memory.NewListingRepository(locations),
		BookingRepo:  memory.NewBookingRepository(),
		PaymentRepo:  memory.NewPaymentRepository(),
		ReviewRepo:   memory.NewReviewRepository(),
		RatingRepo:   memory.NewRatingRepository(),
	}

	checkIn := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	dr, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)

	b := &domainbooking.Booking{
		ID:        "bkg-1",
		ListingID: "lst-1",
		Customer:  "cus-1",
		Range:     dr,
		Guests:    2,
		Price:     pricing.Breakdown{Total: money.Must(440_00, "USD")},
		Status:    domainbooking.StatusConfirmed,
		Policy:    domainbooking.PolicyFlexible,
		CreatedAt: testNow,
	}
	require.NoError(t, factory.BookingRepo.Save(context.Background(), b))

	box := memory.NewOutbox()
	return &fixture{
		factory: factory,
		record:  &RecordPaymentHandler{UoWFactory: factory, Outbox: box, Clock: testClock},
		refund:  &IssueRefundHandler{UoWFactory: factory, Outbox: box, Clock: testClock},
		get:     &GetPaymentHandler{UoWFactory: factory},
	}
}

func (f *fixture) recordPayment(t *testing.T) *RecordPaymentResult {
	t.Helper()
	result, err := f.record.Handle(context.Background(), RecordPaymentCommand{
		CommandID:     "pay-1",
		BookingID:     "bkg-1",
		Actor:         actor.Actor{ID: "cus-1", Role: actor.RoleCustomer},
		Amount:        money.Must(440_00, "USD"),
		Method:        "card",
		TransactionID: "txn-42",
	})
	require.NoError(t, err)
	return result
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)

	result := f.recordPayment(t)
	assert.Equal(t, "pay-1", result.PaymentID)
	assert.Equal(t, string(domainpayment.StatusCompleted), result.Status)

	// The booking row mirrors the ledger state.
	b, err := f.factory.BookingRepo.ByID(context.Background(), "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.PaymentCompleted, b.PaymentStatus)
}

func TestRecordPaymentRejectsWrongAmount(t *testing.T) {
	f := newFixture(t)

	_, err := f.record.Handle(context.Background(), RecordPaymentCommand{
		CommandID: "pay-1",
		BookingID: "bkg-1",
		Actor:     actor.Actor{ID: "cus-1", Role: actor.RoleCustomer},
		Amount:    money.Must(400_00, "USD"),
	})
	var mismatch domainpayment.AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, money.Must(440_00, "USD"), mismatch.Want)
}

func TestRecordPaymentOncePerBooking(t *testing.T) {
	f := newFixture(t)
	f.recordPayment(t)

	_, err := f.record.Handle(context.Background(), RecordPaymentCommand{
		CommandID: "pay-2",
		BookingID: "bkg-1",
		Actor:     actor.Actor{ID: "cus-1", Role: actor.RoleCustomer},
		Amount:    money.Must(440_00, "USD"),
	})
	assert.ErrorIs(t, err, domainpayment.ErrDuplicatePayment)
}

func TestRecordPaymentForbiddenForStranger(t *testing.T) {
	f := newFixture(t)

	_, err := f.record.Handle(context.Background(), RecordPaymentCommand{
		CommandID: "pay-1",
		BookingID: "bkg-1",
		Actor:     actor.Actor{ID: "cus-9", Role: actor.RoleCustomer},
		Amount:    money.Must(440_00, "USD"),
	})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}

func TestIssueRefundRequiresPrivilege(t *testing.T) {
	f := newFixture(t)
	f.recordPayment(t)

	_, err := f.refund.Handle(context.Background(), IssueRefundCommand{
		CommandID: "ref-1",
		PaymentID: "pay-1",
		Actor:     actor.Actor{ID: "cus-1", Role: actor.RoleCustomer},
		Amount:    money.Must(100_00, "USD"),
		Reason:    "goodwill",
	})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}

func TestIssueRefundPartialThenFull(t *testing.T) {
	f := newFixture(t)
	f.recordPayment(t)
	admin := actor.Actor{ID: "adm-1", Role: actor.RoleAdmin}

	first, err := f.refund.Handle(context.Background(), IssueRefundCommand{
		CommandID: "ref-1", PaymentID: "pay-1", Actor: admin,
		Amount: money.Must(300_00, "USD"), Reason: "partial cancellation",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainpayment.StatusCompleted), first.PaymentStatus)

	// Overdrawing the remainder is rejected.
	_, err = f.refund.Handle(context.Background(), IssueRefundCommand{
		CommandID: "ref-2", PaymentID: "pay-1", Actor: admin,
		Amount: money.Must(200_00, "USD"), Reason: "too much",
	})
	var exceeds domainpayment.RefundExceedsRemainingError
	require.ErrorAs(t, err, &exceeds)

	second, err := f.refund.Handle(context.Background(), IssueRefundCommand{
		CommandID: "ref-3", PaymentID: "pay-1", Actor: admin,
		Amount: money.Must(140_00, "USD"), Reason: "remainder",
	})
	require.NoError(t, err)
	// Refunds now cover the full amount; the payment flips.
	assert.Equal(t, string(domainpayment.StatusRefunded), second.PaymentStatus)

	b, err := f.factory.BookingRepo.ByID(context.Background(), "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.PaymentRefunded, b.PaymentStatus)
}

func TestGetPaymentView(t *testing.T) {
	f := newFixture(t)
	f.recordPayment(t)
	admin := actor.Actor{ID: "adm-1", Role: actor.RoleAdmin}

	_, err := f.refund.Handle(context.Background(), IssueRefundCommand{
		CommandID: "ref-1", PaymentID: "pay-1", Actor: admin,
		Amount: money.Must(100_00, "USD"), Reason: "goodwill",
	})
	require.NoError(t, err)

	view, err := f.get.Handle(context.Background(), GetPaymentQuery{
		Actor:     actor.Actor{ID: "cus-1", Role: actor.RoleCustomer},
		BookingID: "bkg-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay-1", view.Payment.ID)
	require.Len(t, view.Refunds, 1)
	assert.Equal(t, int64(100_00), view.Refunds[0].Amount.Amount)

	_, err = f.get.Handle(context.Background(), GetPaymentQuery{
		Actor:     actor.Actor{ID: "cus-9", Role: actor.RoleCustomer},
		BookingID: "bkg-1",
	})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}
