package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayhub/internal/domain/booking"
	domainpayment "stayhub/internal/domain/payment"
	"stayhub/internal/domain/shared/money"
)

type PaymentRepository struct {
	payments *mongo.Collection
	refunds  *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	payments := db.Collection("payments")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = payments.Indexes().CreateOne(context.Background(), idx)
	refunds := db.Collection("payment_refunds")
	refundIdx := mongo.IndexModel{Keys: bson.D{{Key: "payment_id", Value: 1}}}
	_, _ = refunds.Indexes().CreateOne(context.Background(), refundIdx)
	return &PaymentRepository{payments: payments, refunds: refunds}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayment.PaymentID) (*domainpayment.Payment, error) {
	var doc paymentDocument
	if err := r.payments.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainpayment.Payment, error) {
	var doc paymentDocument
	if err := r.payments.FindOne(ctx, bson.M{"booking_id": string(bookingID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	doc := newPaymentDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	res, err := r.payments.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainpayment.ErrDuplicatePayment
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

func (r *PaymentRepository) RefundsByPayment(ctx context.Context, paymentID domainpayment.PaymentID) ([]*domainpayment.Refund, error) {
	cur, err := r.refunds.Find(ctx, bson.M{"payment_id": string(paymentID)})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainpayment.Refund
	for cur.Next(ctx) {
		var doc refundDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *PaymentRepository) SaveRefund(ctx context.Context, rf *domainpayment.Refund) error {
	doc := newRefundDocument(rf)
	_, err := r.refunds.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc},
		options.Update().SetUpsert(true))
	return err
}

type paymentDocument struct {
	ID            string      `bson:"_id"`
	BookingID     string      `bson:"booking_id"`
	CustomerID    string      `bson:"customer_id"`
	Amount        money.Money `bson:"amount"`
	Method        string      `bson:"method"`
	Status        string      `bson:"status"`
	TransactionID string      `bson:"transaction_id,omitempty"`
	PaidAt        time.Time   `bson:"paid_at,omitempty"`
	CreatedAt     time.Time   `bson:"created_at"`
	UpdatedAt     time.Time   `bson:"updated_at"`
	Version       int64       `bson:"version"`
}

func newPaymentDocument(p *domainpayment.Payment) paymentDocument {
	return paymentDocument{
		ID:            string(p.ID),
		BookingID:     string(p.BookingID),
		CustomerID:    string(p.Customer),
		Amount:        p.Amount,
		Method:        string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}

func (d paymentDocument) toAggregate() *domainpayment.Payment {
	return &domainpayment.Payment{
		ID:            domainpayment.PaymentID(d.ID),
		BookingID:     domainbooking.BookingID(d.BookingID),
		Customer:      domainbooking.CustomerID(d.CustomerID),
		Amount:        d.Amount,
		Method:        domainpayment.Method(d.Method),
		Status:        domainpayment.Status(d.Status),
		TransactionID: d.TransactionID,
		PaidAt:        d.PaidAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Version:       d.Version,
	}
}

type refundDocument struct {
	ID            string      `bson:"_id"`
	PaymentID     string      `bson:"payment_id"`
	Amount        money.Money `bson:"amount"`
	Reason        string      `bson:"reason"`
	Status        string      `bson:"status"`
	TransactionID string      `bson:"transaction_id,omitempty"`
	RefundedAt    time.Time   `bson:"refunded_at"`
	CreatedAt     time.Time   `bson:"created_at"`
}

func newRefundDocument(rf *domainpayment.Refund) refundDocument {
	return refundDocument{
		ID:            string(rf.ID),
		PaymentID:     string(rf.PaymentID),
		Amount:        rf.Amount,
		Reason:        rf.Reason,
		Status:        string(rf.Status),
		TransactionID: rf.TransactionID,
		RefundedAt:    rf.RefundedAt,
		CreatedAt:     rf.CreatedAt,
	}
}

func (d refundDocument) toAggregate() *domainpayment.Refund {
	return &domainpayment.Refund{
		ID:            domainpayment.RefundID(d.ID),
		PaymentID:     domainpayment.PaymentID(d.PaymentID),
		Amount:        d.Amount,
		Reason:        d.Reason,
		Status:        domainpayment.Status(d.Status),
		TransactionID: d.TransactionID,
		RefundedAt:    d.RefundedAt,
		CreatedAt:     d.CreatedAt,
	}
}
