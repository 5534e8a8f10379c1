package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayfinder/internal/domain/booking"
	domainpricing "stayfinder/internal/domain/pricing"
	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type AttemptRepository struct {
	col *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{col: db.Collection("booking_attempts")}
}

func (r *AttemptRepository) ByID(ctx context.Context, id domainbooking.AttemptID) (*domainbooking.Attempt, error) {
	var doc attemptDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrAttemptNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *AttemptRepository) Save(ctx context.Context, a *domainbooking.Attempt) error {
	doc := newAttemptDocument(a)
	filter := bson.M{"_id": doc.ID, "version": a.Version}
	doc.Version = a.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	a.Version = doc.Version
	return nil
}

func (r *AttemptRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Attempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"guest_id": guestID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var attempts []*domainbooking.Attempt
	for cursor.Next(ctx) {
		var doc attemptDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		attempts = append(attempts, doc.toAggregate())
	}
	return attempts, cursor.Err()
}

type attemptDocument struct {
	ID            string        `bson:"_id"`
	ListingID     string        `bson:"listing_id"`
	GuestID       string        `bson:"guest_id"`
	Range         rangeDocument `bson:"range"`
	Guests        int           `bson:"guests"`
	Nights        int           `bson:"nights"`
	NightlyAmount int64         `bson:"nightly_amount"`
	TotalAmount   int64         `bson:"total_amount"`
	Currency      string        `bson:"currency"`
	State         string        `bson:"state"`
	ReservationID string        `bson:"reservation_id"`
	PaymentID     string        `bson:"payment_id"`
	FailureCode   string        `bson:"failure_code"`
	FailureReason string        `bson:"failure_reason"`
	Transient     bool          `bson:"transient"`
	CreatedAt     int64         `bson:"created_at"`
	UpdatedAt     int64         `bson:"updated_at"`
	Version       int64         `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newAttemptDocument(a *domainbooking.Attempt) attemptDocument {
	return attemptDocument{
		ID:            string(a.ID),
		ListingID:     a.ListingID,
		GuestID:       a.GuestID,
		Range:         rangeDocument{CheckIn: a.Range.CheckIn.UnixMilli(), CheckOut: a.Range.CheckOut.UnixMilli()},
		Guests:        a.Guests,
		Nights:        a.Price.Nights,
		NightlyAmount: a.Price.Nightly.Amount,
		TotalAmount:   a.Price.Total.Amount,
		Currency:      a.Price.Nightly.Currency,
		State:         string(a.State),
		ReservationID: a.ReservationID,
		PaymentID:     a.PaymentID,
		FailureCode:   a.FailureCode,
		FailureReason: a.FailureReason,
		Transient:     a.Transient,
		CreatedAt:     a.CreatedAt.UnixMilli(),
		UpdatedAt:     a.UpdatedAt.UnixMilli(),
		Version:       a.Version,
	}
}

func (d attemptDocument) toAggregate() *domainbooking.Attempt {
	a := &domainbooking.Attempt{
		ID:            domainbooking.AttemptID(d.ID),
		ListingID:     d.ListingID,
		GuestID:       d.GuestID,
		Guests:        d.Guests,
		State:         domainbooking.AttemptState(d.State),
		ReservationID: d.ReservationID,
		PaymentID:     d.PaymentID,
		FailureCode:   d.FailureCode,
		FailureReason: d.FailureReason,
		Transient:     d.Transient,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
	if d.Range.CheckIn != 0 || d.Range.CheckOut != 0 {
		a.Range = daterange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)}
	}
	if d.Nights > 0 {
		a.Price = domainpricing.PricedBooking{
			Nights:  d.Nights,
			Nightly: money.Money{Amount: d.NightlyAmount, Currency: d.Currency},
			Total:   money.Money{Amount: d.TotalAmount, Currency: d.Currency},
		}
	}
	return a
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*AttemptRepository)(nil)
