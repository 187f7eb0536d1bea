package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	availabilityerrors "rentals/internal/availability/errors"
	"rentals/pkg/config"
	"rentals/pkg/db"
	mongotx "rentals/pkg/db/mongo"
	"rentals/pkg/model"
)

type mongoBookingStore struct {
	cfg       *config.Config
	client    *mongo.Client
	rules     *mongo.Collection
	calendars *mongo.Collection
	txManager mongotx.TransactionManager
}

func NewMongoBookingStore(cfg *config.Config) BookingStore {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingStore{
		cfg:       cfg,
		client:    cfg.Client.Mongo,
		rules:     database.Collection(RulesCollectionName),
		calendars: database.Collection(CalendarsCollectionName),
		txManager: mongotx.NewTransactionManager(cfg.Client.Mongo, db.RetryPolicy{
			MaxRetries: cfg.StoreTxMaxRetries,
			Backoff:    cfg.StoreTxRetryBackoff,
		}),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext cannot be wrapped without losing the session, so it is
// returned unchanged.
func (s *mongoBookingStore) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}

func (s *mongoBookingStore) FindOverlappingRanges(ctx context.Context, listingID string, rng model.DateRange, kinds ...model.RuleKind) ([]*model.AvailabilityRule, error) {
	ctx, cancel := s.withTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"listing_id": listingID,
		"start_date": bson.M{"$lt": rng.End},
		"end_date":   bson.M{"$gt": rng.Start},
		"kind":       bson.M{"$in": kindsOrAll(kinds)},
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "start_date", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := s.rules.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping rules: %w", err)
	}
	defer cursor.Close(ctx)

	rules := make([]*model.AvailabilityRule, 0)
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}
	normalizeRules(rules)

	return rules, nil
}

func (s *mongoBookingStore) FindBookedRange(ctx context.Context, bookingID string) (*model.AvailabilityRule, error) {
	ctx, cancel := s.withTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var rule model.AvailabilityRule
	err := s.rules.FindOne(ctx, bookedFilter(bookingID)).Decode(&rule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to find booked range: %w", err)
	}

	normalizeRule(&rule)
	return &rule, nil
}

func (s *mongoBookingStore) InsertBookedRange(ctx context.Context, listingID string, rng model.DateRange, bookingID string) (*model.AvailabilityRule, error) {
	rule := &model.AvailabilityRule{
		ListingID: listingID,
		StartDate: rng.Start,
		EndDate:   rng.End,
		Kind:      model.RuleBooked,
		BookingID: bookingID,
	}
	if err := s.InsertRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *mongoBookingStore) InsertRule(ctx context.Context, rule *model.AvailabilityRule) error {
	ctx, cancel := s.withTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	rule.ID = ""
	rule.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := s.rules.InsertOne(ctx, rule)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return availabilityerrors.ErrDuplicateBooking
		}
		return fmt.Errorf("failed to insert availability rule: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rule.ID = oid.Hex()
	}
	return nil
}

func (s *mongoBookingStore) DeleteBookedRange(ctx context.Context, bookingID string) (*model.AvailabilityRule, error) {
	ctx, cancel := s.withTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	var rule model.AvailabilityRule
	err := s.rules.FindOneAndDelete(ctx, bookedFilter(bookingID)).Decode(&rule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to delete booked range: %w", err)
	}

	normalizeRule(&rule)
	return &rule, nil
}

// ExecuteListingTransaction bumps the listing's calendar version as the
// first write, so two transactions on one listing always conflict and one
// of them is retried against the other's committed state.
func (s *mongoBookingStore) ExecuteListingTransaction(ctx context.Context, listingID string, fn TxFunc) error {
	return s.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		_, err := s.calendars.UpdateOne(sessCtx,
			bson.M{"_id": listingID},
			bson.M{
				"$inc": bson.M{"version": 1},
				"$set": bson.M{"updated_at": time.Now().UTC()},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to lock listing calendar: %w", err)
		}
		return fn(sessCtx)
	})
}

func (s *mongoBookingStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func bookedFilter(bookingID string) bson.M {
	return bson.M{"booking_id": bookingID, "kind": model.RuleBooked}
}

// BSON datetimes decode in the local zone; dates are compared as UTC.
func normalizeRule(rule *model.AvailabilityRule) {
	rule.StartDate = rule.StartDate.UTC()
	rule.EndDate = rule.EndDate.UTC()
	rule.CreatedAt = rule.CreatedAt.UTC()
}

func normalizeRules(rules []*model.AvailabilityRule) {
	for _, r := range rules {
		normalizeRule(r)
	}
}
