package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	availabilityerrors "rentals/internal/availability/errors"
	"rentals/pkg/db"
	sqltx "rentals/pkg/db/sql"
	"rentals/pkg/model"
)

type sqlBookingStore struct {
	db        *gorm.DB
	txManager sqltx.TransactionManager
}

func NewSQLBookingStore(gdb *gorm.DB, policy db.RetryPolicy) BookingStore {
	return &sqlBookingStore{
		db:        gdb,
		txManager: sqltx.NewTransactionManager(gdb, policy),
	}
}

func (s *sqlBookingStore) conn(ctx context.Context) *gorm.DB {
	return sqltx.Conn(ctx, s.db)
}

func (s *sqlBookingStore) FindOverlappingRanges(ctx context.Context, listingID string, rng model.DateRange, kinds ...model.RuleKind) ([]*model.AvailabilityRule, error) {
	rules := make([]*model.AvailabilityRule, 0)
	err := s.conn(ctx).
		Where("listing_id = ? AND start_date < ? AND end_date > ?", listingID, rng.End, rng.Start).
		Where("kind IN ?", kindsOrAll(kinds)).
		Order("start_date ASC").
		Order("created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping rules: %w", err)
	}
	normalizeRules(rules)
	return rules, nil
}

func (s *sqlBookingStore) FindBookedRange(ctx context.Context, bookingID string) (*model.AvailabilityRule, error) {
	var rule model.AvailabilityRule
	err := s.conn(ctx).
		Where("booking_id = ? AND kind = ?", bookingID, model.RuleBooked).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, availabilityerrors.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to find booked range: %w", err)
	}
	normalizeRule(&rule)
	return &rule, nil
}

func (s *sqlBookingStore) InsertBookedRange(ctx context.Context, listingID string, rng model.DateRange, bookingID string) (*model.AvailabilityRule, error) {
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

func (s *sqlBookingStore) InsertRule(ctx context.Context, rule *model.AvailabilityRule) error {
	rule.ID = uuid.NewString()
	rule.CreatedAt = time.Now().UTC()

	if err := s.conn(ctx).Create(rule).Error; err != nil {
		if isUniqueViolation(err) {
			return availabilityerrors.ErrDuplicateBooking
		}
		return fmt.Errorf("failed to insert availability rule: %w", err)
	}
	return nil
}

func (s *sqlBookingStore) DeleteBookedRange(ctx context.Context, bookingID string) (*model.AvailabilityRule, error) {
	rule, err := s.FindBookedRange(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	result := s.conn(ctx).Delete(&model.AvailabilityRule{}, "id = ?", rule.ID)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to delete booked range: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, availabilityerrors.ErrRuleNotFound
	}
	return rule, nil
}

// ExecuteListingTransaction makes the calendar version bump the first
// write of the transaction. On SQLite the IMMEDIATE begin already holds
// the database write lock; on row-locking engines the UPDATE blocks other
// writers of the same listing until commit.
func (s *sqlBookingStore) ExecuteListingTransaction(ctx context.Context, listingID string, fn TxFunc) error {
	return s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		tx := s.conn(txCtx)
		now := time.Now().UTC()

		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.ListingCalendar{ListingID: listingID, UpdatedAt: now}).Error
		if err != nil {
			return fmt.Errorf("failed to create listing calendar: %w", err)
		}

		err = tx.Model(&model.ListingCalendar{}).
			Where("listing_id = ?", listingID).
			Updates(map[string]any{
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to lock listing calendar: %w", err)
		}

		return fn(txCtx)
	})
}

func (s *sqlBookingStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
