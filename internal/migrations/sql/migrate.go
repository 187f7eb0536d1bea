package sql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"rentals/pkg/logger"
	"rentals/pkg/model"
)

// Models lists every table the service owns.
func Models() []any {
	return []any{
		&model.ListingCalendar{},
		&model.AvailabilityRule{},
		&model.BookingReservation{},
	}
}

func RunMigration(ctx context.Context, db *gorm.DB, log *logger.Logger) error {
	log.Info("Running SQL migrations")
	for _, m := range Models() {
		if err := db.WithContext(ctx).AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", m, err)
		}
	}
	log.Info("All SQL migrations applied")
	return nil
}
