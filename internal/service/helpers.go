package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// ErrInvalidDate is returned for dates that are not YYYY-MM-DD.
var ErrInvalidDate = errors.New("Dates must use the YYYY-MM-DD format")

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// uniqueViolation reports a duplicate key error. Postgres connections are
// opened with TranslateError, so the driver's 23505 arrives as
// gorm.ErrDuplicatedKey.
func uniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// parseOptionalDate treats nil and "" as no date.
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// today returns the calendar date of now in UTC at midnight.
func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
