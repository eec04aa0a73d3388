package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type flightRow struct {
	FlightID       string    `gorm:"primaryKey"`
	Airline        string    `gorm:"not null"`
	DepartureCity  string    `gorm:"not null;index:flights_route_idx"`
	ArrivalCity    string    `gorm:"not null;index:flights_route_idx"`
	BasePrice      int64     `gorm:"not null;check:base_price >= 0"`
	CurrentPrice   int64     `gorm:"not null;check:current_price >= base_price"`
	PriceUpdatedAt time.Time `gorm:"not null"`
	CreatedAt      time.Time
}

func (flightRow) TableName() string { return "flights" }

func (r flightRow) toDomain() domain.Flight {
	return domain.Flight{
		FlightID:       r.FlightID,
		Airline:        r.Airline,
		DepartureCity:  r.DepartureCity,
		ArrivalCity:    r.ArrivalCity,
		BasePrice:      r.BasePrice,
		CurrentPrice:   r.CurrentPrice,
		PriceUpdatedAt: r.PriceUpdatedAt.UTC(),
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

type walletRow struct {
	ID        string `gorm:"primaryKey"`
	Balance   int64  `gorm:"not null;check:balance >= 0"`
	UpdatedAt time.Time
}

func (walletRow) TableName() string { return "wallets" }

type bookingRow struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	PNR           string    `gorm:"column:pnr;not null;uniqueIndex:bookings_pnr_key"`
	PassengerName string    `gorm:"not null"`
	FlightID      string    `gorm:"not null;index:bookings_flight_time_idx,priority:1"`
	Airline       string    `gorm:"not null"`
	Route         string    `gorm:"not null"`
	FinalPrice    int64     `gorm:"not null"`
	BookingTime   time.Time `gorm:"not null;index:bookings_flight_time_idx,priority:2"`
}

func (bookingRow) TableName() string { return "bookings" }

func (r bookingRow) toDomain() domain.Booking {
	return domain.Booking{
		ID:            r.ID,
		PNR:           r.PNR,
		PassengerName: r.PassengerName,
		FlightID:      r.FlightID,
		Airline:       r.Airline,
		Route:         r.Route,
		FinalPrice:    r.FinalPrice,
		BookingTime:   r.BookingTime.UTC(),
	}
}

// GormStore keeps everything in SQLite. It is meant for local runs and
// tests; a single connection serializes transactions.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database at path. ":memory:" is allowed.
func OpenSQLite(path string) (*GormStore, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
	db, err := gorm.Open(gormsqlite.New(gormsqlite.Config{
		DriverName: "sqlite",
		DSN:        dsn,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return &GormStore{db: db}, nil
}

func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&flightRow{}, &walletRow{}, &bookingRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (s *GormStore) GetFlight(ctx context.Context, flightID string) (*domain.Flight, error) {
	return gormGetFlight(s.db.WithContext(ctx), flightID)
}

func (s *GormStore) ListFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	q := s.db.WithContext(ctx).Model(&flightRow{})
	if filter.DepartureCity != "" {
		q = q.Where("departure_city = ?", filter.DepartureCity)
	}
	if filter.ArrivalCity != "" {
		q = q.Where("arrival_city = ?", filter.ArrivalCity)
	}
	var rows []flightRow
	if err := q.Order("flight_id").Limit(flightLimit(filter)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	return toFlights(rows), nil
}

func (s *GormStore) ListSurgedFlights(ctx context.Context) ([]domain.Flight, error) {
	var rows []flightRow
	if err := s.db.WithContext(ctx).Where("current_price > base_price").Order("flight_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list surged flights: %w", err)
	}
	return toFlights(rows), nil
}

func (s *GormStore) UpsertFlight(ctx context.Context, f domain.Flight) error {
	now := time.Now().UTC()
	row := flightRow{
		FlightID:       f.FlightID,
		Airline:        f.Airline,
		DepartureCity:  f.DepartureCity,
		ArrivalCity:    f.ArrivalCity,
		BasePrice:      f.BasePrice,
		CurrentPrice:   f.BasePrice,
		PriceUpdatedAt: now,
		CreatedAt:      now,
	}
	if !f.PriceUpdatedAt.IsZero() {
		row.PriceUpdatedAt = f.PriceUpdatedAt.UTC()
	}
	if f.CurrentPrice > f.BasePrice {
		row.CurrentPrice = f.CurrentPrice
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "flight_id"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert flight %s: %w", f.FlightID, err)
	}
	return nil
}

func (s *GormStore) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	var rows []bookingRow
	if err := s.db.WithContext(ctx).Order("booking_time DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	bookings := make([]domain.Booking, 0, len(rows))
	for _, r := range rows {
		bookings = append(bookings, r.toDomain())
	}
	return bookings, nil
}

func (s *GormStore) GetBookingByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	var row bookingRow
	err := s.db.WithContext(ctx).Where("pnr = ?", pnr).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", pnr, err)
	}
	b := row.toDomain()
	return &b, nil
}

func (s *GormStore) GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	return gormGetWallet(s.db.WithContext(ctx), walletID)
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) LockFlight(_ context.Context, flightID string) (*domain.Flight, error) {
	return gormGetFlight(t.db.Clauses(clause.Locking{Strength: "UPDATE"}), flightID)
}

func (t *gormTx) UpdateFlightPrice(_ context.Context, flightID string, price int64, at time.Time) error {
	res := t.db.Model(&flightRow{}).Where("flight_id = ?", flightID).
		Updates(map[string]any{"current_price": price, "price_updated_at": at.UTC()})
	if res.Error != nil {
		return fmt.Errorf("update flight price %s: %w", flightID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) CountBookingsSince(_ context.Context, flightID string, since time.Time) (int, error) {
	var n int64
	err := t.db.Model(&bookingRow{}).
		Where("flight_id = ? AND booking_time >= ?", flightID, since.UTC()).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count bookings for %s: %w", flightID, err)
	}
	return int(n), nil
}

func (t *gormTx) LockWallet(_ context.Context, wallet domain.WalletHandle) (*domain.Wallet, error) {
	err := t.db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&walletRow{ID: wallet.ID, Balance: wallet.DefaultBalance}).Error
	if err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}
	return gormGetWallet(t.db.Clauses(clause.Locking{Strength: "UPDATE"}), wallet.ID)
}

func (t *gormTx) DebitWallet(_ context.Context, walletID string, amount int64) (int64, bool, error) {
	res := t.db.Model(&walletRow{}).
		Where("id = ? AND balance >= ?", walletID, amount).
		Updates(map[string]any{"balance": gorm.Expr("balance - ?", amount), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, false, fmt.Errorf("debit wallet %s: %w", walletID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	w, err := gormGetWallet(t.db, walletID)
	if err != nil {
		return 0, false, err
	}
	return w.Balance, true, nil
}

func (t *gormTx) InsertBooking(_ context.Context, b *domain.Booking) error {
	row := bookingRow{
		PNR:           b.PNR,
		PassengerName: b.PassengerName,
		FlightID:      b.FlightID,
		Airline:       b.Airline,
		Route:         b.Route,
		FinalPrice:    b.FinalPrice,
		BookingTime:   b.BookingTime.UTC(),
	}
	err := t.db.Create(&row).Error
	if isSQLiteUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateReference, b.PNR)
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID = row.ID
	return nil
}

func gormGetFlight(db *gorm.DB, flightID string) (*domain.Flight, error) {
	var row flightRow
	err := db.Where("flight_id = ?", flightID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flight %s: %w", flightID, err)
	}
	f := row.toDomain()
	return &f, nil
}

func gormGetWallet(db *gorm.DB, walletID string) (*domain.Wallet, error) {
	var row walletRow
	err := db.Where("id = ?", walletID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet %s: %w", walletID, err)
	}
	return &domain.Wallet{ID: row.ID, Balance: row.Balance, UpdatedAt: row.UpdatedAt.UTC()}, nil
}

func toFlights(rows []flightRow) []domain.Flight {
	flights := make([]domain.Flight, 0, len(rows))
	for _, r := range rows {
		flights = append(flights, r.toDomain())
	}
	return flights
}

// isSQLiteUniqueViolation covers both the translated gorm error and the raw
// driver error, depending on whether the dialector recognised it.
func isSQLiteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch code := sqliteErr.Code(); {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case code&0xff == sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}

var (
	_ Store = (*GormStore)(nil)
	_ Tx    = (*gormTx)(nil)
)
