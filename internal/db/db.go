package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"parkspot-backend/config"
	"parkspot-backend/internal/model"
)

// Init initializes the Postgres connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate runs AutoMigrate for all models and then applies the
// engine-specific DDL that AutoMigrate cannot express. The booking
// no-overlap invariant lives here, in the database, so it holds under
// concurrent writers from any number of processes.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&model.User{},
		&model.Region{},
		&model.Area{},
		&model.Spot{},
		&model.SubSpot{},
		&model.Booking{},
		&model.WatchSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	switch gdb.Dialector.Name() {
	case "postgres":
		return applyPostgresDDL(gdb)
	case "sqlite", "sqlite3":
		return applySQLiteDDL(gdb)
	default:
		return fmt.Errorf("unsupported database dialect %q", gdb.Dialector.Name())
	}
}

// applyPostgresDDL installs the range-exclusion constraint: no two active
// bookings on one sub-spot may have intersecting [start_time, end_time)
// ranges. Violations surface as SQLSTATE 23P01 and are translated by the
// store layer.
func applyPostgresDDL(gdb *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_range_valid') THEN
				ALTER TABLE bookings ADD CONSTRAINT bookings_range_valid CHECK (start_time < end_time);
			END IF;
		END $$;`,

		`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
				ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
					EXCLUDE USING GIST (sub_spot_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&)
					WHERE (status = 'active');
			END IF;
		END $$;`,

		"CREATE INDEX IF NOT EXISTS idx_bookings_active_range ON bookings " +
			"USING GIST (sub_spot_id, tstzrange(start_time, end_time, '[)')) WHERE status = 'active';",
	}

	for _, ddl := range ddls {
		if err := gdb.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}

// OverlapAbortMessage is the RAISE(ABORT) text of the SQLite overlap
// trigger; the store matches it to recognize a conflict.
const OverlapAbortMessage = "booking overlap"

// applySQLiteDDL installs the equivalent guard for SQLite, which has no
// exclusion constraints. SQLite serializes writers, so a BEFORE INSERT
// trigger is an atomic check. The trigger compares timestamps as text;
// that matches the Postgres range semantics because the store writes all
// booking times in UTC.
func applySQLiteDDL(gdb *gorm.DB) error {
	ddl := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS bookings_no_overlap
		BEFORE INSERT ON bookings
		WHEN NEW.status = 'active' AND EXISTS (
			SELECT 1 FROM bookings
			WHERE sub_spot_id = NEW.sub_spot_id
			  AND status = 'active'
			  AND start_time < NEW.end_time
			  AND end_time > NEW.start_time
		)
		BEGIN
			SELECT RAISE(ABORT, '%s');
		END;`, OverlapAbortMessage)

	if err := gdb.Exec(ddl).Error; err != nil {
		return fmt.Errorf("DDL failed installing overlap trigger: %w", err)
	}
	return nil
}
