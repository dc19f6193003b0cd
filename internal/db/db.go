package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
)

// sqlWriter feeds gorm's log lines to zerolog. gorm does not pass a level
// to Printf, so every line is written at the level the writer was built with.
type sqlWriter struct {
	log   zerolog.Logger
	level zerolog.Level
}

func (w sqlWriter) Printf(format string, args ...any) {
	w.log.WithLevel(w.level).Msgf(format, args...)
}

// GormConfig routes SQL logging through log so slow queries land next to
// request logs. Statements are traced only when log is at debug.
func GormConfig(cfg config.Config, log zerolog.Logger) *gorm.Config {
	level, at := logger.Warn, zerolog.WarnLevel
	if log.GetLevel() <= zerolog.DebugLevel {
		level, at = logger.Info, zerolog.DebugLevel // SQL + timings
	}
	w := sqlWriter{log: log.With().Str("component", "gorm").Logger(), level: at}
	return &gorm.Config{
		Logger: logger.New(w, logger.Config{
			SlowThreshold:             time.Duration(cfg.Pool.SlowQueryMillis) * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	}
}

// Connect opens the Postgres pool.
func Connect(cfg config.Config, log zerolog.Logger) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, config.ErrMissingDatabaseURL
	}

	d, err := gorm.Open(postgres.Open(cfg.DatabaseURL), GormConfig(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := d.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Pool.ConnMaxLifetimeMinutes) * time.Minute)

	log.Info().Msg("Connected to database")
	return d, nil
}
