package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/allocation"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/db"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/logger"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/students"
)

var (
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	from        = flag.String("from", "", "first period, YYYY-MM (required)")
	to          = flag.String("to", "", "last period, YYYY-MM (default: same as --from)")
	dryRun      = flag.Bool("dry-run", false, "compute and print only; no DB writes")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key (e.g., 424242). 0 = disabled")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *from == "" {
		fatalf("--from is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}
	if *to == "" {
		*to = *from
	}

	first, err := finance.ParsePeriod(*from)
	if err != nil {
		fatalf("--from: %v", err)
	}
	last, err := finance.ParsePeriod(*to)
	if err != nil {
		fatalf("--to: %v", err)
	}
	if last.Before(first) {
		fatalf("--to %s is before --from %s", last, first)
	}

	cfg, err := config.Load(os.Getenv("FINANCE_CONFIG"))
	if err != nil {
		fatalf("config: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	sqlDB, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer sqlDB.Close()
	if err := sqlDB.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	// Session-level lock held on one pinned connection for the whole run.
	if *advisoryKey != 0 {
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			fatalf("lock conn: %v", err)
		}
		defer conn.Close()
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
		defer func() {
			_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, *advisoryKey)
		}()
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), db.GormConfig(cfg, log))
	if err != nil {
		fatalf("gorm: %v", err)
	}
	if !*dryRun {
		if err := finance.Init(gdb); err != nil {
			fatalf("migrate finance: %v", err)
		}
		if err := allocation.Init(gdb); err != nil {
			fatalf("migrate allocation: %v", err)
		}
	}

	txns := finance.NewStore(gdb)
	store := allocation.NewStore(gdb)
	svc := allocation.NewService(allocation.Deps{
		Mappings:      store,
		Accumulations: store,
		Transactions:  txns,
		Accounts:      txns,
		Students:      students.NewStore(gdb),
	}, cfg.Finance)

	if *dryRun {
		fmt.Println("Mode: DRY RUN (no database writes)")
	} else {
		fmt.Println("Mode: LIVE (will write to database)")
	}

	periods, rows := 0, 0
	for p := first; !last.Before(p); p = p.Next() {
		if *dryRun {
			sum, err := svc.Accumulate(ctx, p)
			if err != nil {
				fatalf("%s: %v", p, err)
			}
			fmt.Printf("  %s: %d students, total %s, %d degraded\n", p, len(sum.Students), sum.Total, sum.DegradedCount)
			rows += len(sum.Students)
		} else {
			n, err := svc.RefreshAccumulations(ctx, p)
			if err != nil {
				fatalf("%s: %v", p, err)
			}
			fmt.Printf("  %s: %d students refreshed\n", p, n)
			rows += n
		}
		periods++
	}

	fmt.Printf("Done: %d periods, %d student rows\n", periods, rows)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "aid-backfill: "+format+"\n", args...)
	os.Exit(1)
}
