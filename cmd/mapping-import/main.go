package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/logger"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/mappingimport"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		csvPath   = flag.String("csv", "", "path to CSV export")
		dbURL     = flag.String("db", os.Getenv("DATABASE_URL"), "DATABASE_URL")
		namespace = flag.String("namespace", "", "UUID Namespace (required, stable forever)")
		dryRun    = flag.Bool("dry-run", false, "parse and validate only; no DB writes")
	)
	flag.Parse()

	if *csvPath == "" || *namespace == "" || (*dbURL == "" && !*dryRun) {
		flag.Usage()
		os.Exit(2)
	}

	log := logger.New(os.Getenv("LOG_LEVEL"), true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sum, err := mappingimport.Run(ctx, mappingimport.Config{
		CSVPath:     *csvPath,
		DatabaseURL: *dbURL,
		Namespace:   *namespace,
		DryRun:      *dryRun,
	})
	if err != nil {
		log.Fatal().Err(err).Str("csv", *csvPath).Msg("[mapping-import] failed")
	}
	if *dryRun {
		log.Info().Int("rows", sum.Rows).Msg("[mapping-import] dry run, nothing written")
		return
	}
	log.Info().Int("rows", sum.Rows).Int64("superseded", sum.Deactivated).Msg("[mapping-import] done")
}
