package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/expense-ledger/internal/config"
	"github.com/dvloznov/expense-ledger/internal/infra/sqlite"
	"github.com/dvloznov/expense-ledger/internal/logger"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var (
	configPath = flag.String("config", "", "config file (default: ./ledger.yaml)")
	appliedBy  = flag.String("applied-by", "ledger-migrate", "Name of the tool applying migrations")
	sqlitePath = flag.String("sqlite", "", "Create the SQLite snapshot schema at this path instead of migrating BigQuery")
	dryRun     = flag.Bool("dry-run", false, "List pending migrations without applying them")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load config")
	}
	log, err := logger.NewFromConfig(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to setup logging")
	}

	ctx := context.Background()

	if *sqlitePath != "" {
		src, err := sqlite.Open(ctx, *sqlitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create SQLite schema")
		}
		_ = src.Close()
		log.Info().Str("path", *sqlitePath).Msg("SQLite schema is up to date")
		return
	}

	if cfg.BigQuery.Project == "" {
		log.Fatal().Msg("bigquery.project is required (set it in the config or LEDGER_BIGQUERY_PROJECT)")
	}
	t := target{Project: cfg.BigQuery.Project, Dataset: cfg.BigQuery.Dataset, Table: cfg.BigQuery.Table}

	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open embedded migrations")
	}
	migrations, err := readMigrations(sub, t, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	client, err := bigquery.NewClient(ctx, t.Project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", t.Project).Str("dataset", t.Dataset).Msg("Connected to BigQuery")

	if err := run(ctx, client, t, migrations, log); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

func run(ctx context.Context, client *bigquery.Client, t target, migrations []Migration, log zerolog.Logger) error {
	if err := ensureSchemaMigrationsTable(ctx, client, t); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	applied, err := getAppliedMigrations(ctx, client, t)
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}
	log.Info().Int("count", len(applied)).Msg("Found already applied migrations")

	todo, err := pending(migrations, applied)
	if err != nil {
		return err
	}
	if len(todo) == 0 {
		log.Info().Msg("No new migrations to apply. Dataset is up to date.")
		return nil
	}

	for _, m := range todo {
		mlog := log.With().Int("version", m.Version).Str("name", m.Name).Logger()
		if *dryRun {
			mlog.Info().Msg("Pending")
			continue
		}

		mlog.Info().Msg("Applying migration")
		if err := execute(ctx, client.Query(m.SQL)); err != nil {
			return fmt.Errorf("execute migration %04d_%s: %w", m.Version, m.Name, err)
		}
		if err := recordMigration(ctx, client, t, m); err != nil {
			return fmt.Errorf("record migration %04d_%s: %w", m.Version, m.Name, err)
		}
		mlog.Info().Msg("Migration applied")
	}

	if !*dryRun {
		log.Info().Int("count", len(todo)).Msg("Successfully applied migrations")
	}
	return nil
}

func migrationsTable(t target) string {
	return "`" + t.Project + "." + t.Dataset + ".schema_migrations`"
}

// ensureSchemaMigrationsTable creates the schema_migrations table if it doesn't exist
func ensureSchemaMigrationsTable(ctx context.Context, client *bigquery.Client, t target) error {
	return execute(ctx, client.Query(`
		CREATE TABLE IF NOT EXISTS `+migrationsTable(t)+` (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`))
}

// getAppliedMigrations retrieves the list of already applied migrations
func getAppliedMigrations(ctx context.Context, client *bigquery.Client, t target) ([]AppliedMigration, error) {
	q := client.Query(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM ` + migrationsTable(t) + `
		ORDER BY version ASC
	`)
	it, err := q.Read(ctx)
	if err != nil {
		// If table doesn't exist yet, return empty list
		if strings.Contains(err.Error(), "Not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64
			Name      string
			AppliedAt bigquery.NullTimestamp
			Checksum  bigquery.NullString
			AppliedBy bigquery.NullString
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		am := AppliedMigration{Version: int(row.Version), Name: row.Name}
		if row.AppliedAt.Valid {
			am.AppliedAt = row.AppliedAt.Timestamp
		}
		if row.Checksum.Valid {
			am.Checksum = row.Checksum.StringVal
		}
		if row.AppliedBy.Valid {
			am.AppliedBy = row.AppliedBy.StringVal
		}
		applied = append(applied, am)
	}
	return applied, nil
}

// recordMigration records a successfully applied migration in schema_migrations
func recordMigration(ctx context.Context, client *bigquery.Client, t target, m Migration) error {
	q := client.Query(`
		INSERT INTO ` + migrationsTable(t) + `
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: *appliedBy},
	}
	return execute(ctx, q)
}

func execute(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
