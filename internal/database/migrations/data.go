package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-foodcourt/internal/logger"
)

// DataMigration is a one-shot data transformation that runs after the SQL
// schema is in place. Up must be safe to re-run only through the applied
// tracking below, not on its own.
type DataMigration interface {
	Name() string
	Up(ctx context.Context, db *bun.DB, log *logger.Logger) error
	Down(ctx context.Context, db *bun.DB, log *logger.Logger) error
}

type appliedDataMigration struct {
	bun.BaseModel `bun:"table:data_migrations"`

	Name      string    `bun:"name,pk"`
	AppliedAt time.Time `bun:"applied_at,notnull"`
}

// RunDataMigrations applies the given migrations in order, skipping any
// recorded as already applied.
func RunDataMigrations(ctx context.Context, db *bun.DB, log *logger.Logger, migrations ...DataMigration) error {
	if _, err := db.NewCreateTable().
		Model((*appliedDataMigration)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create data_migrations table: %w", err)
	}

	for _, m := range migrations {
		exists, err := db.NewSelect().
			Model((*appliedDataMigration)(nil)).
			Where("name = ?", m.Name()).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check data migration %s: %w", m.Name(), err)
		}
		if exists {
			log.Info("MIGRATION", fmt.Sprintf("Skipping %s, already applied", m.Name()))
			continue
		}

		log.Info("MIGRATION", fmt.Sprintf("Applying %s", m.Name()))
		if err := m.Up(ctx, db, log); err != nil {
			return fmt.Errorf("data migration %s failed: %w", m.Name(), err)
		}

		record := &appliedDataMigration{Name: m.Name(), AppliedAt: time.Now()}
		if _, err := db.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("failed to record data migration %s: %w", m.Name(), err)
		}
		log.Info("MIGRATION", fmt.Sprintf("Applied %s", m.Name()))
	}

	return nil
}

// RollbackDataMigration reverts a single applied migration.
func RollbackDataMigration(ctx context.Context, db *bun.DB, log *logger.Logger, m DataMigration) error {
	exists, err := db.NewSelect().
		Model((*appliedDataMigration)(nil)).
		Where("name = ?", m.Name()).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check data migration %s: %w", m.Name(), err)
	}
	if !exists {
		log.Info("MIGRATION", fmt.Sprintf("%s is not applied, nothing to roll back", m.Name()))
		return nil
	}

	if err := m.Down(ctx, db, log); err != nil {
		return fmt.Errorf("rollback of %s failed: %w", m.Name(), err)
	}

	if _, err := db.NewDelete().
		Model((*appliedDataMigration)(nil)).
		Where("name = ?", m.Name()).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to unrecord data migration %s: %w", m.Name(), err)
	}

	log.Info("MIGRATION", fmt.Sprintf("Rolled back %s", m.Name()))
	return nil
}
