package migrations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
)

// LegacyPreference is one row of the pre-consolidation user_preferences
// table: one (type, value) pair per row.
type LegacyPreference struct {
	bun.BaseModel `bun:"table:user_preferences"`

	ID              int64  `bun:"id,pk,autoincrement"`
	UserID          int64  `bun:"user_id,notnull"`
	PreferenceType  string `bun:"preference_type,notnull"`
	PreferenceValue string `bun:"preference_value,nullzero"`
}

// ConsolidatePreferences folds legacy rows into the denormalized blob.
// favorite_category values append to FavoriteCategories, dietary
// restrictions append to DietaryRestrictions, any spicy_level row flips
// the spicy taste flag. Rows of unknown type are dropped.
func ConsolidatePreferences(base models.Preferences, rows []LegacyPreference) models.Preferences {
	out := base
	if out.FavoriteCategories == nil {
		out.FavoriteCategories = []string{}
	}
	if out.DietaryRestrictions == nil {
		out.DietaryRestrictions = []string{}
	}

	for _, row := range rows {
		value := strings.TrimSpace(row.PreferenceValue)
		switch row.PreferenceType {
		case "favorite_category":
			if value != "" && !contains(out.FavoriteCategories, value) {
				out.FavoriteCategories = append(out.FavoriteCategories, value)
			}
		case "dietary_restriction":
			if value != "" && !contains(out.DietaryRestrictions, value) {
				out.DietaryRestrictions = append(out.DietaryRestrictions, value)
			}
		case "spicy_level":
			out.TastePreferences.Spicy = true
		}
	}

	return out
}

func isMissingTableErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such table") || // sqlite
		strings.Contains(msg, "does not exist") // postgres
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

// PreferenceConsolidation folds the legacy user_preferences table into the
// users.preferences blob and drops the legacy table.
type PreferenceConsolidation struct{}

func (PreferenceConsolidation) Name() string { return "consolidate_user_preferences" }

func (PreferenceConsolidation) Up(ctx context.Context, db *bun.DB, log *logger.Logger) error {
	var rows []LegacyPreference
	if err := db.NewSelect().Model(&rows).Order("user_id ASC", "id ASC").Scan(ctx); err != nil {
		// The legacy table only exists on deployments that predate the
		// consolidated blob. Fresh schemas never create it.
		if isMissingTableErr(err) {
			log.Info("MIGRATION", "No user_preferences table present, nothing to consolidate")
			return nil
		}
		return fmt.Errorf("failed to read user_preferences: %w", err)
	}

	byUser := make(map[int64][]LegacyPreference)
	for _, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], row)
	}

	for userID, userRows := range byUser {
		user := new(models.User)
		if err := db.NewSelect().Model(user).Where("id = ?", userID).Scan(ctx); err != nil {
			log.Warn("MIGRATION", fmt.Sprintf("Skipping preferences for missing user %d: %v", userID, err))
			continue
		}

		merged := ConsolidatePreferences(user.ParsePreferences(), userRows)
		encoded, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode preferences for user %d: %w", userID, err)
		}

		if _, err := db.NewUpdate().
			Model((*models.User)(nil)).
			Set("preferences = ?", string(encoded)).
			Where("id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to write preferences for user %d: %w", userID, err)
		}
	}

	log.Info("MIGRATION", fmt.Sprintf("Consolidated preferences for %d users", len(byUser)))

	// Foreign keys referencing the legacy table may or may not exist
	// depending on the deployment's schema vintage, so drops soft-fail.
	for _, constraint := range []string{
		"user_preferences_user_id_fkey",
		"fk_user_preferences_user",
	} {
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("ALTER TABLE user_preferences DROP CONSTRAINT IF EXISTS %s", constraint)); err != nil {
			log.Warn("MIGRATION", fmt.Sprintf("Could not drop constraint %s: %v", constraint, err))
		}
	}

	if _, err := db.NewDropTable().Model((*LegacyPreference)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop user_preferences: %w", err)
	}

	return nil
}

// Down restores the legacy table's schema. The original rows are not
// recoverable from the consolidated blob's history, so it comes back empty.
func (PreferenceConsolidation) Down(ctx context.Context, db *bun.DB, log *logger.Logger) error {
	log.Warn("MIGRATION", "Recreating user_preferences schema only, legacy rows are not restorable")
	_, err := db.NewCreateTable().Model((*LegacyPreference)(nil)).IfNotExists().Exec(ctx)
	return err
}
