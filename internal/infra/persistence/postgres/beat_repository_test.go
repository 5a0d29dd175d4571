package postgres

import (
	"testing"

	"beatmarket/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{DSN: "host=localhost user=beatmarket dbname=beatmarket sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	return db
}

func TestBeatByID_LockingClause(t *testing.T) {
	db := newDryRunDB(t)
	id := uuid.New()

	tests := []struct {
		name         string
		lockStrength string
		want         string
	}{
		{name: "plain read", lockStrength: ""},
		{name: "delete takes exclusive lock", lockStrength: clause.LockingStrengthUpdate, want: "FOR UPDATE"},
		{name: "purchase takes shared lock", lockStrength: clause.LockingStrengthShare, want: "FOR SHARE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				var beatM model.BeatModel

				return beatByID(tx, id, tt.lockStrength).First(&beatM)
			})

			assert.Contains(t, sql, id.String())
			if tt.want == "" {
				assert.NotContains(t, sql, "FOR ")
			} else {
				assert.Contains(t, sql, tt.want)
			}
		})
	}
}
