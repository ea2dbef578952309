package db_test

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/keuringen-be/internal/adapters/db"
	"github.com/ammerola/keuringen-be/test/helpers"
)

func TestMigrationFS_HasPairedFiles(t *testing.T) {
	entries, err := fs.ReadDir(db.MigrationFS(), ".")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs)
}

func TestVerifySchema(t *testing.T) {
	ctx := context.Background()
	query := `SELECT table_name FROM information_schema.tables WHERE table_schema = \$1`

	tests := []struct {
		name     string
		rows     []string
		queryErr error
		wantErr  string
	}{
		{
			name: "all_tables_present",
			rows: []string{"schema_migrations", "onderneming", "gebruiker", "klant", "adres", "keuring"},
		},
		{
			name:    "missing_tables_are_reported",
			rows:    []string{"onderneming", "klant"},
			wantErr: "missing tables: [gebruiker adres keuring]",
		},
		{
			name:     "query_error",
			queryErr: errors.New("connection reset"),
			wantErr:  "failed to list tables",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, sqlDB := helpers.SetupMockDB(t)

			expect := mock.ExpectQuery(query).WithArgs("public")
			if tt.queryErr != nil {
				expect.WillReturnError(tt.queryErr)
			} else {
				rows := sqlmock.NewRows([]string{"table_name"})
				for _, r := range tt.rows {
					rows.AddRow(r)
				}
				expect.WillReturnRows(rows)
			}

			err := db.VerifySchema(ctx, sqlDB, "public", db.RequiredTables)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
