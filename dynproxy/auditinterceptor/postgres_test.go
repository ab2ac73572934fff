package auditinterceptor_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/auditinterceptor"
	"github.com/AntonStoeckl/dynamic-proxy-go/testutil/postgres/config"
)

func Test_Auditor_RoundTripAgainstPostgres(t *testing.T) {
	testCases := []struct {
		name    string
		auditor func(t *testing.T, options ...auditinterceptor.Option) *auditinterceptor.Auditor
	}{
		{
			name: "pgxpool",
			auditor: func(t *testing.T, options ...auditinterceptor.Option) *auditinterceptor.Auditor {
				a, err := auditinterceptor.NewFromPGXPool(config.PostgresPGXPool(t), options...)
				require.NoError(t, err)
				return a
			},
		},
		{
			name: "sql.DB",
			auditor: func(t *testing.T, options ...auditinterceptor.Option) *auditinterceptor.Auditor {
				a, err := auditinterceptor.NewFromSQLDB(config.PostgresSQLDB(t), options...)
				require.NoError(t, err)
				return a
			},
		},
		{
			name: "sqlx.DB",
			auditor: func(t *testing.T, options ...auditinterceptor.Option) *auditinterceptor.Auditor {
				a, err := auditinterceptor.NewFromSQLX(config.PostgresSQLX(t), options...)
				require.NoError(t, err)
				return a
			},
		},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			table := fmt.Sprintf("dynproxy_audit_test_%d", i)

			db := config.PostgresSQLDB(t)
			_, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
			require.NoError(t, err)

			auditor := tc.auditor(t, auditinterceptor.WithTableName(table))
			require.NoError(t, auditor.CreateTable(ctx))

			_, err = lend(t, auditor, false)
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)
			_, err = lend(t, auditor, true)
			require.NoError(t, err)

			records, err := auditor.Recent(ctx, 10)
			require.NoError(t, err)
			require.Len(t, records, 2)

			newest, oldest := records[0], records[1]
			assert.True(t, newest.Failed)
			assert.Equal(t, "book not available", newest.Error)
			assert.False(t, oldest.Failed)
			assert.Empty(t, oldest.Error)

			assert.Equal(t, "auditinterceptor_test.Catalog.Lend", oldest.Method)
			assert.JSONEq(t, `["978-0441013593",14]`, oldest.Arguments)
			assert.NotEqual(t, newest.ID, oldest.ID)

			limited, err := auditor.Recent(ctx, 1)
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, newest.ID, limited[0].ID)
		})
	}
}
