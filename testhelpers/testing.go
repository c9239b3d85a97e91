package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"homelyquad/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func()
}

// SetupTestDB connects to TEST_DATABASE_URL, applies the schema and truncates
// every table. Tests are skipped when the variable is unset.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE maintenance_attachments, audit_logs, messages, maintenance_work_orders,
		maintenance_requests, leases, units, premises, users, organizations RESTART IDENTITY CASCADE`)
	if err != nil {
		pool.Close()
		t.Fatalf("Failed to truncate test database: %v", err)
	}

	db := &TestDB{Pool: pool, Cleanup: pool.Close}
	t.Cleanup(db.Cleanup)
	return db
}

// SeedScenario inserts the same identities NewScenario builds in memory.
func SeedScenario(t *testing.T, db *TestDB) {
	t.Helper()
	ctx := context.Background()

	exec := func(query string, args ...interface{}) {
		t.Helper()
		if _, err := db.Pool.Exec(ctx, query, args...); err != nil {
			t.Fatalf("Failed to seed scenario: %v", err)
		}
	}

	exec(`INSERT INTO organizations (id, name) VALUES ($1, 'Harbour Lofts'), ($2, 'Faraway Estates')`, OrgID, ForeignOrgID)

	users := []struct {
		id    int64
		org   int64
		email string
		role  string
	}{
		{LandlordID, OrgID, "landlord@example.com", "landlord"},
		{OtherLandlordID, OrgID, "owner2@example.com", "landlord"},
		{TenantID, OrgID, "tenant@example.com", "tenant"},
		{OtherTenantID, OrgID, "neighbour@example.com", "tenant"},
		{WorkmanID, OrgID, "fixer@example.com", "workman"},
		{OtherWorkmanID, OrgID, "fixer2@example.com", "workman"},
		{AdminID, OrgID, "admin@example.com", "admin"},
		{ForeignTenantID, ForeignOrgID, "far@example.com", "tenant"},
		{ForeignWorkerID, ForeignOrgID, "farfix@example.com", "workman"},
		{60, ForeignOrgID, "farowner@example.com", "landlord"},
	}
	for _, u := range users {
		exec(`INSERT INTO users (id, organization_id, email, full_name, role) VALUES ($1, $2, $3, $3, $4)`, u.id, u.org, u.email, u.role)
	}

	exec(`INSERT INTO premises (id, organization_id, landlord_id, name) VALUES
		(1, $1, $2, 'North block'), (2, $1, $3, 'South block'), (3, $4, 60, 'Far block')`,
		OrgID, LandlordID, OtherLandlordID, ForeignOrgID)
	exec(`INSERT INTO units (id, premises_id, label) VALUES ($1, 1, '1A'), ($2, 2, '2B'), ($3, 3, '3C')`,
		UnitID, OtherUnitID, ForeignUnitID)

	start := time.Now().Add(-30 * 24 * time.Hour)
	exec(`INSERT INTO leases (unit_id, tenant_id, start_date) VALUES ($1, $2, $7), ($3, $4, $7), ($5, $6, $7)`,
		UnitID, TenantID, OtherUnitID, OtherTenantID, ForeignUnitID, ForeignTenantID, start)
}
