package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dulcemocka/ordering-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestInitialSchemaContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_initial_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no initial schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE users",
		"CHECK (points >= 0)",
		"CHECK (available >= 0)",
		"CHECK (quantity > 0)",
		"CHECK (discount_percent BETWEEN 1 AND 100)",
		"ON coupon_claims (user_id, coupon_id)",
		"WHERE deleted_at IS NULL",
		"DROP TABLE IF EXISTS orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrderStatusSeedCoversFullProgression(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_seed_order_statuses.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no order status seed migration found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	for _, status := range []string{"Pending", "Preparing", "Ready for pickup", "Out for delivery", "Delivered", "Cancelled"} {
		if !strings.Contains(content, "'"+status+"'") {
			t.Errorf("missing seeded status %q", status)
		}
	}
}
