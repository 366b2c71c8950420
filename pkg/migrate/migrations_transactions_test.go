package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samerhaddad/clubledger-backend/pkg/migrate"
)

func TestTransactionsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_transactions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no transactions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS transactions",
		"CHECK (amount_cents >= 0)",
		"CHECK (debt_added_cents >= 0)",
		"FOREIGN KEY (supplier_id) REFERENCES suppliers(id) ON DELETE SET NULL",
		"'personal_withdrawal'",
		"DROP TABLE IF EXISTS transactions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEntitiesMigrationContainsDebtGuards(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_entities.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no entities migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS members",
		"CREATE TABLE IF NOT EXISTS customers",
		"CREATE TABLE IF NOT EXISTS suppliers",
		"CREATE TABLE IF NOT EXISTS employees",
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (total_debt_cents >= 0)",
		"CHECK (quantity >= 0)",
		"CHECK (status IN ('active', 'frozen'))",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}
