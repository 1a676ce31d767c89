package database

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the full, ordered schema history. Compiled in rather than
// read from disk so a deployed binary cannot drift from its schema.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_documents",
		SQL: `
			CREATE TABLE IF NOT EXISTS documents (
				id TEXT PRIMARY KEY,
				file_name TEXT NOT NULL,
				file_type TEXT NOT NULL,
				document_type TEXT NOT NULL DEFAULT 'unknown',
				status TEXT NOT NULL DEFAULT 'processing',
				error_message TEXT,
				document_date DATETIME,
				issuer TEXT,
				document_number TEXT,
				total_amount REAL,
				vat_amount REAL,
				net_amount REAL,
				original_currency TEXT,
				total_amount_chf REAL,
				vat_amount_chf REAL,
				net_amount_chf REAL,
				expense_category TEXT,
				uploaded_at DATETIME NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		Version: 2,
		Name:    "index_documents_uploaded_at",
		SQL: `
			CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at
				ON documents (uploaded_at DESC);
		`,
	},
}

// Migrator handles database migrations
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// createMigrationsTable creates the migrations tracking table
func (m *Migrator) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := m.db.Exec(query)
	return err
}

// getAppliedMigrations returns the list of applied migration versions
func (m *Migrator) getAppliedMigrations() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// RunMigrations applies all pending migrations in version order.
func (m *Migrator) RunMigrations() error {
	m.logger.Info("Starting database migrations")

	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	pending := make([]Migration, 0, len(migrations))
	for _, mig := range migrations {
		if !applied[mig.Version] {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Version < pending[j].Version
	})

	for _, mig := range pending {
		if err := m.apply(mig); err != nil {
			return err
		}
	}

	m.logger.Info("Database migrations complete",
		zap.Int("applied", len(pending)),
		zap.Int("total", len(migrations)))
	return nil
}

func (m *Migrator) apply(mig Migration) error {
	m.logger.Info("Applying migration",
		zap.Int("version", mig.Version),
		zap.String("name", mig.Name))

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", mig.Version, err)
	}

	if _, err := tx.Exec(mig.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d (%s) failed: %w", mig.Version, mig.Name, err)
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		mig.Version, mig.Name,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", mig.Version, err)
	}
	return nil
}
