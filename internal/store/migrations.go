package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Exercises table - routine exercises with free-text targets
		`CREATE TABLE IF NOT EXISTS exercises (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			target_muscles TEXT NOT NULL DEFAULT '',
			sets TEXT NOT NULL DEFAULT '1',
			reps_or_duration TEXT NOT NULL DEFAULT '',
			rest_period TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Daily logs table - one row per workout day
		`CREATE TABLE IF NOT EXISTS daily_logs (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Logged exercises table - per-day progress on an exercise
		`CREATE TABLE IF NOT EXISTS logged_exercises (
			id TEXT PRIMARY KEY,
			log_id TEXT NOT NULL REFERENCES daily_logs(id) ON DELETE CASCADE,
			exercise_id TEXT NOT NULL REFERENCES exercises(id) ON DELETE CASCADE,
			exercise_name TEXT NOT NULL,
			target_sets TEXT NOT NULL DEFAULT '1',
			target_reps TEXT NOT NULL DEFAULT '',
			sets_completed INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'partial', 'full')),
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(log_id, exercise_id)
		)`,

		// Set records table - one row per completed set
		`CREATE TABLE IF NOT EXISTS set_records (
			id TEXT PRIMARY KEY,
			entry_id TEXT NOT NULL REFERENCES logged_exercises(id) ON DELETE CASCADE,
			set_number INTEGER NOT NULL,
			reps INTEGER NOT NULL,
			source TEXT NOT NULL DEFAULT 'manual',
			completed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_logged_exercises_log_id ON logged_exercises(log_id)`,
		`CREATE INDEX IF NOT EXISTS idx_set_records_entry_id ON set_records(entry_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
