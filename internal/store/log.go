package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the format of daily log dates.
const DateLayout = "2006-01-02"

// Status is the completion status of a logged exercise.
type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusFull    Status = "full"
)

// DailyLog groups the exercises performed on one calendar day.
type DailyLog struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// LoggedExercise tracks progress on one exercise within a daily log.
type LoggedExercise struct {
	ID            string    `json:"id"`
	LogID         string    `json:"log_id"`
	ExerciseID    string    `json:"exercise_id"`
	ExerciseName  string    `json:"exercise_name"`
	TargetSets    string    `json:"target_sets"`
	TargetReps    string    `json:"target_reps"`
	SetsCompleted int       `json:"actual_sets_completed"`
	Status        Status    `json:"completed_status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SetRecord is a single completed set.
type SetRecord struct {
	ID          string    `json:"id"`
	EntryID     string    `json:"entry_id"`
	SetNumber   int       `json:"set_number"`
	Reps        int       `json:"reps"`
	Source      string    `json:"source"`
	CompletedAt time.Time `json:"completed_at"`
}

// LogRepository provides operations on daily logs, their entries and set records.
type LogRepository struct {
	db *sql.DB
}

// Logs returns the log repository for this store.
func (s *Store) Logs() *LogRepository {
	return &LogRepository{db: s.db}
}

// GetByDate retrieves the log for a date formatted with DateLayout.
func (r *LogRepository) GetByDate(date string) (*DailyLog, error) {
	l := &DailyLog{}
	err := r.db.QueryRow(
		`SELECT id, date, created_at FROM daily_logs WHERE date = ?`, date,
	).Scan(&l.ID, &l.Date, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// GetOrCreate returns the log for date, creating it if needed.
func (r *LogRepository) GetOrCreate(date string) (*DailyLog, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	_, err := r.db.Exec(
		`INSERT INTO daily_logs (id, date, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(date) DO NOTHING`,
		newID(), date, time.Now(),
	)
	if err != nil {
		return nil, err
	}
	return r.GetByDate(date)
}

const entryColumns = `id, log_id, exercise_id, exercise_name, target_sets, target_reps, sets_completed, status, updated_at`

func scanEntry(row scanner) (*LoggedExercise, error) {
	e := &LoggedExercise{}
	var status string
	err := row.Scan(&e.ID, &e.LogID, &e.ExerciseID, &e.ExerciseName, &e.TargetSets,
		&e.TargetReps, &e.SetsCompleted, &status, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Status = Status(status)
	return e, nil
}

// AddExercise adds an exercise to a log. Adding the same exercise twice
// returns the existing entry unchanged.
func (r *LogRepository) AddExercise(logID string, ex *Exercise) (*LoggedExercise, error) {
	_, err := r.db.Exec(
		`INSERT INTO logged_exercises (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT(log_id, exercise_id) DO NOTHING`,
		newID(), logID, ex.ID, ex.Name, ex.Sets, ex.RepsOrDuration, string(StatusPending), time.Now(),
	)
	if err != nil {
		return nil, err
	}
	return r.GetEntry(logID, ex.ID)
}

// GetEntry retrieves the entry for an exercise within a log.
func (r *LogRepository) GetEntry(logID, exerciseID string) (*LoggedExercise, error) {
	e, err := scanEntry(r.db.QueryRow(
		`SELECT `+entryColumns+` FROM logged_exercises WHERE log_id = ? AND exercise_id = ?`,
		logID, exerciseID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListEntries retrieves all entries of a log.
func (r *LogRepository) ListEntries(logID string) ([]*LoggedExercise, error) {
	rows, err := r.db.Query(
		`SELECT `+entryColumns+` FROM logged_exercises WHERE log_id = ? ORDER BY exercise_name`,
		logID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*LoggedExercise
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// RecordSet stores a completed set and bumps the entry's set count in one
// transaction. statusFor maps the new set count to the entry status.
func (r *LogRepository) RecordSet(entryID string, reps int, source string, statusFor func(setsCompleted int) Status) (*LoggedExercise, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var completed int
	err = tx.QueryRow(`SELECT sets_completed FROM logged_exercises WHERE id = ?`, entryID).Scan(&completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	completed++
	now := time.Now()

	_, err = tx.Exec(
		`INSERT INTO set_records (id, entry_id, set_number, reps, source, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		newID(), entryID, completed, reps, source, now,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		`UPDATE logged_exercises SET sets_completed = ?, status = ?, updated_at = ? WHERE id = ?`,
		completed, string(statusFor(completed)), now, entryID,
	)
	if err != nil {
		return nil, err
	}

	e, err := scanEntry(tx.QueryRow(`SELECT `+entryColumns+` FROM logged_exercises WHERE id = ?`, entryID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return e, nil
}

// ListSets retrieves the set records of an entry in order.
func (r *LogRepository) ListSets(entryID string) ([]SetRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, entry_id, set_number, reps, source, completed_at
		 FROM set_records WHERE entry_id = ? ORDER BY set_number`,
		entryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []SetRecord
	for rows.Next() {
		var s SetRecord
		if err := rows.Scan(&s.ID, &s.EntryID, &s.SetNumber, &s.Reps, &s.Source, &s.CompletedAt); err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sets, nil
}

// RemoveExercise deletes an entry and its set records from a log.
func (r *LogRepository) RemoveExercise(logID, exerciseID string) error {
	result, err := r.db.Exec(
		`DELETE FROM logged_exercises WHERE log_id = ? AND exercise_id = ?`, logID, exerciseID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
