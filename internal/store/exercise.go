package store

import (
	"database/sql"
	"errors"
	"time"
)

// Exercise is one exercise of a workout routine.
type Exercise struct {
	ID             string    `json:"id"`
	Name           string    `json:"exercise_name"`
	TargetMuscles  string    `json:"target_muscles"`
	Sets           string    `json:"sets"`
	RepsOrDuration string    `json:"reps_or_duration"`
	RestPeriod     string    `json:"rest_period"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ExerciseRepository provides CRUD operations for exercises.
type ExerciseRepository struct {
	db *sql.DB
}

// Exercises returns the exercise repository for this store.
func (s *Store) Exercises() *ExerciseRepository {
	return &ExerciseRepository{db: s.db}
}

const exerciseColumns = `id, name, target_muscles, sets, reps_or_duration, rest_period, notes, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanExercise(row scanner) (*Exercise, error) {
	e := &Exercise{}
	err := row.Scan(&e.ID, &e.Name, &e.TargetMuscles, &e.Sets, &e.RepsOrDuration,
		&e.RestPeriod, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a new exercise. An empty ID is filled with a fresh UUID.
func (r *ExerciseRepository) Create(e *Exercise) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.Sets == "" {
		e.Sets = "1"
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO exercises (`+exerciseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.TargetMuscles, e.Sets, e.RepsOrDuration, e.RestPeriod, e.Notes, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

// GetByID retrieves an exercise by its ID.
func (r *ExerciseRepository) GetByID(id string) (*Exercise, error) {
	e, err := scanExercise(r.db.QueryRow(
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List retrieves all exercises ordered by name.
func (r *ExerciseRepository) List() ([]*Exercise, error) {
	rows, err := r.db.Query(`SELECT ` + exerciseColumns + ` FROM exercises ORDER BY name, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []*Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exercises, nil
}

// Update updates an existing exercise.
func (r *ExerciseRepository) Update(e *Exercise) error {
	e.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE exercises SET name = ?, target_muscles = ?, sets = ?, reps_or_duration = ?,
		 rest_period = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		e.Name, e.TargetMuscles, e.Sets, e.RepsOrDuration, e.RestPeriod, e.Notes, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes an exercise and its log entries.
func (r *ExerciseRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
