package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/assistant-engine/internal/model"
)

const taskColumns = `id, user_id, title, description, due_date, priority,
	completed, completed_at, created_at, updated_at`

// GetTasks returns every task of userID: incomplete tasks by due date
// (undated last), then completed tasks by completion time, newest first.
func (s *SQLiteStore) GetTasks(ctx context.Context, userID string) ([]model.Task, error) {
	tasks := []model.Task{}
	err := s.db.SelectContext(ctx, &tasks, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ?
		ORDER BY completed ASC,
			CASE WHEN completed = 0 THEN due_date IS NULL END,
			CASE WHEN completed = 0 THEN due_date END ASC,
			completed_at DESC,
			updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks for %s: %w", userID, err)
	}
	return tasks, nil
}

// GetTaskByID retrieves a single task.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var tasks []model.Task
	err := s.db.SelectContext(ctx, &tasks,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return &tasks[0], nil
}

// CreateTask inserts a new task. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return model.Task{}, fmt.Errorf("task title must not be empty")
	}
	if task.Priority != "" && !task.Priority.Valid() {
		return model.Task{}, fmt.Errorf("invalid task priority %q", task.Priority)
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	now := dbTime(s.now())
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	if task.Completed && task.CompletedAt == nil {
		task.CompletedAt = &now
	}
	task.CreatedAt = dbTime(task.CreatedAt)
	task.UpdatedAt = dbTime(task.UpdatedAt)
	task.DueDate = dbTimePtr(task.DueDate)
	task.CompletedAt = dbTimePtr(task.CompletedAt)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.UserID, task.Title, task.Description, task.DueDate, string(task.Priority),
		boolToInt(task.Completed), task.CompletedAt, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return task, nil
}

// CompleteTask marks a task as completed now.
func (s *SQLiteStore) CompleteTask(ctx context.Context, id string) error {
	now := dbTime(s.now())
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET completed = 1, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("completing task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}
