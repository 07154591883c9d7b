package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"clipforge/internal/config"
	"clipforge/internal/editing"
	"clipforge/internal/services"
)

// Store persists projects in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const timeFormat = time.RFC3339Nano

// Open creates or opens the project database for the given configuration.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	return OpenPath(ctx, cfg.DatabasePath())
}

// OpenPath creates or opens the project database at an explicit location.
func OpenPath(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewProject inserts a draft project and returns it.
func (s *Store) NewProject(ctx context.Context, title string, input Input) (*Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "new_project", "title must not be empty", nil)
	}
	if _, ok := ParseInputKind(string(input.Kind)); !ok {
		return nil, services.Wrap(services.ErrValidation, "store", "new_project",
			fmt.Sprintf("unknown input kind %q", input.Kind), nil)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "new_project", "input content must not be empty", nil)
	}

	now := time.Now().UTC()
	project := &Project{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    StatusDraft,
		Input:     input,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, title, status, input_kind, input_content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Title, string(project.Status),
		string(project.Input.Kind), project.Input.Content,
		now.Format(timeFormat), now.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

// GetByID loads one project.
func (s *Store) GetByID(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM projects WHERE id = ?", id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get_project", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", id, err)
	}
	return project, nil
}

// Update persists the mutable fields of a project and bumps its update time.
func (s *Store) Update(ctx context.Context, project *Project) error {
	if project == nil || project.ID == "" {
		return services.Wrap(services.ErrValidation, "store", "update_project", "project id required", nil)
	}

	editingJSON, err := marshalEditing(project.EditingData)
	if err != nil {
		return err
	}

	project.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET title = ?, status = ?, video_path = ?, thumbnail_path = ?,
		    duration_seconds = ?, error_message = ?, editing_json = ?, updated_at = ?
		WHERE id = ?`,
		project.Title, string(project.Status),
		nullableString(outputVideo(project.Output)),
		nullableString(outputThumbnail(project.Output)),
		nullableFloat(outputDuration(project.Output)),
		nullableString(project.ErrorMessage),
		nullableString(editingJSON),
		project.UpdatedAt.Format(timeFormat),
		project.ID)
	if err != nil {
		return fmt.Errorf("update project %s: %w", project.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project %s: %w", project.ID, err)
	}
	if rows == 0 {
		return services.Wrap(services.ErrNotFound, "store", "update_project", project.ID, nil)
	}
	return nil
}

// List returns projects ordered most recent first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Project, error) {
	query := selectColumns + " FROM projects"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// ResetStuckProcessing marks projects left in processing by an unclean
// shutdown as failed so they become retryable. It returns the number reset.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET status = ?, error_message = ?, video_path = NULL,
		    thumbnail_path = NULL, duration_seconds = NULL, editing_json = NULL,
		    updated_at = ?
		WHERE status = ?`,
		string(StatusFailed), "generation interrupted by shutdown",
		time.Now().UTC().Format(timeFormat), string(StatusProcessing))
	if err != nil {
		return 0, fmt.Errorf("reset stuck projects: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset stuck projects: %w", err)
	}
	return rows, nil
}

// Clear removes projects in the given statuses and returns the number deleted.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM projects WHERE status IN ("+makePlaceholders(len(statuses))+")", args...)
	if err != nil {
		return 0, fmt.Errorf("clear projects: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear projects: %w", err)
	}
	return rows, nil
}

// Stats returns the number of projects per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM projects GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for _, status := range allStatuses {
		stats[status] = 0
	}
	for rows.Next() {
		var raw string
		var count int
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		if status, ok := ParseStatus(raw); ok {
			stats[status] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

// Health verifies the database responds.
func (s *Store) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, title, status, input_kind, input_content,
	video_path, thumbnail_path, duration_seconds, error_message, editing_json,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var (
		project       Project
		status        string
		inputKind     string
		videoPath     sql.NullString
		thumbnailPath sql.NullString
		duration      sql.NullFloat64
		errorMessage  sql.NullString
		editingJSON   sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := row.Scan(&project.ID, &project.Title, &status, &inputKind,
		&project.Input.Content, &videoPath, &thumbnailPath, &duration,
		&errorMessage, &editingJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q for project %s", status, project.ID)
	}
	project.Status = parsed

	kind, ok := ParseInputKind(inputKind)
	if !ok {
		return nil, fmt.Errorf("unknown input kind %q for project %s", inputKind, project.ID)
	}
	project.Input.Kind = kind

	if videoPath.Valid && videoPath.String != "" {
		project.Output = &Output{
			VideoPath:     videoPath.String,
			ThumbnailPath: thumbnailPath.String,
			Duration:      duration.Float64,
		}
	}
	project.ErrorMessage = errorMessage.String

	if editingJSON.Valid && editingJSON.String != "" {
		data := editing.New()
		if err := json.Unmarshal([]byte(editingJSON.String), data); err != nil {
			return nil, fmt.Errorf("decode editing data for project %s: %w", project.ID, err)
		}
		project.EditingData = data
	}

	if project.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for project %s: %w", project.ID, err)
	}
	if project.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for project %s: %w", project.ID, err)
	}

	return &project, nil
}

func marshalEditing(data *editing.Data) (string, error) {
	if data == nil {
		return "", nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode editing data: %w", err)
	}
	return string(encoded), nil
}

func outputVideo(output *Output) string {
	if output == nil {
		return ""
	}
	return output.VideoPath
}

func outputThumbnail(output *Output) string {
	if output == nil {
		return ""
	}
	return output.ThumbnailPath
}

func outputDuration(output *Output) float64 {
	if output == nil {
		return 0
	}
	return output.Duration
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value float64) any {
	if value == 0 {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat("?, ", count-1) + "?"
}

func parseTimeString(value string) (time.Time, error) {
	for _, layout := range []string{timeFormat, time.RFC3339, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}
