package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrApplicationNotFound = errors.New("loan application not found")

// Application is one stored loan application together with its latest
// decision. This is portal-side bookkeeping; the orchestration engine itself
// never reads or writes it.
type Application struct {
	ID          string
	Bank        string
	Login       string
	FullName    string
	Status      string
	Message     string
	AgreementID *string
	CreatedAt   time.Time
	DecidedAt   *time.Time
}

type ApplicationRepository struct {
	db *pgxpool.Pool
}

func NewApplicationRepository(db *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *Application) error {
	query := `
		INSERT INTO loan_applications (
			id, bank, login, full_name, status, message, agreement_id, created_at, decided_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		app.ID,
		app.Bank,
		app.Login,
		app.FullName,
		app.Status,
		app.Message,
		app.AgreementID,
		app.CreatedAt,
		app.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan application: %w", err)
	}
	return nil
}

// UpdateDecision records the outcome of a re-run attempt, e.g. after a
// pending consent finally resolved.
func (r *ApplicationRepository) UpdateDecision(ctx context.Context, id, status, message string, agreementID *string, decidedAt time.Time) error {
	query := `
		UPDATE loan_applications
		SET status = $2, message = $3, agreement_id = $4, decided_at = $5
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, status, message, agreementID, decidedAt)
	if err != nil {
		return fmt.Errorf("failed to update loan application %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*Application, error) {
	query := `
		SELECT id, bank, login, full_name, status, message, agreement_id, created_at, decided_at
		FROM loan_applications WHERE id = $1
	`

	row := r.db.QueryRow(ctx, query, id)
	return scanApplication(row)
}

// List returns the most recent applications, newest first.
func (r *ApplicationRepository) List(ctx context.Context, limit int) ([]*Application, error) {
	query := `
		SELECT id, bank, login, full_name, status, message, agreement_id, created_at, decided_at
		FROM loan_applications
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list loan applications: %w", err)
	}
	defer rows.Close()

	var apps []*Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func scanApplication(row pgx.Row) (*Application, error) {
	var app Application
	err := row.Scan(
		&app.ID,
		&app.Bank,
		&app.Login,
		&app.FullName,
		&app.Status,
		&app.Message,
		&app.AgreementID,
		&app.CreatedAt,
		&app.DecidedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan loan application: %w", err)
	}
	return &app, nil
}
