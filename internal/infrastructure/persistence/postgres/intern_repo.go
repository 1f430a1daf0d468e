package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/intern-hub/progress-ledger/internal/domain/intern"
	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERN REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// InternRepository implements intern.Repository for PostgreSQL.
type InternRepository struct {
	conn *Connection
}

// NewInternRepository creates a new InternRepository.
func NewInternRepository(conn *Connection) *InternRepository {
	return &InternRepository{conn: conn}
}

const internColumns = `id, intern_code, name, email, department, phone, is_active, start_date, end_date, created_at`

// Create inserts a new intern. Unique violations on code or email map to
// shared.ErrInternDuplicate.
func (r *InternRepository) Create(ctx context.Context, in *intern.Intern) error {
	query := `
		INSERT INTO interns (` + internColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var phone *string
	if in.Phone != "" {
		phone = &in.Phone
	}

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		in.ID,
		in.Code.String(),
		in.Name,
		in.Email,
		in.Department,
		phone,
		in.IsActive,
		in.StartDate,
		in.EndDate,
		in.CreatedAt,
	)
	if IsUniqueViolation(err) {
		return shared.ErrInternDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create intern: %w", err)
	}
	return nil
}

// GetByID returns the intern with the given system ID.
func (r *InternRepository) GetByID(ctx context.Context, id string) (*intern.Intern, error) {
	if !shared.IsValidID(id) {
		return nil, shared.ErrInternNotFound
	}
	query := `SELECT ` + internColumns + ` FROM interns WHERE id = $1`
	return scanIntern(r.conn.querier(ctx).QueryRow(ctx, query, id))
}

// GetActiveByCode resolves a front-desk code to an active intern.
func (r *InternRepository) GetActiveByCode(ctx context.Context, code shared.InternCode) (*intern.Intern, error) {
	query := `SELECT ` + internColumns + ` FROM interns WHERE intern_code = $1 AND is_active`
	return scanIntern(r.conn.querier(ctx).QueryRow(ctx, query, code.String()))
}

// SetActive toggles is_active and returns the updated row.
func (r *InternRepository) SetActive(ctx context.Context, id string, active bool) (*intern.Intern, error) {
	if !shared.IsValidID(id) {
		return nil, shared.ErrInternNotFound
	}
	query := `UPDATE interns SET is_active = $2 WHERE id = $1 RETURNING ` + internColumns
	return scanIntern(r.conn.querier(ctx).QueryRow(ctx, query, id, active))
}

// List returns interns ordered by code.
func (r *InternRepository) List(ctx context.Context, filter intern.ListFilter) ([]*intern.Intern, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conds = append(conds, fmt.Sprintf("department = $%d", len(args)))
	}

	query := `SELECT ` + internColumns + ` FROM interns`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY intern_code"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.conn.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list interns: %w", err)
	}
	defer rows.Close()

	var out []*intern.Intern
	for rows.Next() {
		in, err := scanIntern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// CountActive returns the number of active interns.
func (r *InternRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.conn.querier(ctx).QueryRow(ctx, `SELECT count(*) FROM interns WHERE is_active`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active interns: %w", err)
	}
	return n, nil
}

func scanIntern(row rowScanner) (*intern.Intern, error) {
	var (
		in    intern.Intern
		code  string
		phone *string
	)
	err := row.Scan(
		&in.ID,
		&code,
		&in.Name,
		&in.Email,
		&in.Department,
		&phone,
		&in.IsActive,
		&in.StartDate,
		&in.EndDate,
		&in.CreatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrInternNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan intern: %w", err)
	}

	in.Code = shared.InternCode(code)
	if phone != nil {
		in.Phone = *phone
	}
	return &in, nil
}
