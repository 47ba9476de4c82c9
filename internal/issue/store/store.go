package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/caldervale/ledgerline/internal/issue"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectIssueColumns = `
	s.id, s.invoice_id, s.vendor_name, s.scope, s.type, s.status, s.description,
	s.resolution_type, s.resolution_status, s.resolved_at, s.created_at, s.updated_at
`

func scanIssue(s scanner) (*issue.Issue, error) {
	var (
		iss            issue.Issue
		scopeStr       string
		typeStr        string
		statusStr      string
		resolutionType sql.NullString
	)

	if err := s.Scan(
		&iss.ID, &iss.InvoiceID, &iss.VendorName, &scopeStr, &typeStr, &statusStr, &iss.Description,
		&resolutionType, &iss.ResolutionStatus, &iss.ResolvedAt, &iss.CreatedAt, &iss.UpdatedAt,
	); err != nil {
		return nil, err
	}

	iss.Scope = issue.Scope(scopeStr)
	iss.Type = issue.Type(typeStr)
	iss.Status = issue.Status(statusStr)
	iss.ResolutionType = issue.ResolutionType(resolutionType.String)

	return &iss, nil
}

func (s *Store) CreateIssue(ctx context.Context, iss *issue.Issue) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO issues (invoice_id, vendor_name, scope, type, status, description,
			resolution_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		iss.InvoiceID, iss.VendorName, iss.Scope, iss.Type, iss.Status, iss.Description,
		iss.ResolutionStatus,
	).Scan(&iss.ID, &iss.CreatedAt, &iss.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating issue: %w", err)
	}

	for _, lineID := range iss.LineItemIDs {
		if _, err := dbTx.ExecContext(ctx,
			`INSERT INTO issue_line_items (issue_id, line_item_id) VALUES ($1, $2)`,
			iss.ID, lineID,
		); err != nil {
			return fmt.Errorf("linking line item: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing issue: %w", err)
	}

	return nil
}

func (s *Store) GetIssue(ctx context.Context, id uuid.UUID) (*issue.Issue, error) {
	query := `SELECT ` + selectIssueColumns + ` FROM issues s WHERE s.id = $1`

	iss, err := scanIssue(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, issue.ErrNotFound
		}

		return nil, fmt.Errorf("getting issue: %w", err)
	}

	if err := s.loadLineItems(ctx, iss); err != nil {
		return nil, err
	}

	if err := s.loadCommunications(ctx, iss); err != nil {
		return nil, err
	}

	return iss, nil
}

func (s *Store) loadLineItems(ctx context.Context, iss *issue.Issue) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT line_item_id FROM issue_line_items WHERE issue_id = $1`, iss.ID)
	if err != nil {
		return fmt.Errorf("loading issue line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lineID uuid.UUID
		if err := rows.Scan(&lineID); err != nil {
			return fmt.Errorf("scanning issue line item: %w", err)
		}

		iss.LineItemIDs = append(iss.LineItemIDs, lineID)
	}

	return rows.Err()
}

func (s *Store) loadCommunications(ctx context.Context, iss *issue.Issue) error {
	query := `
		SELECT id, issue_id, seq, kind, content, recipient, created_at
		FROM issue_communications
		WHERE issue_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, iss.ID)
	if err != nil {
		return fmt.Errorf("loading communications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			comm      issue.Communication
			kindStr   string
			recipient sql.NullString
		)

		if err := rows.Scan(&comm.ID, &comm.IssueID, &comm.Seq, &kindStr, &comm.Content, &recipient, &comm.CreatedAt); err != nil {
			return fmt.Errorf("scanning communication: %w", err)
		}

		comm.Kind = issue.CommKind(kindStr)
		comm.Recipient = recipient.String
		iss.Communications = append(iss.Communications, comm)
	}

	return rows.Err()
}

func (s *Store) ListIssues(ctx context.Context, filter issue.ListFilter) ([]*issue.Issue, error) {
	query := `SELECT ` + selectIssueColumns + ` FROM issues s WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.InvoiceID != nil {
		query += fmt.Sprintf(" AND s.invoice_id = $%d", argIdx)

		args = append(args, *filter.InvoiceID)
		argIdx++
	}

	if filter.VendorName != nil {
		query += fmt.Sprintf(" AND s.vendor_name = $%d", argIdx)

		args = append(args, *filter.VendorName)
		argIdx++
	}

	if filter.Scope != nil {
		query += fmt.Sprintf(" AND s.scope = $%d", argIdx)

		args = append(args, *filter.Scope)
		argIdx++
	}

	if filter.Unresolved {
		statuses := []string{string(issue.StatusOpen), string(issue.StatusReported)}
		query += fmt.Sprintf(" AND s.status IN ($%d, $%d)", argIdx, argIdx+1)

		args = append(args, statuses[0], statuses[1])
		argIdx += 2
	}

	query += " ORDER BY s.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	defer rows.Close()

	var issues []*issue.Issue

	for rows.Next() {
		iss, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}

		issues = append(issues, iss)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}

	return issues, nil
}

// UpdateIssue persists lifecycle fields, guarded by the expected prior status
// so concurrent workflow actions cannot clobber each other.
func (s *Store) UpdateIssue(ctx context.Context, iss *issue.Issue, expected issue.Status) error {
	query := `
		UPDATE issues
		SET status = $1, resolution_type = $2, resolution_status = $3, resolved_at = $4, updated_at = NOW()
		WHERE id = $5 AND status = $6
	`

	var resolutionType sql.NullString
	if iss.ResolutionType != "" {
		resolutionType = sql.NullString{String: string(iss.ResolutionType), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, query,
		iss.Status, resolutionType, iss.ResolutionStatus, iss.ResolvedAt, iss.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("updating issue: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return issue.ErrNotFound
	}

	return nil
}

// commLockKey serializes concurrent appends to one issue's audit log.
func commLockKey(issueID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("issue_communications"))
	h.Write(issueID[:])

	return int64(h.Sum64())
}

// AppendCommunication assigns the next per-issue sequence number inside the
// insert. Two concurrent appends would read the same MAX(seq) and trip the
// unique constraint, so the transaction takes a per-issue advisory lock first.
func (s *Store) AppendCommunication(ctx context.Context, comm *issue.Communication) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning communication tx: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", commLockKey(comm.IssueID)); err != nil {
		return fmt.Errorf("acquiring communication lock: %w", err)
	}

	query := `
		INSERT INTO issue_communications (issue_id, seq, kind, content, recipient, created_at)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, NOW()
		FROM issue_communications
		WHERE issue_id = $1
		RETURNING id, seq, created_at
	`

	var recipient sql.NullString
	if comm.Recipient != "" {
		recipient = sql.NullString{String: comm.Recipient, Valid: true}
	}

	err = dbTx.QueryRowContext(ctx, query, comm.IssueID, comm.Kind, comm.Content, recipient).
		Scan(&comm.ID, &comm.Seq, &comm.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending communication: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing communication: %w", err)
	}

	return nil
}
