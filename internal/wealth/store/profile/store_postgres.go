package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"wealthgate/internal/wealth/models"
	"wealthgate/pkg/domain"
)

// PostgresStore keeps each profile as a JSONB document in wealth_profiles.
// Scalar columns duplicate the fields that are queried or constrained.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Find(ctx context.Context, ownerID domain.OwnerID) (*models.WealthProfile, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT document
		FROM wealth_profiles
		WHERE owner_id = $1
	`, ownerID.String()).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find wealth profile: %w", err)
	}
	var p models.WealthProfile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode wealth profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Insert(ctx context.Context, p *models.WealthProfile) error {
	if err := checkProfile(p); err != nil {
		return err
	}
	args, err := rowArgs(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wealth_profiles
			(owner_id, owner_name, estimated_net_worth, confidence, confidence_score, document, generated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert wealth profile %s: %w", p.OwnerID, ErrConflict)
		}
		return fmt.Errorf("insert wealth profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, ownerID domain.OwnerID, p *models.WealthProfile) error {
	if err := checkUpdate(ownerID, p); err != nil {
		return err
	}
	args, err := rowArgs(p)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE wealth_profiles
		SET owner_name = $2, estimated_net_worth = $3, confidence = $4, confidence_score = $5,
			document = $6, generated_at = $7, updated_at = $8
		WHERE owner_id = $1
	`, args...)
	if err != nil {
		return fmt.Errorf("update wealth profile: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update wealth profile rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, p *models.WealthProfile) error {
	if err := checkProfile(p); err != nil {
		return err
	}
	args, err := rowArgs(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wealth_profiles
			(owner_id, owner_name, estimated_net_worth, confidence, confidence_score, document, generated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id) DO UPDATE
		SET owner_name = EXCLUDED.owner_name,
			estimated_net_worth = EXCLUDED.estimated_net_worth,
			confidence = EXCLUDED.confidence,
			confidence_score = EXCLUDED.confidence_score,
			document = EXCLUDED.document,
			generated_at = EXCLUDED.generated_at,
			updated_at = EXCLUDED.updated_at
	`, args...)
	if err != nil {
		return fmt.Errorf("upsert wealth profile: %w", err)
	}
	return nil
}

func rowArgs(p *models.WealthProfile) ([]any, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode wealth profile: %w", err)
	}
	return []any{
		p.OwnerID.String(),
		p.OwnerName,
		p.EstimatedNetWorth,
		string(p.Confidence),
		p.ConfidenceScore,
		doc,
		p.GeneratedAt,
		p.UpdatedAt,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
