// internal/adapters/db/inspection_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
)

// querier is satisfied by both the pool and a transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// inspectionColumns is the fixed join shape read by every inspection query
var inspectionColumns = []string{
	"k.id", "k.datum_toewijzing", "k.datum_plaatsbezoek", "k.status", "k.type",
	"k.prijs", "k.opmerkingen", "k.created_by", "k.created_at", "k.updated_at",
	"a.id", "a.straatnaam", "a.nummer", "a.postcode", "a.gemeente",
	"kl.id", "kl.voornaam", "kl.familienaam",
	"COALESCE(kl.emailadres, '')", "COALESCE(kl.telefoonnummer, '')",
	"COALESCE(o.naam, '')",
}

func selectInspections() squirrel.SelectBuilder {
	return psql.Select(inspectionColumns...).
		From("keuring k").
		Join("adres a ON a.id = k.adres_id").
		Join("klant kl ON kl.id = a.klant_id").
		LeftJoin("gebruiker g ON g.id = k.created_by").
		LeftJoin("onderneming o ON o.id = g.onderneming_id")
}

// InspectionRepository implements ports.InspectionRepository
type InspectionRepository struct {
	db     *Database
	logger *slog.Logger
}

var _ ports.InspectionRepository = (*InspectionRepository)(nil)

// NewInspectionRepository creates a new inspection repository
func NewInspectionRepository(db *Database, logger *slog.Logger) *InspectionRepository {
	return &InspectionRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "inspection")),
	}
}

// List returns all inspections, newest assignment first
func (r *InspectionRepository) List(ctx context.Context) ([]domain.Inspection, error) {
	query, args, err := selectInspections().
		OrderBy("k.datum_toewijzing DESC", "k.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inspections: %w", err)
	}
	defer rows.Close()

	inspections := make([]domain.Inspection, 0)
	for rows.Next() {
		insp, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection: %w", err)
		}
		inspections = append(inspections, *insp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inspections: %w", err)
	}

	r.logger.DebugContext(ctx, "inspections listed", slog.Int("count", len(inspections)))
	return inspections, nil
}

// FindByID returns domain.ErrInspectionNotFound when id does not exist
func (r *InspectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Inspection, error) {
	return findInspection(ctx, r.db.Pool(), id)
}

func findInspection(ctx context.Context, q querier, id uuid.UUID) (*domain.Inspection, error) {
	query, args, err := selectInspections().Where(squirrel.Eq{"k.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find query: %w", err)
	}

	insp, err := scanInspection(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInspectionNotFound
		}
		return nil, fmt.Errorf("failed to find inspection %s: %w", id, err)
	}
	return insp, nil
}

// Create stores a new inspection. The client and address are reused when
// an identical one exists, so repeated inspections of one property share
// a single adres row.
func (r *InspectionRepository) Create(ctx context.Context, in domain.CreateInspectionInput) (*domain.Inspection, error) {
	var created *domain.Inspection

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		clientID, err := upsertClient(ctx, tx, in)
		if err != nil {
			return err
		}

		addressID, err := upsertAddress(ctx, tx, in, clientID)
		if err != nil {
			return err
		}

		var createdBy any
		if in.CreatedBy != uuid.Nil {
			createdBy = in.CreatedBy
		}

		query, args, err := psql.Insert("keuring").
			Columns("datum_toewijzing", "datum_plaatsbezoek", "status", "type",
				"prijs", "opmerkingen", "adres_id", "created_by").
			Values(in.AssignedAt, in.SiteVisitAt, string(in.Status), string(in.Type),
				priceArg(in.Price), in.Notes, addressID, createdBy).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert: %w", err)
		}

		var id uuid.UUID
		if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert inspection: %w", err)
		}

		created, err = findInspection(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "inspection created",
		slog.String("id", created.ID.String()),
		slog.String("type", string(created.Type)))
	return created, nil
}

// Count returns the number of inspections
func (r *InspectionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM keuring").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count inspections: %w", err)
	}
	return count, nil
}

func upsertClient(ctx context.Context, tx pgx.Tx, in domain.CreateInspectionInput) (uuid.UUID, error) {
	query, args, err := psql.Select("id").From("klant").
		Where(squirrel.Eq{
			"voornaam":    in.FirstName,
			"familienaam": in.LastName,
		}).
		Where("COALESCE(emailadres, '') = ?", in.Email).
		Limit(1).
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build client lookup: %w", err)
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, query, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to look up client: %w", err)
	}

	query, args, err = psql.Insert("klant").
		Columns("voornaam", "familienaam", "emailadres", "telefoonnummer").
		Values(in.FirstName, in.LastName, nullString(in.Email), nullString(in.Phone)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build client insert: %w", err)
	}
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert client: %w", err)
	}
	return id, nil
}

func upsertAddress(ctx context.Context, tx pgx.Tx, in domain.CreateInspectionInput, clientID uuid.UUID) (uuid.UUID, error) {
	query, args, err := psql.Select("id").From("adres").
		Where(squirrel.Eq{
			"straatnaam": in.Street,
			"nummer":     in.Number,
			"postcode":   in.PostalCode,
			"gemeente":   in.Municipality,
			"klant_id":   clientID,
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build address lookup: %w", err)
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, query, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to look up address: %w", err)
	}

	query, args, err = psql.Insert("adres").
		Columns("straatnaam", "nummer", "postcode", "gemeente", "klant_id").
		Values(in.Street, in.Number, in.PostalCode, in.Municipality, clientID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build address insert: %w", err)
	}
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert address: %w", err)
	}
	return id, nil
}

func scanInspection(row pgx.Row) (*domain.Inspection, error) {
	var (
		insp      domain.Inspection
		status    string
		typ       string
		prijs     pgtype.Numeric
		createdBy *uuid.UUID
	)

	err := row.Scan(
		&insp.ID, &insp.AssignedAt, &insp.SiteVisitAt, &status, &typ,
		&prijs, &insp.Notes, &createdBy, &insp.CreatedAt, &insp.UpdatedAt,
		&insp.Address.ID, &insp.Address.Street, &insp.Address.Number,
		&insp.Address.PostalCode, &insp.Address.Municipality,
		&insp.Address.Client.ID, &insp.Address.Client.FirstName, &insp.Address.Client.LastName,
		&insp.Address.Client.Email, &insp.Address.Client.Phone,
		&insp.CompanyName,
	)
	if err != nil {
		return nil, err
	}

	insp.Status = domain.InspectionStatus(status)
	insp.Type = domain.InspectionType(typ)
	insp.Price = numericToDecimal(prijs)
	if createdBy != nil {
		insp.CreatedBy = *createdBy
	}
	return &insp, nil
}

func numericToDecimal(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}

func priceArg(p *decimal.Decimal) any {
	if p == nil {
		return nil
	}
	return p.String()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
