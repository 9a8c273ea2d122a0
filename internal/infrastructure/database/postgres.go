package database

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gavelworks/auction-backend/internal/domain/auction"
	"github.com/gavelworks/auction-backend/internal/domain/errors"
	"github.com/gavelworks/auction-backend/internal/domain/vehicle"
	"github.com/gavelworks/auction-backend/internal/infrastructure/repository"
)

const uniqueViolation = "23505"

// NewPostgresStores wires the three Postgres-backed stores. They implement
// the same versioned-put contract as the in-memory reference backend: the
// UPDATE is gated on `version = incoming - 1`, so a lost race surfaces as a
// version conflict exactly as the memory store reports it.
func NewPostgresStores(pool *pgxpool.Pool, logger *zap.Logger) *repository.Stores {
	return &repository.Stores{
		Auctions: &PostgresAuctionStore{pool: pool, logger: logger},
		Lots:     &PostgresLotStore{pool: pool, logger: logger},
		Vehicles: &PostgresVehicleStore{pool: pool, logger: logger},
	}
}

// PostgresAuctionStore persists auction snapshots as JSONB documents.
type PostgresAuctionStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func (s *PostgresAuctionStore) Add(ctx context.Context, a *auction.Auction) error {
	doc, err := json.Marshal(newAuctionDoc(a))
	if err != nil {
		return fmt.Errorf("marshal auction: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO auctions (id, doc, version, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, doc, int64(a.Version), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewDuplicateError("auction")
		}
		s.logger.Error("auction insert failed", zap.String("auction_id", a.ID.String()), zap.Error(err))
		return errors.NewInternalError("auction insert failed").WithCause(err)
	}
	return nil
}

func (s *PostgresAuctionStore) Get(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM auctions WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("auction")
		}
		return nil, errors.NewInternalError("auction read failed").WithCause(err)
	}

	var doc auctionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewInternalError("auction document corrupt").WithCause(err)
	}
	return doc.toDomain(), nil
}

func (s *PostgresAuctionStore) GetAll(ctx context.Context) ([]*auction.Auction, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM auctions ORDER BY created_at`)
	if err != nil {
		return nil, errors.NewInternalError("auction list failed").WithCause(err)
	}
	defer rows.Close()

	var out []*auction.Auction
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.NewInternalError("auction scan failed").WithCause(err)
		}
		var doc auctionDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.NewInternalError("auction document corrupt").WithCause(err)
		}
		out = append(out, doc.toDomain())
	}
	return out, rows.Err()
}

func (s *PostgresAuctionStore) Update(ctx context.Context, a *auction.Auction) error {
	doc, err := json.Marshal(newAuctionDoc(a))
	if err != nil {
		return fmt.Errorf("marshal auction: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE auctions SET doc = $2, version = $3, updated_at = $4 WHERE id = $1 AND version = $3 - 1`,
		a.ID, doc, int64(a.Version), a.UpdatedAt)
	if err != nil {
		s.logger.Error("auction update failed", zap.String("auction_id", a.ID.String()), zap.Error(err))
		return errors.NewInternalError("auction update failed").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return versionMismatch(ctx, s.pool, "auctions", "auction", a.ID, a.Version)
	}
	return nil
}

// PostgresLotStore persists lot snapshots, including the bid list, as JSONB
// documents keyed by lot id with a denormalized auction_id column.
type PostgresLotStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func (s *PostgresLotStore) Add(ctx context.Context, l *auction.Lot) error {
	doc, err := json.Marshal(newLotDoc(l))
	if err != nil {
		return fmt.Errorf("marshal lot: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lots (id, auction_id, doc, version, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.AuctionID, doc, int64(l.Version), l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewDuplicateError("lot")
		}
		s.logger.Error("lot insert failed", zap.String("lot_id", l.ID.String()), zap.Error(err))
		return errors.NewInternalError("lot insert failed").WithCause(err)
	}
	return nil
}

func (s *PostgresLotStore) Get(ctx context.Context, id uuid.UUID) (*auction.Lot, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM lots WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("lot")
		}
		return nil, errors.NewInternalError("lot read failed").WithCause(err)
	}

	var doc lotDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewInternalError("lot document corrupt").WithCause(err)
	}
	return doc.toDomain(), nil
}

func (s *PostgresLotStore) GetAll(ctx context.Context) ([]*auction.Lot, error) {
	return s.query(ctx, `SELECT doc FROM lots ORDER BY created_at`)
}

func (s *PostgresLotStore) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*auction.Lot, error) {
	return s.query(ctx, `SELECT doc FROM lots WHERE auction_id = $1 ORDER BY created_at`, auctionID)
}

func (s *PostgresLotStore) Update(ctx context.Context, l *auction.Lot) error {
	doc, err := json.Marshal(newLotDoc(l))
	if err != nil {
		return fmt.Errorf("marshal lot: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE lots SET doc = $2, version = $3, updated_at = $4 WHERE id = $1 AND version = $3 - 1`,
		l.ID, doc, int64(l.Version), l.UpdatedAt)
	if err != nil {
		s.logger.Error("lot update failed", zap.String("lot_id", l.ID.String()), zap.Error(err))
		return errors.NewInternalError("lot update failed").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return versionMismatch(ctx, s.pool, "lots", "lot", l.ID, l.Version)
	}
	return nil
}

func (s *PostgresLotStore) query(ctx context.Context, sql string, args ...any) ([]*auction.Lot, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.NewInternalError("lot list failed").WithCause(err)
	}
	defer rows.Close()

	var out []*auction.Lot
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.NewInternalError("lot scan failed").WithCause(err)
		}
		var doc lotDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.NewInternalError("lot document corrupt").WithCause(err)
		}
		out = append(out, doc.toDomain())
	}
	return out, rows.Err()
}

// PostgresVehicleStore persists vehicles. Insert-only; there is no
// versioned update because vehicles are immutable.
type PostgresVehicleStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func (s *PostgresVehicleStore) Add(ctx context.Context, v *vehicle.Vehicle) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal vehicle: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO vehicles (id, vin, doc, created_at) VALUES ($1, $2, $3, $4)`,
		v.ID, v.VIN, doc, v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewDuplicateError("vehicle")
		}
		s.logger.Error("vehicle insert failed", zap.String("vehicle_id", v.ID.String()), zap.Error(err))
		return errors.NewInternalError("vehicle insert failed").WithCause(err)
	}
	return nil
}

func (s *PostgresVehicleStore) Get(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM vehicles WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("vehicle")
		}
		return nil, errors.NewInternalError("vehicle read failed").WithCause(err)
	}

	var v vehicle.Vehicle
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.NewInternalError("vehicle document corrupt").WithCause(err)
	}
	return &v, nil
}

func (s *PostgresVehicleStore) GetAll(ctx context.Context) ([]*vehicle.Vehicle, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM vehicles ORDER BY created_at`)
	if err != nil {
		return nil, errors.NewInternalError("vehicle list failed").WithCause(err)
	}
	defer rows.Close()

	var out []*vehicle.Vehicle
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.NewInternalError("vehicle scan failed").WithCause(err)
		}
		var v vehicle.Vehicle
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, errors.NewInternalError("vehicle document corrupt").WithCause(err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

// Search filters in memory over the full set. The catalog is small relative
// to bid volume; move to SQL predicates if that stops being true.
func (s *PostgresVehicleStore) Search(ctx context.Context, f vehicle.Filter) ([]*vehicle.Vehicle, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*vehicle.Vehicle, 0, len(all))
	for _, v := range all {
		if f.Matches(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// versionMismatch distinguishes a missing row from a lost version race
// after an UPDATE matched nothing.
func versionMismatch(ctx context.Context, pool *pgxpool.Pool, table, resource string, id uuid.UUID, incoming uint32) error {
	var stored int64
	err := pool.QueryRow(ctx, fmt.Sprintf(`SELECT version FROM %s WHERE id = $1`, table), id).Scan(&stored)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return errors.NewNotFoundError(resource)
		}
		return errors.NewInternalError("version probe failed").WithCause(err)
	}
	return errors.NewVersionConflictError(uint32(stored)+1, incoming)
}
