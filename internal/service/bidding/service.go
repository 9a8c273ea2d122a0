package bidding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gavelworks/auction-backend/internal/domain/auction"
	"github.com/gavelworks/auction-backend/internal/domain/errors"
	"github.com/gavelworks/auction-backend/internal/domain/values"
	"github.com/gavelworks/auction-backend/internal/domain/vehicle"
	"github.com/gavelworks/auction-backend/internal/infrastructure/events"
	"github.com/gavelworks/auction-backend/internal/infrastructure/repository"
	"github.com/gavelworks/auction-backend/internal/metrics"
)

// Config bounds the retry policy for mutating commands.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultConfig returns the production retry policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   50 * time.Millisecond,
	}
}

// Service is the application-level command surface over the bidding core.
// It serializes commands per entity through lazily created single-permit
// locks, retries version conflicts with exponential backoff, and emits
// lifecycle events after confirmed commits.
//
// Bid ingestion is availability-first: every well-formed bid on an active
// auction is appended. Validity and the winner are recovered at read time
// from the deterministic sequence-ordered projection on the lot.
type Service struct {
	stores    *repository.Stores
	sequences SequenceSource
	sink      EventSink
	logger    *slog.Logger
	cfg       Config
	validate  *validator.Validate

	auctionLocks *lockTable
	lotLocks     *lockTable
}

// NewService wires the orchestrator.
func NewService(stores *repository.Stores, sequences SequenceSource, sink EventSink, logger *slog.Logger, cfg Config) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}
	if sink == nil {
		sink = events.NopSink{}
	}

	return &Service{
		stores:       stores,
		sequences:    sequences,
		sink:         sink,
		logger:       logger,
		cfg:          cfg,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		auctionLocks: newLockTable(),
		lotLocks:     newLockTable(),
	}
}

// CreateVehicle registers an immutable vehicle.
func (s *Service) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*vehicle.Vehicle, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("INVALID_REQUEST", err.Error())
	}
	if err := validateMileage(req.Mileage); err != nil {
		return nil, err
	}

	kind, err := vehicle.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}

	v, err := vehicle.New(kind, req.Make, req.Model, req.Year, req.VIN, req.Mileage, req.Color, req.Attributes)
	if err != nil {
		return nil, err
	}

	scope := repository.NewScope(s.stores)
	defer scope.Close()

	if err := scope.Vehicles.Add(ctx, v); err != nil {
		return nil, err
	}
	if _, err := scope.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "vehicle_created",
		slog.String("vehicle_id", v.ID.String()),
		slog.String("kind", string(v.Kind)),
		slog.String("vin", v.VIN),
	)
	return v, nil
}

// CreateAuction creates an auction in the created state.
func (s *Service) CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("INVALID_REQUEST", err.Error())
	}

	a, err := auction.NewAuction(req.Title, req.Description)
	if err != nil {
		return nil, err
	}

	scope := repository.NewScope(s.stores)
	defer scope.Close()

	if err := scope.Auctions.Add(ctx, a); err != nil {
		return nil, err
	}
	if _, err := scope.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "auction_created",
		slog.String("auction_id", a.ID.String()),
		slog.String("title", a.Title),
	)
	s.emit(ctx, events.New(events.TypeAuctionCreated, a.ID, map[string]any{
		"title": a.Title,
	}))
	return a, nil
}

// StartAuction transitions an auction to active.
func (s *Service) StartAuction(ctx context.Context, auctionID uuid.UUID) error {
	if err := s.auctionLocks.acquire(ctx, auctionID); err != nil {
		return err
	}
	defer s.auctionLocks.release(auctionID)

	err := s.withRetry(ctx, "start_auction", func(ctx context.Context) error {
		scope := repository.NewScope(s.stores)
		defer scope.Close()

		a, err := scope.Auctions.Get(ctx, auctionID)
		if err != nil {
			return err
		}
		if err := a.Start(); err != nil {
			return err
		}
		if err := scope.Auctions.Update(ctx, a); err != nil {
			return err
		}
		_, err = scope.Commit(ctx)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "auction_started",
		slog.String("auction_id", auctionID.String()),
	)
	s.emit(ctx, events.New(events.TypeAuctionStarted, auctionID, nil))
	return nil
}

// CloseAuction transitions an auction to ended and sweeps the lot locks of
// its lots; no further bids can target them.
func (s *Service) CloseAuction(ctx context.Context, auctionID uuid.UUID) error {
	if err := s.auctionLocks.acquire(ctx, auctionID); err != nil {
		return err
	}
	defer s.auctionLocks.release(auctionID)

	var lotIDs []uuid.UUID
	err := s.withRetry(ctx, "close_auction", func(ctx context.Context) error {
		scope := repository.NewScope(s.stores)
		defer scope.Close()

		a, err := scope.Auctions.Get(ctx, auctionID)
		if err != nil {
			return err
		}
		if err := a.End(); err != nil {
			return err
		}
		if err := scope.Auctions.Update(ctx, a); err != nil {
			return err
		}
		if _, err := scope.Commit(ctx); err != nil {
			return err
		}
		lotIDs = a.LotIDs()
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range lotIDs {
		s.lotLocks.remove(id)
	}

	s.logger.InfoContext(ctx, "auction_ended",
		slog.String("auction_id", auctionID.String()),
		slog.Int("lots", len(lotIDs)),
	)
	s.emit(ctx, events.New(events.TypeAuctionEnded, auctionID, nil))
	return nil
}

// CreateLot attaches a vehicle to an auction as a biddable lot. The auction
// lock serializes lot additions into the same auction.
func (s *Service) CreateLot(ctx context.Context, req CreateLotRequest) (*auction.Lot, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("INVALID_REQUEST", err.Error())
	}
	if err := validateMoneyBounds("starting_bid", req.StartingBid); err != nil {
		return nil, err
	}
	if req.ReservePrice != nil {
		if err := validateMoneyBounds("reserve_price", *req.ReservePrice); err != nil {
			return nil, err
		}
	}

	if err := s.auctionLocks.acquire(ctx, req.AuctionID); err != nil {
		return nil, err
	}
	defer s.auctionLocks.release(req.AuctionID)

	var created *auction.Lot
	err := s.withRetry(ctx, "create_lot", func(ctx context.Context) error {
		scope := repository.NewScope(s.stores)
		defer scope.Close()

		veh, err := scope.Vehicles.Get(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		a, err := scope.Auctions.Get(ctx, req.AuctionID)
		if err != nil {
			return err
		}

		var reserve *values.Money
		if req.ReservePrice != nil {
			r := values.MustNewMoney(*req.ReservePrice, values.USD)
			reserve = &r
		}
		lot, err := auction.NewLot(a.ID, veh, values.MustNewMoney(req.StartingBid, values.USD), reserve)
		if err != nil {
			return err
		}
		if err := a.AddLot(lot); err != nil {
			return err
		}
		if err := scope.Auctions.Update(ctx, a); err != nil {
			return err
		}
		if err := scope.Lots.Add(ctx, lot); err != nil {
			return err
		}
		if _, err := scope.Commit(ctx); err != nil {
			return err
		}
		created = lot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "lot_created",
		slog.String("lot_id", created.ID.String()),
		slog.String("auction_id", req.AuctionID.String()),
		slog.String("vehicle_id", req.VehicleID.String()),
		slog.String("starting_bid", created.StartingBid.String()),
	)
	return created, nil
}

// PlaceBid appends one bid to a lot. Every failure except a missing lot
// comes back as a structured unsuccessful result rather than an error.
func (s *Service) PlaceBid(ctx context.Context, req PlaceBidRequest) (*PlaceBidResult, error) {
	start := time.Now()
	defer func() {
		metrics.BidProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	if err := s.validate.Struct(req); err != nil {
		metrics.BidsTotal.WithLabelValues("rejected").Inc()
		return rejected(err.Error()), nil
	}
	if err := validateMoneyBounds("amount", req.Amount); err != nil {
		metrics.BidsTotal.WithLabelValues("rejected").Inc()
		return rejected(err.Error()), nil
	}
	amount := values.MustNewMoney(req.Amount, values.USD)

	// Fast-path pre-check outside the lot lock. Keeps obviously doomed bids
	// from queueing on a contended lot.
	if err := s.precheckBid(ctx, req.LotID); err != nil {
		if errors.IsType(err, errors.ErrorTypeState) {
			metrics.BidsTotal.WithLabelValues("rejected").Inc()
			return rejected(err.Error()), nil
		}
		return nil, err
	}

	if err := s.lotLocks.acquire(ctx, req.LotID); err != nil {
		return nil, err
	}

	var (
		placed  *auction.Bid
		lot     *auction.Lot
		highest bool
	)
	err := s.withRetry(ctx, "place_bid", func(ctx context.Context) error {
		scope := repository.NewScope(s.stores)
		defer scope.Close()

		l, err := scope.Lots.Get(ctx, req.LotID)
		if err != nil {
			return err
		}
		a, err := scope.Auctions.Get(ctx, l.AuctionID)
		if err != nil {
			if errors.IsType(err, errors.ErrorTypeNotFound) {
				return errAuctionNotAcceptingBids()
			}
			return err
		}
		if !a.CanAcceptBids() {
			return errAuctionNotAcceptingBids()
		}

		// Advisory only: a losing amount is still appended.
		highest = l.WouldBidBeValid(amount)

		seq, err := s.sequences.Next(ctx, l.ID)
		if err != nil {
			return errors.NewInternalError("sequence source unavailable").WithCause(err)
		}

		b, err := l.PlaceBid(req.BidderID, amount, seq)
		if err != nil {
			return err
		}
		if err := scope.Lots.Update(ctx, l); err != nil {
			return err
		}
		if _, err := scope.Commit(ctx); err != nil {
			return err
		}

		placed, lot = b, l
		return nil
	})
	s.lotLocks.release(req.LotID)

	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			return nil, err
		}
		metrics.BidsTotal.WithLabelValues("rejected").Inc()
		if errors.IsType(err, errors.ErrorTypeState) || errors.IsType(err, errors.ErrorTypeValidation) {
			return rejected(err.Error()), nil
		}
		return nil, err
	}

	metrics.BidsTotal.WithLabelValues("accepted").Inc()
	s.logger.InfoContext(ctx, "bid_placed",
		slog.String("bid_id", placed.ID.String()),
		slog.String("lot_id", lot.ID.String()),
		slog.String("bidder_id", placed.BidderID),
		slog.String("amount", placed.Amount.String()),
		slog.Int64("sequence", placed.Sequence),
		slog.Bool("currently_highest", highest),
	)
	s.emit(ctx, events.New(events.TypeBidPlaced, lot.AuctionID, map[string]any{
		"bid_id":    placed.ID.String(),
		"lot_id":    lot.ID.String(),
		"bidder_id": placed.BidderID,
		"amount":    placed.Amount.Amount().String(),
		"sequence":  placed.Sequence,
	}))

	current := lot.HighestBidAmount().Amount()
	return &PlaceBidResult{
		Success:            true,
		Message:            "bid accepted",
		BidID:              &placed.ID,
		CurrentHighest:     &current,
		IsCurrentlyHighest: highest,
	}, nil
}

// GetAuction returns an auction snapshot.
func (s *Service) GetAuction(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	return s.stores.Auctions.Get(ctx, id)
}

// ListAuctions returns snapshots of every auction.
func (s *Service) ListAuctions(ctx context.Context) ([]*auction.Auction, error) {
	return s.stores.Auctions.GetAll(ctx)
}

// GetLot returns a lot snapshot.
func (s *Service) GetLot(ctx context.Context, id uuid.UUID) (*auction.Lot, error) {
	return s.stores.Lots.Get(ctx, id)
}

// GetHighestBid returns the current highest amount on a lot, and the valid
// bid holding it when one exists.
func (s *Service) GetHighestBid(ctx context.Context, lotID uuid.UUID) (values.Money, *auction.Bid, error) {
	lot, err := s.stores.Lots.Get(ctx, lotID)
	if err != nil {
		return values.Money{}, nil, err
	}
	return lot.HighestBidAmount(), lot.HighestBid(), nil
}

// GetWinner returns the winning bidder on a lot, if the reserve (when set)
// is met.
func (s *Service) GetWinner(ctx context.Context, lotID uuid.UUID) (string, bool, error) {
	lot, err := s.stores.Lots.Get(ctx, lotID)
	if err != nil {
		return "", false, err
	}
	winner, ok := lot.WinningBidderID()
	return winner, ok, nil
}

// GetVehicle returns a vehicle snapshot.
func (s *Service) GetVehicle(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	return s.stores.Vehicles.Get(ctx, id)
}

// SearchVehicles returns every vehicle matching the filter.
func (s *Service) SearchVehicles(ctx context.Context, f vehicle.Filter) ([]*vehicle.Vehicle, error) {
	return s.stores.Vehicles.Search(ctx, f)
}

// precheckBid verifies the lot exists and its auction accepts bids, using a
// transient scope. Races with a concurrent close are re-checked under the
// lot lock.
func (s *Service) precheckBid(ctx context.Context, lotID uuid.UUID) error {
	scope := repository.NewScope(s.stores)
	defer scope.Close()

	lot, err := scope.Lots.Get(ctx, lotID)
	if err != nil {
		return err
	}
	a, err := scope.Auctions.Get(ctx, lot.AuctionID)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			return errAuctionNotAcceptingBids()
		}
		return err
	}
	if !a.CanAcceptBids() {
		return errAuctionNotAcceptingBids()
	}
	return nil
}

// withRetry runs fn up to MaxAttempts times, backing off exponentially
// after each version conflict. Non-conflict failures abort immediately.
func (s *Service) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.IsVersionConflict(err) {
			return err
		}

		lastErr = err
		metrics.VersionConflictsTotal.Inc()
		s.logger.DebugContext(ctx, "commit_conflict",
			slog.String("op", op),
			slog.Int("attempt", attempt),
		)

		if attempt == s.cfg.MaxAttempts {
			break
		}
		metrics.CommandRetriesTotal.Inc()
		if err := s.backoff(ctx, attempt); err != nil {
			return err
		}
	}

	return errors.NewUnrecoverableError(
		fmt.Sprintf("%s: aborted after %d attempts", op, s.cfg.MaxAttempts)).WithCause(lastErr)
}

// backoff sleeps BaseDelay * 2^(attempt-1), honoring cancellation.
func (s *Service) backoff(ctx context.Context, attempt int) error {
	delay := s.cfg.BaseDelay * time.Duration(1<<(attempt-1))
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	metrics.EventsEmittedTotal.WithLabelValues(string(e.EventType)).Inc()
	if err := s.sink.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "event_emit_failed",
			slog.String("event_id", e.EventID.String()),
			slog.String("event_type", string(e.EventType)),
			slog.String("error", err.Error()),
		)
	}
}

func errAuctionNotAcceptingBids() error {
	return errors.NewStateError("AUCTION_NOT_ACCEPTING_BIDS", "auction is not accepting bids")
}
