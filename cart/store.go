package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/evermart/storefront/internal/constants"
	inErrors "github.com/evermart/storefront/internal/errors"
	"github.com/evermart/storefront/internal/log"
	"github.com/evermart/storefront/internal/storage"
)

var tracer = otel.Tracer(constants.AppName)

// Store is the authoritative client-side cart. Mutations are synchronous and
// single-writer; persistence is a fire-and-forget mirror written after every
// in-memory update, so callers never see a persistence error.
type Store struct {
	mu       sync.Mutex
	lines    []Line
	storage  storage.Store
	validate *validator.Validate
}

func NewStore(storage storage.Store) *Store {
	return &Store{
		storage:  storage,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Load restores the persisted line list; an absent cart key means an empty
// cart, not an error.
func (s *Store) Load(c context.Context) error {
	c, span := tracer.Start(c, "CartStore Load")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore Load").
		Str(log.KeyStorageKey, storage.KeyCart).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "loading cart from storage").Logger()
	logger.Info().Msg("loading cart from storage")
	raw, err := s.storage.Get(c, storage.KeyCart)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			logger.Info().Msg("no persisted cart, starting empty")
			return nil
		}
		err = fmt.Errorf("failed loading cart from storage with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	lines := []Line{}
	err = json.Unmarshal(raw, &lines)
	if err != nil {
		err = fmt.Errorf("failed unmarshaling persisted cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()

	logger.Info().Int("lines", len(lines)).Msg("loaded cart from storage")
	return nil
}

// Add merges the item into an existing line when product and variant match
// (quantities add), otherwise appends a new line. Persists afterwards.
func (s *Store) Add(c context.Context, item AddItem) (Line, error) {
	c, span := tracer.Start(c, "CartStore Add")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore Add").
		Str(log.KeyProductID, item.ProductID.String()).
		Int32(log.KeyQuantity, item.Quantity).
		Logger()

	err := s.validate.Struct(item)
	if err != nil {
		err = errors.Join(ErrInvalidQuantity, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Line{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, line := range s.lines {
		if !sameIdentity(line, item) {
			continue
		}
		logger = logger.With().
			Str(log.KeyLineID, line.ID.String()).
			Str(log.KeyProcess, "merging cart line").
			Logger()
		logger.Info().Msg("merging cart line")
		s.lines[i].Quantity += item.Quantity
		s.lines[i].LineTotal = lineTotal(line.Snapshot.Price, s.lines[i].Quantity)
		merged := s.lines[i]
		s.persist(c)
		logger.Info().
			Int32("mergedQuantity", merged.Quantity).
			Msg("merged cart line")
		return merged, nil
	}

	line := Line{
		ID:        uuid.New(),
		ProductID: item.ProductID,
		Snapshot:  item.Snapshot,
		Variant:   item.Variant,
		Quantity:  item.Quantity,
		LineTotal: lineTotal(item.Snapshot.Price, item.Quantity),
	}
	logger = logger.With().
		Str(log.KeyLineID, line.ID.String()).
		Str(log.KeyProcess, "appending cart line").
		Logger()
	logger.Info().Msg("appending cart line")
	s.lines = append(s.lines, line)
	s.persist(c)
	logger.Info().Msg("appended cart line")
	return line, nil
}

// UpdateQuantity replaces a line's quantity and recomputes its total.
// Quantity 0 removes the line; negatives are rejected; an unknown line is a
// no-op.
func (s *Store) UpdateQuantity(c context.Context, lineID uuid.UUID, quantity int32) error {
	c, span := tracer.Start(c, "CartStore UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore UpdateQuantity").
		Str(log.KeyLineID, lineID.String()).
		Int32(log.KeyQuantity, quantity).
		Logger()

	if quantity < 0 {
		inErrors.HandleError(ErrInvalidQuantity, span)
		logger.Error().Err(ErrInvalidQuantity).Msg(ErrInvalidQuantity.Error())
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.Remove(c, lineID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, line := range s.lines {
		if line.ID != lineID {
			continue
		}
		logger.Info().Msg("updating cart line quantity")
		s.lines[i].Quantity = quantity
		s.lines[i].LineTotal = lineTotal(line.Snapshot.Price, quantity)
		s.persist(c)
		logger.Info().Msg("updated cart line quantity")
		return nil
	}

	logger.Info().Msg("line not found, nothing to update")
	return nil
}

// Remove filters out the line; removing an unknown line is a no-op.
func (s *Store) Remove(c context.Context, lineID uuid.UUID) error {
	c, span := tracer.Start(c, "CartStore Remove")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore Remove").
		Str(log.KeyLineID, lineID.String()).
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, line := range s.lines {
		if line.ID != lineID {
			continue
		}
		logger.Info().Msg("removing cart line")
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		s.persist(c)
		logger.Info().Msg("removed cart line")
		return nil
	}

	logger.Info().Msg("line not found, nothing to remove")
	return nil
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear(c context.Context) error {
	c, span := tracer.Start(c, "CartStore Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore Clear").
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Info().Msg("clearing cart")
	s.lines = nil
	s.persist(c)
	logger.Info().Msg("cleared cart")
	return nil
}

// Lines returns a copy of the current line list.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	return lines
}

// Count is the derived total quantity, recomputed on every access.
func (s *Store) Count() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int32
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// Subtotal is the derived sum of line totals, recomputed on every access.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	subtotal := decimal.Zero
	for _, line := range s.lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	return subtotal
}

// persist mirrors the full line list to storage. Fire-and-forget: failures
// are logged, never returned. Callers hold the lock.
func (s *Store) persist(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore persist").
		Str(log.KeyStorageKey, storage.KeyCart).
		Logger()

	lines := s.lines
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	err = s.storage.Set(c, storage.KeyCart, raw)
	if err != nil {
		err = fmt.Errorf("failed persisting cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
	}
}
