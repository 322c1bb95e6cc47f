package careplan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lamar-health/careplan/internal/domain/order"
	"github.com/lamar-health/careplan/internal/domain/patient"
	"github.com/lamar-health/careplan/internal/domain/provider"
	"github.com/lamar-health/careplan/internal/platform/llm"
)

// Generator produces care plan text from a system and user prompt.
// *llm.Client satisfies it; tests substitute their own.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// OrderStore is the slice of the order repository this service reads.
type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

type PatientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type ProviderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error)
}

type Service struct {
	plans     Repository
	orders    OrderStore
	patients  PatientStore
	providers ProviderStore
	gen       Generator
	timeout   time.Duration
	log       zerolog.Logger
}

func NewService(plans Repository, orders OrderStore, patients PatientStore, providers ProviderStore,
	gen Generator, timeout time.Duration, log zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Service{
		plans:     plans,
		orders:    orders,
		patients:  patients,
		providers: providers,
		gen:       gen,
		timeout:   timeout,
		log:       log.With().Str("component", "careplan_service").Logger(),
	}
}

// GenerateForOrder runs one generation attempt for the order. A succeeded
// plan is final and returns ErrAlreadyGenerated; a pending or failed row is
// overwritten by the new attempt's outcome. On failure the error carries the
// llm.GenerationError and the persisted failed plan records the reason.
func (s *Service) GenerateForOrder(ctx context.Context, orderID uuid.UUID) (*CarePlan, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order: %w", err)
	}

	existing, err := s.plans.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("checking existing plan: %w", err)
	}
	if existing != nil && existing.Succeeded() {
		return existing, ErrAlreadyGenerated
	}

	p, err := s.patients.GetByID(ctx, o.PatientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}
	prov, err := s.providers.GetByID(ctx, o.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("loading provider: %w", err)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, genErr := s.gen.Generate(genCtx, systemPrompt, buildPrompt(o, p, prov))
	if genErr != nil {
		return s.recordFailure(ctx, orderID, genErr)
	}

	cp := &CarePlan{OrderID: orderID, Status: StatusSucceeded, Content: content}
	if err := s.plans.Upsert(ctx, cp); err != nil {
		// A concurrent attempt finished first; its plan wins.
		if errors.Is(err, ErrAlreadyGenerated) {
			won, getErr := s.plans.GetByOrderID(ctx, orderID)
			if getErr == nil && won != nil {
				return won, ErrAlreadyGenerated
			}
			return nil, err
		}
		return nil, fmt.Errorf("saving plan: %w", err)
	}

	s.log.Info().Ctx(ctx).Str("order_id", orderID.String()).
		Str("care_plan_id", cp.ID.String()).Msg("care plan generated")
	return cp, nil
}

// recordFailure persists the failed attempt so the order shows why generation
// did not complete, then returns the original error for the caller to map.
func (s *Service) recordFailure(ctx context.Context, orderID uuid.UUID, genErr error) (*CarePlan, error) {
	reason := genErr.Error()
	var gerr *llm.GenerationError
	if errors.As(genErr, &gerr) {
		reason = fmt.Sprintf("%s: %s", gerr.Kind, gerr.Message)
	}

	cp := &CarePlan{OrderID: orderID, Status: StatusFailed, FailureReason: reason}
	if err := s.plans.Upsert(ctx, cp); err != nil {
		if errors.Is(err, ErrAlreadyGenerated) {
			// Lost a race against a successful attempt; nothing to record.
			won, getErr := s.plans.GetByOrderID(ctx, orderID)
			if getErr == nil && won != nil {
				return won, nil
			}
		}
		s.log.Error().Ctx(ctx).Err(err).Str("order_id", orderID.String()).
			Msg("failed to persist generation failure")
	}

	s.log.Warn().Ctx(ctx).Str("order_id", orderID.String()).Err(genErr).
		Msg("care plan generation failed")
	return cp, genErr
}

// Get returns one plan by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*CarePlan, error) {
	return s.plans.GetByID(ctx, id)
}

// GetForOrder returns the plan linked to an order, or (nil, nil).
func (s *Service) GetForOrder(ctx context.Context, orderID uuid.UUID) (*CarePlan, error) {
	return s.plans.GetByOrderID(ctx, orderID)
}

// UpdateContent applies a pharmacist edit to the plan text. The status is
// left alone, so an edited plan stays succeeded and regeneration stays
// blocked.
func (s *Service) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*CarePlan, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("care plan content cannot be empty")
	}
	cp, err := s.plans.UpdateContent(ctx, id, content)
	if err != nil {
		return nil, err
	}
	s.log.Info().Ctx(ctx).Str("care_plan_id", id.String()).Msg("care plan edited")
	return cp, nil
}
