// Package services wires the inventory engines into the operations callers
// invoke: putaway, allocation, pick confirmation, shipment and adjustment.
package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/quayside/stockflow/pkg/domain/repositories"
	"github.com/quayside/stockflow/pkg/stockflow"
)

// WarehouseService orchestrates the quantity lifecycle engines. Each call is
// one synchronous operation; batch semantics (per-element outcomes, no
// rollback) come from the engines themselves.
type WarehouseService struct {
	putaway    *stockflow.PutawayEngine
	allocation *stockflow.AllocationEngine
	picking    *stockflow.PickingEngine
	shipment   *stockflow.ShipmentEngine
	ledger     *stockflow.Ledger

	logger *zap.Logger
	tracer trace.Tracer
}

// Deps carries the repositories and ambient collaborators the service wires
// its engines from
type Deps struct {
	Units       repositories.StockUnitRepository
	Items       repositories.ItemRepository
	Locations   repositories.LocationRepository
	Receipts    repositories.ReceiptRepository
	Demands     repositories.DemandRepository
	Allocations repositories.AllocationRepository
	Movements   repositories.MovementRepository

	// NonAllocatableLocationIDs pins known non-storage locations that
	// predate the location class attribute.
	NonAllocatableLocationIDs []string

	Logger *zap.Logger
	Tracer trace.Tracer
}

// NewWarehouseService builds the engine stack from its repositories
func NewWarehouseService(deps Deps) *WarehouseService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("stockflow")
	}

	classifier := stockflow.NewLocationClassifier(deps.NonAllocatableLocationIDs)
	recorder := stockflow.NewRecorder(deps.Movements)
	ledger := stockflow.NewLedger(deps.Units, deps.Locations, classifier, recorder, logger)

	return &WarehouseService{
		putaway:    stockflow.NewPutawayEngine(deps.Units, deps.Items, deps.Locations, deps.Receipts, ledger, recorder, classifier, logger),
		allocation: stockflow.NewAllocationEngine(deps.Units, deps.Allocations, deps.Demands, ledger, logger),
		picking:    stockflow.NewPickingEngine(deps.Allocations, deps.Demands, deps.Locations, ledger, classifier, logger),
		shipment:   stockflow.NewShipmentEngine(deps.Units, deps.Allocations, deps.Demands, ledger, logger),
		ledger:     ledger,
		logger:     logger,
		tracer:     tracer,
	}
}

// Putaway distributes a received line across its disposition splits
func (s *WarehouseService) Putaway(ctx context.Context, receiptLineID string, splits []stockflow.Split, actor string) (*stockflow.PutawayResult, error) {
	ctx, span := s.tracer.Start(ctx, "warehouse.putaway",
		trace.WithAttributes(attribute.String("receipt_line_id", receiptLineID)))
	defer span.End()

	result, err := s.putaway.Putaway(ctx, receiptLineID, splits, actor)
	if err != nil {
		s.logger.Error("putaway failed",
			zap.String("receipt_line_id", receiptLineID),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("putaway processed",
		zap.String("receipt_line_id", receiptLineID),
		zap.Int("splits", len(splits)),
		zap.Bool("all_ok", result.AllOK()))
	return result, nil
}

// Allocate covers a demand line from available stock in FEFO order
func (s *WarehouseService) Allocate(ctx context.Context, demandLineID string, quantity decimal.Decimal, actor string) (*stockflow.AllocationResult, error) {
	ctx, span := s.tracer.Start(ctx, "warehouse.allocate",
		trace.WithAttributes(attribute.String("demand_line_id", demandLineID)))
	defer span.End()

	result, err := s.allocation.Allocate(ctx, demandLineID, quantity, actor)
	if err != nil {
		s.logger.Error("allocation failed",
			zap.String("demand_line_id", demandLineID),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("allocation processed",
		zap.String("demand_line_id", demandLineID),
		zap.String("allocated", result.AllocatedQuantity.String()),
		zap.String("shortage", result.Shortage.String()))
	return result, nil
}

// ConfirmPicks applies a batch of pick confirmations to a demand
func (s *WarehouseService) ConfirmPicks(ctx context.Context, demandHeaderID string, confirmations []stockflow.PickConfirmation, actor string) (*stockflow.PickResult, error) {
	ctx, span := s.tracer.Start(ctx, "warehouse.confirm_picks",
		trace.WithAttributes(attribute.String("demand_header_id", demandHeaderID)))
	defer span.End()

	result, err := s.picking.ConfirmPicks(ctx, demandHeaderID, confirmations, actor)
	if err != nil {
		s.logger.Error("pick confirmation failed",
			zap.String("demand_header_id", demandHeaderID),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("picks confirmed",
		zap.String("demand_header_id", demandHeaderID),
		zap.Int("picked", result.PickedCount))
	return result, nil
}

// Ship deducts a picked demand's stock
func (s *WarehouseService) Ship(ctx context.Context, demandHeaderID string, actor string) (*stockflow.ShipmentResult, error) {
	ctx, span := s.tracer.Start(ctx, "warehouse.ship",
		trace.WithAttributes(attribute.String("demand_header_id", demandHeaderID)))
	defer span.End()

	result, err := s.shipment.Ship(ctx, demandHeaderID, actor)
	if err != nil {
		s.logger.Error("shipment failed",
			zap.String("demand_header_id", demandHeaderID),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("shipment processed",
		zap.String("demand_header_id", demandHeaderID),
		zap.Int("deductions", len(result.Deductions)),
		zap.Bool("all_ok", result.AllOK()))
	return result, nil
}

// Adjust applies a signed on-hand correction to one stock unit
func (s *WarehouseService) Adjust(ctx context.Context, stockUnitID string, delta decimal.Decimal, actor string) error {
	ctx, span := s.tracer.Start(ctx, "warehouse.adjust",
		trace.WithAttributes(attribute.String("stock_unit_id", stockUnitID)))
	defer span.End()

	if _, err := s.ledger.Adjust(ctx, stockUnitID, delta, actor); err != nil {
		s.logger.Error("adjustment failed",
			zap.String("stock_unit_id", stockUnitID),
			zap.Error(err))
		return err
	}
	s.logger.Info("stock adjusted",
		zap.String("stock_unit_id", stockUnitID),
		zap.String("delta", delta.String()))
	return nil
}

// Rollup aggregates an item's quantities across its stock units
func (s *WarehouseService) Rollup(ctx context.Context, itemID string) (*stockflow.ItemRollup, error) {
	ctx, span := s.tracer.Start(ctx, "warehouse.rollup",
		trace.WithAttributes(attribute.String("item_id", itemID)))
	defer span.End()

	return s.ledger.Rollup(ctx, itemID)
}
