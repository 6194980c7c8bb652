package stockflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/domain/repositories"
)

// Recorder appends immutable movement audit entries for every physical
// relocation. Pure reservations and ship-in-place deductions do not pass
// through here.
type Recorder struct {
	movements repositories.MovementRepository
	now       func() time.Time
}

// NewRecorder creates a movement recorder
func NewRecorder(movements repositories.MovementRepository) *Recorder {
	return &Recorder{movements: movements, now: time.Now}
}

// Record appends one audit entry. fromLocationID is empty for creations.
func (r *Recorder) Record(ctx context.Context, unit *entities.StockUnit, fromLocationID, toLocationID string, quantity decimal.Decimal, movementType entities.MovementType, actor string) error {
	rec, err := entities.NewMovementRecord(
		uuid.NewString(),
		unit.ItemID,
		unit.ID,
		fromLocationID,
		toLocationID,
		quantity,
		movementType,
		r.now().UTC(),
		actor,
	)
	if err != nil {
		return err
	}
	if err := r.movements.Append(ctx, rec); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}
