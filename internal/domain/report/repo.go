package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	ListByPatient(ctx context.Context, runPaciente string, limit, offset int) ([]*Report, int, error)
	// ControlHistory returns the patient's anticoagulation controls that
	// carry an INR reading, ascending by creation time.
	ControlHistory(ctx context.Context, runPaciente string) ([]Observation, error)
	// LatestControl returns the most recent control with an INR reading,
	// or ErrNotFound when the patient has none.
	LatestControl(ctx context.Context, runPaciente string) (*Report, error)
}
