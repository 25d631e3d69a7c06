package sharing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type GrantRepository interface {
	// Upsert inserts the grant or, when one already exists for the same
	// (report, doctor) pair, replaces its snapshot, level and expiry.
	Upsert(ctx context.Context, g *FormalGrant) error
	// Insert always creates a new grant row (legacy sharing path).
	Insert(ctx context.Context, g *FormalGrant) error
	// ListActiveForDoctor returns grants naming the doctor whose expiry
	// is after now, newest first.
	ListActiveForDoctor(ctx context.Context, runMedico string, now time.Time) ([]*FormalGrant, error)
	// UpdateObservations sets the patient's note on their own grant and
	// returns the updated row. ErrNotFound when no grant matches both the
	// id and the patient RUN.
	UpdateObservations(ctx context.Context, id uuid.UUID, runPaciente, observaciones string) (*FormalGrant, error)
}

type PublicShareRepository interface {
	Insert(ctx context.Context, p *PublicShare) error
	GetByToken(ctx context.Context, token string) (*PublicShare, error)
	DeleteByToken(ctx context.Context, token string) error
}
