package patient

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByRun(ctx context.Context, run string) (*User, error)
	Update(ctx context.Context, u *User) error
}
