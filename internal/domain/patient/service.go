package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/favodev/meditech/internal/platform/auth"
)

var (
	// ErrNotFound indicates no user exists for the given RUN.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidRequest indicates the profile payload failed validation.
	ErrInvalidRequest = errors.New("invalid profile data")
	// ErrProfileNotConfigured indicates the patient has no anticoagulation
	// profile yet; callers fall back to the default therapeutic range or
	// reject, depending on the operation.
	ErrProfileNotConfigured = errors.New("anticoagulation profile not configured")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProfile(ctx context.Context, run string) (*User, error) {
	return s.repo.GetByRun(ctx, run)
}

// UpdateProfile applies the non-nil fields of upd to the user's record.
// The anticoagulation block, when present, replaces the stored one whole
// and is validated before persisting.
func (s *Service) UpdateProfile(ctx context.Context, run string, upd *ProfileUpdate) (*User, error) {
	u, err := s.repo.GetByRun(ctx, run)
	if err != nil {
		return nil, err
	}

	if upd.Nombre != nil {
		u.Nombre = *upd.Nombre
	}
	if upd.Apellido != nil {
		u.Apellido = *upd.Apellido
	}
	if upd.Telefono != nil {
		u.Telefono = upd.Telefono
	}
	if upd.Sexo != nil {
		u.Sexo = upd.Sexo
	}
	if upd.Direccion != nil {
		u.Direccion = upd.Direccion
	}
	if upd.FechaNacimiento != nil {
		u.FechaNacimiento = upd.FechaNacimiento
	}
	if upd.TelefonoEmergencia != nil {
		u.TelefonoEmergencia = upd.TelefonoEmergencia
	}
	if upd.Institucion != nil {
		u.Institucion = upd.Institucion
	}
	if upd.Especialidad != nil {
		u.Especialidad = upd.Especialidad
	}
	if upd.TelefonoConsultorio != nil {
		u.TelefonoConsultorio = upd.TelefonoConsultorio
	}
	if upd.AniosExperiencia != nil {
		u.AniosExperiencia = upd.AniosExperiencia
	}
	if upd.RegistroMPI != nil {
		u.RegistroMPI = upd.RegistroMPI
	}
	if upd.Anticoagulacion != nil {
		p := *upd.Anticoagulacion
		if p.MgPorPastilla == 0 {
			p.MgPorPastilla = DefaultMgPerTablet
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		u.Anticoagulacion = &p
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// AnticoagulationProfile returns the patient's configured treatment data.
// Returns ErrProfileNotConfigured when the user is missing or has no
// anticoagulation block.
func (s *Service) AnticoagulationProfile(ctx context.Context, run string) (*AnticoagProfile, error) {
	u, err := s.repo.GetByRun(ctx, run)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrProfileNotConfigured
	}
	if err != nil {
		return nil, err
	}
	if u.Anticoagulacion == nil {
		return nil, ErrProfileNotConfigured
	}
	p := *u.Anticoagulacion
	if p.MgPorPastilla == 0 {
		p.MgPorPastilla = DefaultMgPerTablet
	}
	return &p, nil
}

// FindDoctor looks up a user by RUN and verifies it is a doctor account.
func (s *Service) FindDoctor(ctx context.Context, run string) (*User, error) {
	u, err := s.repo.GetByRun(ctx, run)
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RoleDoctor {
		return nil, ErrNotFound
	}
	return u, nil
}
