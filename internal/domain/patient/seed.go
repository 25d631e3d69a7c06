package patient

import (
	"context"
	"errors"
	"time"

	"github.com/favodev/meditech/internal/platform/auth"
)

// DemoUsers returns the fixture accounts loaded by the seed command: a
// patient with a configured anticoagulation profile and their treating
// doctor. The patient RUN matches the identity DevAuthMiddleware assumes.
func DemoUsers() []*User {
	diagnostico := "Fibrilación auricular"
	inicio := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	especialidad := "Hematología"
	return []*User{
		{
			Role:     auth.RolePatient,
			Nombre:   "María",
			Apellido: "Soto",
			Email:    "maria.soto@example.cl",
			Run:      "11111111-1",
			Anticoagulacion: &AnticoagProfile{
				Medicamento:            MedAcenocumarol,
				MgPorPastilla:          DefaultMgPerTablet,
				RangoMeta:              DefaultTherapeuticRange,
				DiagnosticoBase:        &diagnostico,
				FechaInicioTratamiento: &inicio,
			},
		},
		{
			Role:         auth.RoleDoctor,
			Nombre:       "Pedro",
			Apellido:     "Rojas",
			Email:        "pedro.rojas@example.cl",
			Run:          "22222222-2",
			Especialidad: &especialidad,
			Institucion: &Institucion{
				Nombre:          "Hospital Regional",
				TipoInstitucion: "Hospital",
			},
		},
	}
}

// Seed inserts the demo users, skipping any RUN that already exists, and
// returns the users actually created.
func Seed(ctx context.Context, repo Repository) ([]*User, error) {
	var created []*User
	for _, u := range DemoUsers() {
		_, err := repo.GetByRun(ctx, u.Run)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if err := repo.Create(ctx, u); err != nil {
			return nil, err
		}
		created = append(created, u)
	}
	return created, nil
}
