package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/favodev/meditech/internal/domain/patient"
	"github.com/favodev/meditech/internal/platform/auth"
	"github.com/favodev/meditech/internal/platform/storage"
)

var (
	ErrInvalidRequest = errors.New("invalid report request")
	ErrForbidden      = errors.New("caller role not permitted")
	ErrNotFound       = errors.New("report not found")
)

// ProfileSource supplies the patient's anticoagulation treatment data.
type ProfileSource interface {
	AnticoagulationProfile(ctx context.Context, run string) (*patient.AnticoagProfile, error)
}

// CreateInput is the JSON part of the multipart report creation request.
type CreateInput struct {
	Titulo           string           `json:"titulo"`
	TipoInforme      string           `json:"tipo_informe"`
	Observaciones    *string          `json:"observaciones,omitempty"`
	RunPaciente      string           `json:"run_paciente,omitempty"`
	RunMedico        string           `json:"run_medico,omitempty"`
	ContenidoClinico *ClinicalContent `json:"contenido_clinico,omitempty"`
}

// File is one uploaded attachment, already read off the wire.
type File struct {
	Name    string
	Content []byte
}

type Service struct {
	repo     Repository
	profiles ProfileSource
	store    storage.Store
}

func NewService(repo Repository, profiles ProfileSource, store storage.Store) *Service {
	return &Service{repo: repo, profiles: profiles, store: store}
}

// Create builds and persists a clinical report. The patient/doctor pair is
// resolved from the caller's role plus the DTO; anticoagulation controls
// additionally require a complete dose calendar and a configured profile so
// the weekly dose total can be computed server-side. Attachments are
// uploaded before the report row is written: if any upload fails, no report
// is created.
func (s *Service) Create(ctx context.Context, caller auth.Identity, dto CreateInput, files []File) (*Report, error) {
	runPaciente, runMedico, err := resolveParties(caller, dto)
	if err != nil {
		return nil, err
	}

	if dto.Titulo == "" || dto.TipoInforme == "" {
		return nil, fmt.Errorf("%w: titulo and tipo_informe are required", ErrInvalidRequest)
	}

	rep := &Report{
		ID:               uuid.New(),
		Titulo:           dto.Titulo,
		TipoInforme:      dto.TipoInforme,
		Observaciones:    dto.Observaciones,
		RunPaciente:      runPaciente,
		RunMedico:        runMedico,
		ContenidoClinico: dto.ContenidoClinico,
		Archivos:         []Attachment{},
	}

	if dto.TipoInforme == TipoControlAnticoagulacion {
		if err := s.completeControlContent(ctx, rep); err != nil {
			return nil, err
		}
	}

	attachType := TipoDocumentoAdjunto
	if dto.TipoInforme == TipoControlAnticoagulacion {
		attachType = TipoResultadoINR
	}
	for _, f := range files {
		// The storage key is sanitized; the attachment keeps the name the
		// caller uploaded under.
		name := SanitizeFileName(f.Name)
		storagePath, err := s.store.Upload(ctx, bytes.NewReader(f.Content), "reports/"+rep.ID.String(), name)
		if err != nil {
			return nil, fmt.Errorf("uploading %s: %w", name, err)
		}
		rep.Archivos = append(rep.Archivos, Attachment{
			Nombre:  f.Name,
			Tipo:    attachType,
			Formato: strings.TrimPrefix(path.Ext(name), "."),
			URLPath: storagePath,
		})
	}

	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Service) completeControlContent(ctx context.Context, rep *Report) error {
	cc := rep.ContenidoClinico
	if cc == nil || cc.DosisDiaria == nil {
		return fmt.Errorf("%w: dosis_diaria is required for %s", ErrInvalidRequest, TipoControlAnticoagulacion)
	}
	if !cc.DosisDiaria.Complete() {
		return fmt.Errorf("%w: dosis_diaria must cover all seven days", ErrInvalidRequest)
	}

	profile, err := s.profiles.AnticoagulationProfile(ctx, rep.RunPaciente)
	if errors.Is(err, patient.ErrProfileNotConfigured) {
		return fmt.Errorf("%w: anticoagulation profile not configured for patient", ErrInvalidRequest)
	}
	if err != nil {
		return err
	}

	weekly := WeeklyDoseMg(*cc.DosisDiaria, profile.MgPorPastilla)
	cc.DosisSemanalTotalMg = &weekly
	return nil
}

func resolveParties(caller auth.Identity, dto CreateInput) (runPaciente, runMedico string, err error) {
	switch caller.Role {
	case auth.RolePatient:
		if dto.RunMedico == "" {
			return "", "", fmt.Errorf("%w: run_medico is required", ErrInvalidRequest)
		}
		return caller.Run, dto.RunMedico, nil
	case auth.RoleDoctor:
		if dto.RunPaciente == "" {
			return "", "", fmt.Errorf("%w: run_paciente is required", ErrInvalidRequest)
		}
		return dto.RunPaciente, caller.Run, nil
	default:
		return "", "", ErrForbidden
	}
}

func (s *Service) ListByPatient(ctx context.Context, runPaciente string, limit, offset int) ([]*Report, int, error) {
	return s.repo.ListByPatient(ctx, runPaciente, limit, offset)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

var fileNameStrip = regexp.MustCompile(`[^a-z0-9.-]`)

// SanitizeFileName lowercases, converts spaces to hyphens and strips
// everything outside [a-z0-9.-] so the name is safe as a storage key.
func SanitizeFileName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	return fileNameStrip.ReplaceAllString(s, "")
}
