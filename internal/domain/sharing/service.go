package sharing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/favodev/meditech/internal/domain/patient"
	"github.com/favodev/meditech/internal/domain/report"
	"github.com/favodev/meditech/internal/platform/storage"
)

var (
	ErrInvalidRequest = errors.New("invalid sharing request")
	ErrForbidden      = errors.New("sharing not permitted")
	ErrNotFound       = errors.New("shared resource not found")
)

// ReportSource supplies the report being shared.
type ReportSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error)
}

// DoctorDirectory verifies the named doctor exists with the doctor role.
type DoctorDirectory interface {
	FindDoctor(ctx context.Context, run string) (*patient.User, error)
}

type Config struct {
	PublicShareTTL   time.Duration
	PublicViewerURL  string
	DefaultGrantDays int
}

type Service struct {
	grants  GrantRepository
	tokens  PublicShareRepository
	reports ReportSource
	doctors DoctorDirectory
	store   storage.Store
	cfg     Config
	now     func() time.Time
}

func NewService(grants GrantRepository, tokens PublicShareRepository, reports ReportSource, doctors DoctorDirectory, store storage.Store, cfg Config) *Service {
	if cfg.PublicShareTTL <= 0 {
		cfg.PublicShareTTL = 60 * time.Minute
	}
	if cfg.DefaultGrantDays <= 0 {
		cfg.DefaultGrantDays = 30
	}
	return &Service{grants: grants, tokens: tokens, reports: reports, doctors: doctors, store: store, cfg: cfg, now: time.Now}
}

func snapshotOf(rep *report.Report) ReportSnapshot {
	snap := ReportSnapshot{
		Titulo:      rep.Titulo,
		TipoInforme: rep.TipoInforme,
		Archivos:    make([]report.Attachment, len(rep.Archivos)),
	}
	copy(snap.Archivos, rep.Archivos)
	if rep.Observaciones != nil {
		obs := *rep.Observaciones
		snap.Observaciones = &obs
	}
	if rep.ContenidoClinico != nil {
		cc := *rep.ContenidoClinico
		snap.ContenidoClinico = &cc
	}
	return snap
}

// CreateFormalAccess grants a named doctor time-limited access to one
// report. The doctor must exist with the doctor role and the report must
// exist; a repeated grant for the same (report, doctor) pair refreshes the
// stored snapshot and expiry instead of duplicating.
func (s *Service) CreateFormalAccess(ctx context.Context, patientRun, doctorRun string, reportID uuid.UUID, expiryDays int) (*FormalGrant, error) {
	if doctorRun == "" || reportID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctorRun and reportId are required", ErrInvalidRequest)
	}
	if _, err := s.doctors.FindDoctor(ctx, doctorRun); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, fmt.Errorf("%w: medico %s", ErrNotFound, doctorRun)
		}
		return nil, err
	}

	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			return nil, fmt.Errorf("%w: informe %s", ErrNotFound, reportID)
		}
		return nil, err
	}

	days := expiryDays
	if days <= 0 {
		days = s.cfg.DefaultGrantDays
	}

	grant := &FormalGrant{
		NivelAcceso: NivelLectura,
		FechaLimite: s.now().AddDate(0, 0, days),
		InformeID:   rep.ID,
		RunPaciente: patientRun,
		RunMedico:   doctorRun,
		Informe:     snapshotOf(rep),
	}
	if err := s.grants.Upsert(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// LegacyCreateInput is the body of the original sharing endpoint, which
// trusts the caller-supplied doctor RUN and attachment list.
type LegacyCreateInput struct {
	NivelAcceso string              `json:"nivel_acceso"`
	FechaLimite *time.Time          `json:"fecha_limite,omitempty"`
	RunMedico   string              `json:"run_medico"`
	InformeID   uuid.UUID           `json:"informe_id_original"`
	Archivos    []report.Attachment `json:"archivos,omitempty"`
}

// CreateLegacy inserts a grant without verifying the named doctor exists or
// that the caller owns the report. Kept as a distinct path for the clients
// still using it; new clients go through CreateFormalAccess.
func (s *Service) CreateLegacy(ctx context.Context, patientRun string, dto LegacyCreateInput) (*FormalGrant, error) {
	if dto.NivelAcceso == "" || dto.RunMedico == "" || dto.InformeID == uuid.Nil {
		return nil, fmt.Errorf("%w: nivel_acceso, run_medico and informe_id_original are required", ErrInvalidRequest)
	}

	rep, err := s.reports.GetByID(ctx, dto.InformeID)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			return nil, fmt.Errorf("%w: informe %s", ErrNotFound, dto.InformeID)
		}
		return nil, err
	}

	snap := snapshotOf(rep)
	if len(dto.Archivos) > 0 {
		snap.Archivos = dto.Archivos
	}

	limit := s.now().AddDate(0, 0, s.cfg.DefaultGrantDays)
	if dto.FechaLimite != nil {
		limit = *dto.FechaLimite
	}

	grant := &FormalGrant{
		NivelAcceso: dto.NivelAcceso,
		FechaLimite: limit,
		InformeID:   rep.ID,
		RunPaciente: patientRun,
		RunMedico:   dto.RunMedico,
		Informe:     snap,
	}
	if err := s.grants.Insert(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// UpdateGrantObservations sets the patient's note on one of their own
// grants. Grants belonging to other patients surface as not found.
func (s *Service) UpdateGrantObservations(ctx context.Context, patientRun string, id uuid.UUID, observaciones string) (*FormalGrant, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: grant id is required", ErrInvalidRequest)
	}
	return s.grants.UpdateObservations(ctx, id, patientRun, observaciones)
}

// SharedWithDoctor lists the non-expired grants naming the caller.
func (s *Service) SharedWithDoctor(ctx context.Context, doctorRun string) ([]*FormalGrant, error) {
	return s.grants.ListActiveForDoctor(ctx, doctorRun, s.now())
}

// PublicCreateInput is the body of the public share endpoint.
type PublicCreateInput struct {
	NivelAcceso string              `json:"nivel_acceso"`
	InformeID   uuid.UUID           `json:"informe_id_original"`
	Archivos    []report.Attachment `json:"archivos,omitempty"`
}

// CreatePublicShare mints an anonymous time-boxed link to one of the
// caller's own reports. Every attachment in the snapshot is replaced by a
// pre-signed download URL with the same TTL as the token, so the link and
// its files expire together.
func (s *Service) CreatePublicShare(ctx context.Context, patientRun string, dto PublicCreateInput) (*PublicShareResult, error) {
	if dto.InformeID == uuid.Nil {
		return nil, fmt.Errorf("%w: informe_id_original is required", ErrInvalidRequest)
	}

	rep, err := s.reports.GetByID(ctx, dto.InformeID)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			return nil, fmt.Errorf("%w: informe %s", ErrNotFound, dto.InformeID)
		}
		return nil, err
	}
	if rep.RunPaciente != patientRun {
		return nil, fmt.Errorf("%w: el informe no pertenece al paciente", ErrForbidden)
	}

	snap := snapshotOf(rep)
	if len(dto.Archivos) > 0 {
		snap.Archivos = dto.Archivos
	}
	for i, a := range snap.Archivos {
		signed, err := s.store.SignedDownloadURL(ctx, a.URLPath, a.Nombre, a.Formato, s.cfg.PublicShareTTL)
		if err != nil {
			return nil, fmt.Errorf("signing %s: %w", a.URLPath, err)
		}
		snap.Archivos[i].URLPath = signed
	}

	nivel := dto.NivelAcceso
	if nivel == "" {
		nivel = NivelLectura
	}

	share := &PublicShare{
		Token:       uuid.New().String(),
		NivelAcceso: nivel,
		FechaLimite: s.now().Add(s.cfg.PublicShareTTL),
		InformeID:   rep.ID,
		RunPaciente: patientRun,
		Informe:     snap,
	}
	if err := s.tokens.Insert(ctx, share); err != nil {
		return nil, err
	}

	viewerURL := s.cfg.PublicViewerURL + "?token=" + share.Token
	png, err := qrcode.Encode(viewerURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encoding qr: %w", err)
	}

	return &PublicShareResult{
		URL:               viewerURL,
		QR:                "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		ExpirationMinutes: int(s.cfg.PublicShareTTL / time.Minute),
	}, nil
}

// ResolvePublicShare returns the snapshot behind a token. Expired tokens
// are deleted on read and rejected; the window where two concurrent reads
// both pass the expiry check is accepted.
func (s *Service) ResolvePublicShare(ctx context.Context, token string) (*ReportSnapshot, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidRequest)
	}

	share, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.now().After(share.FechaLimite) {
		if err := s.tokens.DeleteByToken(ctx, token); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: enlace expirado", ErrForbidden)
	}
	return &share.Informe, nil
}
