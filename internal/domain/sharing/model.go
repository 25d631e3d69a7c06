package sharing

import (
	"time"

	"github.com/google/uuid"

	"github.com/favodev/meditech/internal/domain/report"
)

// Access levels a patient can grant over a shared report.
const (
	NivelLectura  = "lectura"
	NivelCompleto = "completo"
)

// ReportSnapshot is a point-in-time deep copy of the shared report. Grants
// and public tokens embed the snapshot instead of referencing the live
// report, so later edits or deletions never change what was shared.
type ReportSnapshot struct {
	Titulo           string                  `json:"titulo"`
	TipoInforme      string                  `json:"tipo_informe"`
	Observaciones    *string                 `json:"observaciones,omitempty"`
	ContenidoClinico *report.ClinicalContent `json:"contenido_clinico,omitempty"`
	Archivos         []report.Attachment     `json:"archivos"`
}

// FormalGrant is a named, durable sharing permission between a patient and
// one doctor for one report. At most one grant exists per
// (report, doctor) pair; re-granting refreshes snapshot and expiry.
type FormalGrant struct {
	ID            uuid.UUID      `json:"id"`
	NivelAcceso   string         `json:"nivel_acceso"`
	FechaLimite   time.Time      `json:"fecha_limite"`
	InformeID     uuid.UUID      `json:"informe_id_original"`
	RunPaciente   string         `json:"run_paciente"`
	RunMedico     string         `json:"run_medico"`
	Informe       ReportSnapshot `json:"informe"`
	Observaciones *string        `json:"observaciones,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// PublicShare is an anonymous token-bearer link to a report snapshot.
// Attachment paths inside the snapshot are pre-signed URLs minted at
// creation time with the same TTL as the token.
type PublicShare struct {
	ID          uuid.UUID      `json:"id"`
	Token       string         `json:"token"`
	NivelAcceso string         `json:"nivel_acceso"`
	FechaLimite time.Time      `json:"fecha_limite"`
	InformeID   uuid.UUID      `json:"informe_id_original"`
	RunPaciente string         `json:"run_paciente"`
	Informe     ReportSnapshot `json:"informe"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PublicShareResult is what the patient gets back: a viewer URL, a QR code
// encoding it (PNG data URL) and the TTL in minutes.
type PublicShareResult struct {
	URL               string `json:"Url"`
	QR                string `json:"Qr"`
	ExpirationMinutes int    `json:"ExpirationMinutes"`
}
