package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TipoControlAnticoagulacion is the only report type carrying structured
// clinical content (INR reading, dose calendar).
const TipoControlAnticoagulacion = "Control de Anticoagulación"

// Attachment category labels.
const (
	TipoResultadoINR     = "Resultado INR"
	TipoDocumentoAdjunto = "Documento Adjunto"
)

// DoseCalendar is the per-day anticoagulant instruction text, exactly as a
// clinician writes it ("1", "1/2", "1 1/4", "sin dosis").
type DoseCalendar struct {
	Lunes     string `json:"lunes"`
	Martes    string `json:"martes"`
	Miercoles string `json:"miercoles"`
	Jueves    string `json:"jueves"`
	Viernes   string `json:"viernes"`
	Sabado    string `json:"sabado"`
	Domingo   string `json:"domingo"`
}

// Days returns the seven instructions in week order.
func (d DoseCalendar) Days() [7]string {
	return [7]string{d.Lunes, d.Martes, d.Miercoles, d.Jueves, d.Viernes, d.Sabado, d.Domingo}
}

// Complete reports whether all seven days carry a non-blank instruction.
func (d DoseCalendar) Complete() bool {
	for _, day := range d.Days() {
		if strings.TrimSpace(day) == "" {
			return false
		}
	}
	return true
}

// ClinicalContent is the structured payload of an anticoagulation control
// report. DosisSemanalTotalMg is always computed server-side, never taken
// from the client.
type ClinicalContent struct {
	INRActual             *float64      `json:"inr_actual,omitempty"`
	FechaProximoControl   *time.Time    `json:"fecha_proximo_control,omitempty"`
	DosisDiaria           *DoseCalendar `json:"dosis_diaria,omitempty"`
	DosisSemanalTotalMg   *float64      `json:"dosis_semanal_total_mg,omitempty"`
	ObservacionesClinicas *string       `json:"observaciones_clinicas,omitempty"`
}

// Attachment records where an uploaded file lives in storage. URLPath is a
// storage path, not a signed URL.
type Attachment struct {
	Nombre  string `json:"nombre"`
	Tipo    string `json:"tipo"`
	Formato string `json:"formato"`
	URLPath string `json:"urlpath"`
}

// Report is a clinical report. Reports are append-only.
type Report struct {
	ID               uuid.UUID        `json:"id"`
	Titulo           string           `json:"titulo"`
	TipoInforme      string           `json:"tipo_informe"`
	Observaciones    *string          `json:"observaciones,omitempty"`
	RunPaciente      string           `json:"run_paciente"`
	RunMedico        string           `json:"run_medico"`
	ContenidoClinico *ClinicalContent `json:"contenido_clinico,omitempty"`
	Archivos         []Attachment     `json:"archivos"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Observation is one dated INR reading, the unit the Rosendaal engine
// consumes.
type Observation struct {
	Fecha time.Time `json:"fecha"`
	INR   float64   `json:"inr"`
}
