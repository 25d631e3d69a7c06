package patient

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Medications prescribed for oral anticoagulation therapy.
const (
	MedAcenocumarol = "Acenocumarol"
	MedWarfarina    = "Warfarina"
	MedOtro         = "Otro"
)

// DefaultMgPerTablet is assumed when a profile does not set the tablet
// strength (4 mg, the usual acenocumarol presentation).
const DefaultMgPerTablet = 4.0

// INR bounds accepted on a therapeutic range. Values outside are not
// clinically plausible and are rejected on profile update.
const (
	MinPlausibleINR = 0.5
	MaxPlausibleINR = 20.0
)

// TherapeuticRange is the target INR window for a patient.
type TherapeuticRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultTherapeuticRange is used when a patient has no configured profile.
var DefaultTherapeuticRange = TherapeuticRange{Min: 2.0, Max: 3.0}

func (r TherapeuticRange) Validate() error {
	if r.Min < MinPlausibleINR || r.Max > MaxPlausibleINR {
		return fmt.Errorf("rango_meta out of plausible INR bounds [%.1f, %.1f]", MinPlausibleINR, MaxPlausibleINR)
	}
	if r.Min >= r.Max {
		return fmt.Errorf("rango_meta min (%.2f) must be below max (%.2f)", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether an INR value falls inside the range, inclusive.
func (r TherapeuticRange) Contains(inr float64) bool {
	return inr >= r.Min && inr <= r.Max
}

// AnticoagProfile is the anticoagulation treatment data embedded in a
// patient record. It is created and updated only via profile update.
type AnticoagProfile struct {
	Medicamento            string           `json:"medicamento"`
	MgPorPastilla          float64          `json:"mg_por_pastilla"`
	RangoMeta              TherapeuticRange `json:"rango_meta"`
	DiagnosticoBase        *string          `json:"diagnostico_base,omitempty"`
	FechaInicioTratamiento *time.Time       `json:"fecha_inicio_tratamiento,omitempty"`
}

var validMedications = map[string]bool{
	MedAcenocumarol: true,
	MedWarfarina:    true,
	MedOtro:         true,
}

func (p *AnticoagProfile) Validate() error {
	if !validMedications[p.Medicamento] {
		return fmt.Errorf("unknown medicamento: %q", p.Medicamento)
	}
	if p.MgPorPastilla < 0 {
		return fmt.Errorf("mg_por_pastilla must not be negative")
	}
	return p.RangoMeta.Validate()
}

// Institucion is the embedded institution record on a doctor profile.
type Institucion struct {
	Nombre          string `json:"nombre"`
	TipoInstitucion string `json:"tipo_institucion"`
}

// User is a registered patient or doctor. Account creation and credentials
// are handled by the external identity service; this service reads and
// updates profile data only.
type User struct {
	ID                 uuid.UUID        `json:"id"`
	Role               string           `json:"tipo_usuario"`
	Nombre             string           `json:"nombre"`
	Apellido           string           `json:"apellido"`
	Email              string           `json:"email"`
	Run                string           `json:"run"`
	Telefono           *string          `json:"telefono,omitempty"`
	Sexo               *string          `json:"sexo,omitempty"`
	Direccion          *string          `json:"direccion,omitempty"`
	FechaNacimiento    *time.Time       `json:"fecha_nacimiento,omitempty"`
	TelefonoEmergencia *string          `json:"telefono_emergencia,omitempty"`
	Institucion        *Institucion     `json:"institucion,omitempty"`
	Especialidad       *string          `json:"especialidad,omitempty"`
	TelefonoConsultorio *string         `json:"telefono_consultorio,omitempty"`
	AniosExperiencia   *int             `json:"anios_experiencia,omitempty"`
	RegistroMPI        *string          `json:"registro_mpi,omitempty"`
	Anticoagulacion    *AnticoagProfile `json:"datos_anticoagulacion,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Nombre              *string          `json:"nombre,omitempty"`
	Apellido            *string          `json:"apellido,omitempty"`
	Telefono            *string          `json:"telefono,omitempty"`
	Sexo                *string          `json:"sexo,omitempty"`
	Direccion           *string          `json:"direccion,omitempty"`
	FechaNacimiento     *time.Time       `json:"fecha_nacimiento,omitempty"`
	TelefonoEmergencia  *string          `json:"telefono_emergencia,omitempty"`
	Institucion         *Institucion     `json:"institucion,omitempty"`
	Especialidad        *string          `json:"especialidad,omitempty"`
	TelefonoConsultorio *string          `json:"telefono_consultorio,omitempty"`
	AniosExperiencia    *int             `json:"anios_experiencia,omitempty"`
	RegistroMPI         *string          `json:"registro_mpi,omitempty"`
	Anticoagulacion     *AnticoagProfile `json:"datos_anticoagulacion,omitempty"`
}
