package report

import (
	"context"
	"errors"
	"time"

	"github.com/favodev/meditech/internal/domain/patient"
)

// Per-observation status relative to the therapeutic range.
const (
	EstadoBajo = "bajo"
	EstadoMeta = "meta"
	EstadoAlto = "alto"
)

// ChartPoint is one INR reading prepared for the patient's evolution chart.
type ChartPoint struct {
	Fecha  time.Time `json:"fecha"`
	INR    float64   `json:"inr"`
	Estado string    `json:"estado"`
}

// ClinicalSummary aggregates a patient's anticoagulation history.
type ClinicalSummary struct {
	RangoMeta        patient.TherapeuticRange `json:"rango_meta"`
	TTRPorcentaje    float64                  `json:"ttr_porcentaje"`
	TotalControles   int                      `json:"total_controles"`
	HistorialGrafico []ChartPoint             `json:"historial_grafico"`
}

// Stats computes patient-level statistics over the stored control history.
type Stats struct {
	repo     Repository
	profiles ProfileSource
}

func NewStats(repo Repository, profiles ProfileSource) *Stats {
	return &Stats{repo: repo, profiles: profiles}
}

// ClinicalSummary builds the dashboard summary: the patient's range (default
// when no profile is configured), per-reading status, aggregate Rosendaal
// TTR and the chart history.
func (s *Stats) ClinicalSummary(ctx context.Context, runPaciente string) (*ClinicalSummary, error) {
	rng, err := s.rangeFor(ctx, runPaciente)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ControlHistory(ctx, runPaciente)
	if err != nil {
		return nil, err
	}

	chart := make([]ChartPoint, 0, len(history))
	for _, o := range history {
		chart = append(chart, ChartPoint{Fecha: o.Fecha, INR: o.INR, Estado: statusFor(o.INR, rng)})
	}

	return &ClinicalSummary{
		RangoMeta:        rng,
		TTRPorcentaje:    ComputeTTR(history, rng),
		TotalControles:   len(history),
		HistorialGrafico: chart,
	}, nil
}

// IntervalTTRPreview computes the 2-point TTR of an about-to-be-recorded
// reading against the patient's most recent control. Returns nil when the
// patient has no prior control to compare against.
func (s *Stats) IntervalTTRPreview(ctx context.Context, runPaciente string, newINR float64, newDate time.Time) (*float64, error) {
	rng, err := s.rangeFor(ctx, runPaciente)
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.LatestControl(ctx, runPaciente)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if latest.ContenidoClinico == nil || latest.ContenidoClinico.INRActual == nil {
		return nil, nil
	}

	prior := Observation{Fecha: latest.CreatedAt, INR: *latest.ContenidoClinico.INRActual}
	ttr := IntervalTTR(prior, newINR, newDate, rng)
	return &ttr, nil
}

func (s *Stats) rangeFor(ctx context.Context, runPaciente string) (patient.TherapeuticRange, error) {
	profile, err := s.profiles.AnticoagulationProfile(ctx, runPaciente)
	if errors.Is(err, patient.ErrProfileNotConfigured) {
		return patient.DefaultTherapeuticRange, nil
	}
	if err != nil {
		return patient.TherapeuticRange{}, err
	}
	return profile.RangoMeta, nil
}

func statusFor(inr float64, rng patient.TherapeuticRange) string {
	switch {
	case inr < rng.Min:
		return EstadoBajo
	case inr > rng.Max:
		return EstadoAlto
	default:
		return EstadoMeta
	}
}
