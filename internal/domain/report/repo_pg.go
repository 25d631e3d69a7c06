package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/favodev/meditech/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const reportCols = `id, titulo, tipo_informe, observaciones, run_paciente, run_medico,
	contenido_clinico, archivos, created_at`

func (r *repoPG) scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(&rep.ID, &rep.Titulo, &rep.TipoInforme, &rep.Observaciones,
		&rep.RunPaciente, &rep.RunMedico, &rep.ContenidoClinico, &rep.Archivos, &rep.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *repoPG) Create(ctx context.Context, rep *Report) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO informes (id, titulo, tipo_informe, observaciones, run_paciente, run_medico,
			contenido_clinico, archivos)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rep.ID, rep.Titulo, rep.TipoInforme, rep.Observaciones, rep.RunPaciente, rep.RunMedico,
		rep.ContenidoClinico, rep.Archivos)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return r.scanReport(r.conn(ctx).QueryRow(ctx, `SELECT `+reportCols+` FROM informes WHERE id = $1`, id))
}

func (r *repoPG) ListByPatient(ctx context.Context, runPaciente string, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM informes WHERE run_paciente = $1`, runPaciente).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reportCols+` FROM informes WHERE run_paciente = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, runPaciente, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Report
	for rows.Next() {
		rep, err := r.scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rep)
	}
	return items, total, nil
}

func (r *repoPG) ControlHistory(ctx context.Context, runPaciente string) ([]Observation, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT created_at, (contenido_clinico->>'inr_actual')::float8
		FROM informes
		WHERE run_paciente = $1
		  AND tipo_informe = $2
		  AND contenido_clinico->>'inr_actual' IS NOT NULL
		ORDER BY created_at ASC`, runPaciente, TipoControlAnticoagulacion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.Fecha, &o.INR); err != nil {
			return nil, err
		}
		history = append(history, o)
	}
	return history, rows.Err()
}

// LatestControl returns the newest control regardless of whether it
// carries an INR reading; the caller decides what a missing INR means.
func (r *repoPG) LatestControl(ctx context.Context, runPaciente string) (*Report, error) {
	return r.scanReport(r.conn(ctx).QueryRow(ctx, `
		SELECT `+reportCols+` FROM informes
		WHERE run_paciente = $1
		  AND tipo_informe = $2
		ORDER BY created_at DESC LIMIT 1`, runPaciente, TipoControlAnticoagulacion))
}
