package sharing

import (
	"context"
	"errors"
	"time"

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

// =========== FormalGrant Repository ===========

type grantRepoPG struct{ pool *pgxpool.Pool }

func NewGrantRepoPG(pool *pgxpool.Pool) GrantRepository { return &grantRepoPG{pool: pool} }

func (r *grantRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const grantCols = `id, nivel_acceso, fecha_limite, informe_id_original, run_paciente, run_medico,
	informe, observaciones, created_at, updated_at`

func (r *grantRepoPG) scanGrant(row pgx.Row) (*FormalGrant, error) {
	var g FormalGrant
	err := row.Scan(&g.ID, &g.NivelAcceso, &g.FechaLimite, &g.InformeID, &g.RunPaciente, &g.RunMedico,
		&g.Informe, &g.Observaciones, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *grantRepoPG) Upsert(ctx context.Context, g *FormalGrant) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return r.scanInto(g, r.conn(ctx).QueryRow(ctx, `
		INSERT INTO permisos_compartir (id, nivel_acceso, fecha_limite, informe_id_original,
			run_paciente, run_medico, informe, observaciones)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (informe_id_original, run_medico) DO UPDATE SET
			nivel_acceso = EXCLUDED.nivel_acceso,
			fecha_limite = EXCLUDED.fecha_limite,
			informe = EXCLUDED.informe,
			updated_at = NOW()
		RETURNING `+grantCols,
		g.ID, g.NivelAcceso, g.FechaLimite, g.InformeID, g.RunPaciente, g.RunMedico, g.Informe, g.Observaciones))
}

func (r *grantRepoPG) Insert(ctx context.Context, g *FormalGrant) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return r.scanInto(g, r.conn(ctx).QueryRow(ctx, `
		INSERT INTO permisos_compartir (id, nivel_acceso, fecha_limite, informe_id_original,
			run_paciente, run_medico, informe, observaciones)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+grantCols,
		g.ID, g.NivelAcceso, g.FechaLimite, g.InformeID, g.RunPaciente, g.RunMedico, g.Informe, g.Observaciones))
}

func (r *grantRepoPG) UpdateObservations(ctx context.Context, id uuid.UUID, runPaciente, observaciones string) (*FormalGrant, error) {
	return r.scanGrant(r.conn(ctx).QueryRow(ctx, `
		UPDATE permisos_compartir
		SET observaciones = $3, updated_at = NOW()
		WHERE id = $1 AND run_paciente = $2
		RETURNING `+grantCols, id, runPaciente, observaciones))
}

func (r *grantRepoPG) scanInto(g *FormalGrant, row pgx.Row) error {
	saved, err := r.scanGrant(row)
	if err != nil {
		return err
	}
	*g = *saved
	return nil
}

func (r *grantRepoPG) ListActiveForDoctor(ctx context.Context, runMedico string, now time.Time) ([]*FormalGrant, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+grantCols+` FROM permisos_compartir
		WHERE run_medico = $1 AND fecha_limite > $2
		ORDER BY created_at DESC`, runMedico, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*FormalGrant
	for rows.Next() {
		g, err := r.scanGrant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

// =========== PublicShare Repository ===========

type publicShareRepoPG struct{ pool *pgxpool.Pool }

func NewPublicShareRepoPG(pool *pgxpool.Pool) PublicShareRepository {
	return &publicShareRepoPG{pool: pool}
}

func (r *publicShareRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const shareCols = `id, token, nivel_acceso, fecha_limite, informe_id_original, run_paciente,
	informe, created_at`

func (r *publicShareRepoPG) Insert(ctx context.Context, p *PublicShare) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO permisos_publicos (id, token, nivel_acceso, fecha_limite,
			informe_id_original, run_paciente, informe)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.Token, p.NivelAcceso, p.FechaLimite, p.InformeID, p.RunPaciente, p.Informe)
	return err
}

func (r *publicShareRepoPG) GetByToken(ctx context.Context, token string) (*PublicShare, error) {
	var p PublicShare
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+shareCols+` FROM permisos_publicos WHERE token = $1`, token).
		Scan(&p.ID, &p.Token, &p.NivelAcceso, &p.FechaLimite, &p.InformeID, &p.RunPaciente, &p.Informe, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *publicShareRepoPG) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM permisos_publicos WHERE token = $1`, token)
	return err
}
