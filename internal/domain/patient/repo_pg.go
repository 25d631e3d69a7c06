package patient

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

const userCols = `id, tipo_usuario, nombre, apellido, email, run,
	telefono, sexo, direccion, fecha_nacimiento, telefono_emergencia,
	institucion, especialidad, telefono_consultorio, anios_experiencia, registro_mpi,
	datos_anticoagulacion, created_at, updated_at`

func (r *repoPG) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Role, &u.Nombre, &u.Apellido, &u.Email, &u.Run,
		&u.Telefono, &u.Sexo, &u.Direccion, &u.FechaNacimiento, &u.TelefonoEmergencia,
		&u.Institucion, &u.Especialidad, &u.TelefonoConsultorio, &u.AniosExperiencia, &u.RegistroMPI,
		&u.Anticoagulacion, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO usuarios (id, tipo_usuario, nombre, apellido, email, run,
			telefono, sexo, direccion, fecha_nacimiento, telefono_emergencia,
			institucion, especialidad, telefono_consultorio, anios_experiencia, registro_mpi,
			datos_anticoagulacion)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		u.ID, u.Role, u.Nombre, u.Apellido, u.Email, u.Run,
		u.Telefono, u.Sexo, u.Direccion, u.FechaNacimiento, u.TelefonoEmergencia,
		u.Institucion, u.Especialidad, u.TelefonoConsultorio, u.AniosExperiencia, u.RegistroMPI,
		u.Anticoagulacion)
	return err
}

func (r *repoPG) GetByRun(ctx context.Context, run string) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM usuarios WHERE run = $1`, run))
}

func (r *repoPG) Update(ctx context.Context, u *User) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE usuarios SET nombre=$2, apellido=$3,
			telefono=$4, sexo=$5, direccion=$6, fecha_nacimiento=$7, telefono_emergencia=$8,
			institucion=$9, especialidad=$10, telefono_consultorio=$11, anios_experiencia=$12, registro_mpi=$13,
			datos_anticoagulacion=$14, updated_at=NOW()
		WHERE run = $1`,
		u.Run, u.Nombre, u.Apellido,
		u.Telefono, u.Sexo, u.Direccion, u.FechaNacimiento, u.TelefonoEmergencia,
		u.Institucion, u.Especialidad, u.TelefonoConsultorio, u.AniosExperiencia, u.RegistroMPI,
		u.Anticoagulacion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
