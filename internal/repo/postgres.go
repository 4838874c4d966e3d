package repo

import (
	"context"
	"database/sql"

	"github.com/ansel1/merry"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"Sismik/internal/perf"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	login TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL,
	password TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS projects (
	id BIGSERIAL PRIMARY KEY,
	owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS versions (
	id BIGSERIAL PRIMARY KEY,
	project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	number INT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	is_current BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (project_id, number)
);
CREATE TABLE IF NOT EXISTS result_rows (
	version_id BIGINT NOT NULL REFERENCES versions(id) ON DELETE CASCADE,
	position INT NOT NULL,
	earthquake_level TEXT NOT NULL DEFAULT '',
	load_combination TEXT NOT NULL DEFAULT '',
	story TEXT NOT NULL DEFAULT '',
	sh TEXT NOT NULL DEFAULT '',
	kh TEXT NOT NULL DEFAULT '',
	go TEXT NOT NULL DEFAULT '',
	max_x_drift DOUBLE PRECISION,
	avg_x_drift DOUBLE PRECISION,
	max_y_drift DOUBLE PRECISION,
	avg_y_drift DOUBLE PRECISION,
	max_n_n0 DOUBLE PRECISION,
	avg_n_n0 DOUBLE PRECISION,
	PRIMARY KEY (version_id, position)
);
CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	version_id BIGINT NOT NULL REFERENCES versions(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	path TEXT NOT NULL,
	size BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

func (r *PostgresRepository) CreateUser(ctx context.Context, login, email, passwordHash string) (int64, error) {
	var id int64
	query := "INSERT INTO users (login, email, password) VALUES ($1, $2, $3) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, login, email, passwordHash).Scan(&id)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return 0, ErrConflict.Here()
	}
	return id, err
}

func (r *PostgresRepository) UserByLogin(ctx context.Context, login string) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, "SELECT id, login, email, password FROM users WHERE login=$1", login)
	return u, notFound(err)
}

func (r *PostgresRepository) CreateProject(ctx context.Context, p Project) (Project, error) {
	query := `INSERT INTO projects (owner_id, name, description) VALUES ($1, $2, $3)
		RETURNING id, owner_id, name, description, created_at`
	var out Project
	err := r.db.GetContext(ctx, &out, query, p.OwnerID, p.Name, p.Description)
	return out, err
}

func (r *PostgresRepository) Project(ctx context.Context, id int64) (Project, error) {
	var p Project
	err := r.db.GetContext(ctx, &p, "SELECT id, owner_id, name, description, created_at FROM projects WHERE id=$1", id)
	return p, notFound(err)
}

func (r *PostgresRepository) ProjectsByOwner(ctx context.Context, ownerID int64) ([]Project, error) {
	projects := []Project{}
	err := r.db.SelectContext(ctx, &projects,
		"SELECT id, owner_id, name, description, created_at FROM projects WHERE owner_id=$1 ORDER BY created_at DESC, id DESC", ownerID)
	return projects, err
}

func (r *PostgresRepository) DeleteProject(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id=$1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// CreateVersion numbers versions 1, 2, ... per project. The first version of a
// project becomes its current version.
func (r *PostgresRepository) CreateVersion(ctx context.Context, projectID int64, note string) (Version, error) {
	var v Version
	err := r.tx(ctx, func(tx *sqlx.Tx) error {
		var locked int64
		if err := tx.GetContext(ctx, &locked, "SELECT id FROM projects WHERE id=$1 FOR UPDATE", projectID); err != nil {
			return notFound(err)
		}
		query := `INSERT INTO versions (project_id, number, note, is_current)
			SELECT $1, COALESCE(MAX(number), 0) + 1, $2, COUNT(*) = 0 FROM versions WHERE project_id=$1
			RETURNING id, project_id, number, note, is_current, created_at`
		return tx.GetContext(ctx, &v, query, projectID, note)
	})
	return v, err
}

func (r *PostgresRepository) Versions(ctx context.Context, projectID int64) ([]Version, error) {
	versions := []Version{}
	err := r.db.SelectContext(ctx, &versions,
		"SELECT id, project_id, number, note, is_current, created_at FROM versions WHERE project_id=$1 ORDER BY number", projectID)
	return versions, err
}

func (r *PostgresRepository) Version(ctx context.Context, id int64) (Version, error) {
	var v Version
	err := r.db.GetContext(ctx, &v, "SELECT id, project_id, number, note, is_current, created_at FROM versions WHERE id=$1", id)
	return v, notFound(err)
}

// SetCurrentVersion leaves exactly one current version in the project.
func (r *PostgresRepository) SetCurrentVersion(ctx context.Context, projectID, versionID int64) error {
	return r.tx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM versions WHERE project_id=$1 AND id=$2", projectID, versionID); err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound.Here()
		}
		_, err := tx.ExecContext(ctx, "UPDATE versions SET is_current = (id = $2) WHERE project_id = $1", projectID, versionID)
		return err
	})
}

type resultRow struct {
	EarthquakeLevel string          `db:"earthquake_level"`
	LoadCombination string          `db:"load_combination"`
	Story           string          `db:"story"`
	SH              string          `db:"sh"`
	KH              string          `db:"kh"`
	GO              string          `db:"go"`
	MaxXDrift       sql.NullFloat64 `db:"max_x_drift"`
	AvgXDrift       sql.NullFloat64 `db:"avg_x_drift"`
	MaxYDrift       sql.NullFloat64 `db:"max_y_drift"`
	AvgYDrift       sql.NullFloat64 `db:"avg_y_drift"`
	MaxNN0          sql.NullFloat64 `db:"max_n_n0"`
	AvgNN0          sql.NullFloat64 `db:"avg_n_n0"`
}

func toNull(n perf.Number) sql.NullFloat64 {
	return sql.NullFloat64{Float64: n.Value, Valid: n.Valid}
}

func fromNull(n sql.NullFloat64) perf.Number {
	if !n.Valid {
		return perf.Number{}
	}
	return perf.Num(n.Float64)
}

// ReplaceResults swaps the whole result table of a version in one transaction.
func (r *PostgresRepository) ReplaceResults(ctx context.Context, versionID int64, rows []perf.ResultRow) error {
	return r.tx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM result_rows WHERE version_id=$1", versionID); err != nil {
			return err
		}
		stmt, err := tx.PreparexContext(ctx, `INSERT INTO result_rows (version_id, position, earthquake_level,
			load_combination, story, sh, kh, go, max_x_drift, avg_x_drift, max_y_drift, avg_y_drift, max_n_n0, avg_n_n0)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, row := range rows {
			_, err := stmt.ExecContext(ctx, versionID, i, string(row.EarthquakeLevel), row.LoadCombination, row.Story,
				row.SH, row.KH, row.GO,
				toNull(row.MaxXDrift), toNull(row.AvgXDrift), toNull(row.MaxYDrift), toNull(row.AvgYDrift),
				toNull(row.MaxNN0), toNull(row.AvgNN0))
			if err != nil {
				return merry.Prependf(err, "insert row %d", i)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) Results(ctx context.Context, versionID int64) ([]perf.ResultRow, error) {
	var rows []resultRow
	err := r.db.SelectContext(ctx, &rows, `SELECT earthquake_level, load_combination, story, sh, kh, go,
		max_x_drift, avg_x_drift, max_y_drift, avg_y_drift, max_n_n0, avg_n_n0
		FROM result_rows WHERE version_id=$1 ORDER BY position`, versionID)
	if err != nil {
		return nil, err
	}
	out := make([]perf.ResultRow, len(rows))
	for i, x := range rows {
		out[i] = perf.ResultRow{
			EarthquakeLevel: perf.EarthquakeLevel(x.EarthquakeLevel),
			LoadCombination: x.LoadCombination,
			Story:           x.Story,
			SH:              x.SH,
			KH:              x.KH,
			GO:              x.GO,
			MaxXDrift:       fromNull(x.MaxXDrift),
			AvgXDrift:       fromNull(x.AvgXDrift),
			MaxYDrift:       fromNull(x.MaxYDrift),
			AvgYDrift:       fromNull(x.AvgYDrift),
			MaxNN0:          fromNull(x.MaxNN0),
			AvgNN0:          fromNull(x.AvgNN0),
		}
	}
	return out, nil
}

func (r *PostgresRepository) CreateFile(ctx context.Context, f File) (File, error) {
	var out File
	err := r.db.GetContext(ctx, &out, `INSERT INTO files (id, version_id, kind, name, path, size)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, version_id, kind, name, path, size, created_at`,
		f.ID, f.VersionID, string(f.Kind), f.Name, f.Path, f.Size)
	return out, err
}

func (r *PostgresRepository) File(ctx context.Context, id string) (File, error) {
	var f File
	err := r.db.GetContext(ctx, &f, "SELECT id, version_id, kind, name, path, size, created_at FROM files WHERE id=$1", id)
	return f, notFound(err)
}

func (r *PostgresRepository) FilesByVersion(ctx context.Context, versionID int64) ([]File, error) {
	files := []File{}
	err := r.db.SelectContext(ctx, &files,
		"SELECT id, version_id, kind, name, path, size, created_at FROM files WHERE version_id=$1 ORDER BY created_at", versionID)
	return files, err
}

func (r *PostgresRepository) tx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound.Here()
	}
	return nil
}
