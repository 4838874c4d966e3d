package repo

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"Sismik/internal/config"
	"Sismik/internal/perf"
)

var (
	ErrNotFound = merry.New("not found").WithHTTPCode(http.StatusNotFound).WithUserMessage("Not found")
	ErrConflict = merry.New("conflict").WithHTTPCode(http.StatusConflict).WithUserMessage("Already exists")
)

type User struct {
	ID       int64  `db:"id" json:"id"`
	Login    string `db:"login" json:"login"`
	Email    string `db:"email" json:"email"`
	Password string `db:"password" json:"-"`
}

type Project struct {
	ID          int64     `db:"id" json:"id"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Version struct {
	ID        int64     `db:"id" json:"id"`
	ProjectID int64     `db:"project_id" json:"project_id"`
	Number    int       `db:"number" json:"number"`
	Note      string    `db:"note" json:"note"`
	IsCurrent bool      `db:"is_current" json:"is_current"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type FileKind string

const (
	FileModel   FileKind = "model"
	FileResults FileKind = "results"
	FileOther   FileKind = "other"
)

type File struct {
	ID        string    `db:"id" json:"id"`
	VersionID int64     `db:"version_id" json:"version_id"`
	Kind      FileKind  `db:"kind" json:"kind"`
	Name      string    `db:"name" json:"name"`
	Path      string    `db:"path" json:"-"`
	Size      int64     `db:"size" json:"size"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type UserRepository interface {
	CreateUser(ctx context.Context, login, email, passwordHash string) (int64, error)
	UserByLogin(ctx context.Context, login string) (User, error)
}

type Repository interface {
	UserRepository

	CreateProject(ctx context.Context, p Project) (Project, error)
	Project(ctx context.Context, id int64) (Project, error)
	ProjectsByOwner(ctx context.Context, ownerID int64) ([]Project, error)
	DeleteProject(ctx context.Context, id int64) error

	CreateVersion(ctx context.Context, projectID int64, note string) (Version, error)
	Versions(ctx context.Context, projectID int64) ([]Version, error)
	Version(ctx context.Context, id int64) (Version, error)
	SetCurrentVersion(ctx context.Context, projectID, versionID int64) error

	ReplaceResults(ctx context.Context, versionID int64, rows []perf.ResultRow) error
	Results(ctx context.Context, versionID int64) ([]perf.ResultRow, error)

	CreateFile(ctx context.Context, f File) (File, error)
	File(ctx context.Context, id string) (File, error)
	FilesByVersion(ctx context.Context, versionID int64) ([]File, error)
}

// Open connects to Postgres. URLs without sslmode get sslmode=require.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	connStr := cfg.URL
	if !strings.Contains(connStr, "sslmode=") {
		if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
			sep := "?"
			if strings.Contains(connStr, "?") {
				sep = "&"
			}
			connStr = connStr + sep + "sslmode=require"
		} else {
			connStr = connStr + " sslmode=require"
		}
	}
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, merry.Prepend(err, "open database")
	}
	maxConns := cfg.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 25
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, merry.Prepend(err, "ping database")
	}
	return db, nil
}

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return merry.Prepend(err, "migrate")
}

func notFound(err error) error {
	if err == sql.ErrNoRows {
		return ErrNotFound.Here()
	}
	return err
}
