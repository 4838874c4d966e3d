package store

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ansel1/merry"

	"Sismik/internal/applog"
	"Sismik/internal/cache"
	"Sismik/internal/perf"
	"Sismik/internal/repo"
)

var log = applog.New("store")

// Store is the data-access layer used by the handlers. Reads are served from
// the cache when possible; writes go to the repository and then drop the
// cached entries of the affected project.
type Store struct {
	repo  repo.Repository
	cache *cache.Cache[interface{}]
	ttl   time.Duration
}

func New(r repo.Repository, c *cache.Cache[interface{}], ttl time.Duration) *Store {
	return &Store{repo: r, cache: c, ttl: ttl}
}

func projectResource(id int64) string { return cache.Resource("projects", id) }

func ownerResource(owner int64) string { return cache.Resource("owners", owner, "projects") }

// cached returns the value under key or loads and stores it.
func cached[T any](s *Store, key string, load func() (T, error)) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Set(key, v, s.ttl)
	return v, nil
}

func (s *Store) invalidate(prefix string) {
	n := s.cache.RemoveByPrefix(prefix)
	log.Debug("cache invalidated", "prefix", prefix, "entries", n)
}

func (s *Store) Projects(ctx context.Context, owner int64) ([]repo.Project, error) {
	return cached(s, cache.Key(ownerResource(owner), nil), func() ([]repo.Project, error) {
		return s.repo.ProjectsByOwner(ctx, owner)
	})
}

// Project returns the project if owner may see it. Projects of other users
// are reported as not found.
func (s *Store) Project(ctx context.Context, owner, id int64) (repo.Project, error) {
	p, err := cached(s, cache.Key(projectResource(id), nil), func() (repo.Project, error) {
		return s.repo.Project(ctx, id)
	})
	if err != nil {
		return repo.Project{}, err
	}
	if p.OwnerID != owner {
		return repo.Project{}, repo.ErrNotFound.Here()
	}
	return p, nil
}

func (s *Store) CreateProject(ctx context.Context, owner int64, name, description string) (repo.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repo.Project{}, merry.New("empty project name").WithHTTPCode(http.StatusBadRequest).WithUserMessage("Project name required")
	}
	p, err := s.repo.CreateProject(ctx, repo.Project{OwnerID: owner, Name: name, Description: strings.TrimSpace(description)})
	if err != nil {
		return repo.Project{}, merry.Prepend(err, "create project")
	}
	s.invalidate(ownerResource(owner))
	return p, nil
}

func (s *Store) DeleteProject(ctx context.Context, owner, id int64) error {
	if _, err := s.Project(ctx, owner, id); err != nil {
		return err
	}
	files, err := s.projectFiles(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return merry.Prepend(err, "delete project")
	}
	s.invalidate(projectResource(id))
	s.invalidate(ownerResource(owner))
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			log.PrintErr("remove stored file", "id", f.ID, "path", f.Path, "err", err)
		}
	}
	return nil
}

// projectFiles lists the uploads of every version of a project.
func (s *Store) projectFiles(ctx context.Context, projectID int64) ([]repo.File, error) {
	versions, err := s.repo.Versions(ctx, projectID)
	if err != nil {
		return nil, merry.Prepend(err, "list versions")
	}
	var files []repo.File
	for _, v := range versions {
		fs, err := s.repo.FilesByVersion(ctx, v.ID)
		if err != nil {
			return nil, merry.Prepend(err, "list files")
		}
		files = append(files, fs...)
	}
	return files, nil
}

func (s *Store) Versions(ctx context.Context, owner, projectID int64) ([]repo.Version, error) {
	if _, err := s.Project(ctx, owner, projectID); err != nil {
		return nil, err
	}
	return cached(s, cache.Key(cache.Resource("projects", projectID, "versions"), nil), func() ([]repo.Version, error) {
		return s.repo.Versions(ctx, projectID)
	})
}

// Version returns a version of a project owned by owner.
func (s *Store) Version(ctx context.Context, owner, projectID, versionID int64) (repo.Version, error) {
	if _, err := s.Project(ctx, owner, projectID); err != nil {
		return repo.Version{}, err
	}
	v, err := cached(s, cache.Key(cache.Resource("projects", projectID, "versions", versionID), nil), func() (repo.Version, error) {
		return s.repo.Version(ctx, versionID)
	})
	if err != nil {
		return repo.Version{}, err
	}
	if v.ProjectID != projectID {
		return repo.Version{}, repo.ErrNotFound.Here()
	}
	return v, nil
}

func (s *Store) CreateVersion(ctx context.Context, owner, projectID int64, note string) (repo.Version, error) {
	if _, err := s.Project(ctx, owner, projectID); err != nil {
		return repo.Version{}, err
	}
	v, err := s.repo.CreateVersion(ctx, projectID, strings.TrimSpace(note))
	if err != nil {
		return repo.Version{}, merry.Prepend(err, "create version")
	}
	s.invalidate(projectResource(projectID))
	return v, nil
}

func (s *Store) SetCurrentVersion(ctx context.Context, owner, projectID, versionID int64) error {
	if _, err := s.Version(ctx, owner, projectID, versionID); err != nil {
		return err
	}
	if err := s.repo.SetCurrentVersion(ctx, projectID, versionID); err != nil {
		return merry.Prepend(err, "set current version")
	}
	s.invalidate(projectResource(projectID))
	return nil
}

// Results implements perf.Source.
func (s *Store) Results(ctx context.Context, owner, projectID, versionID int64) (perf.Dataset, error) {
	v, err := s.Version(ctx, owner, projectID, versionID)
	if err != nil {
		return perf.Dataset{}, err
	}
	rows, err := cached(s, cache.Key(cache.Resource("projects", projectID, "versions", versionID, "results"), nil), func() ([]perf.ResultRow, error) {
		return s.repo.Results(ctx, versionID)
	})
	if err != nil {
		return perf.Dataset{}, err
	}
	return perf.Dataset{VersionID: v.ID, IsCurrent: v.IsCurrent, Rows: rows}, nil
}

func (s *Store) ReplaceResults(ctx context.Context, owner, projectID, versionID int64, rows []perf.ResultRow) error {
	if _, err := s.Version(ctx, owner, projectID, versionID); err != nil {
		return err
	}
	if err := s.repo.ReplaceResults(ctx, versionID, rows); err != nil {
		return merry.Prepend(err, "store results")
	}
	s.invalidate(cache.Resource("projects", projectID, "versions", versionID))
	return nil
}

func (s *Store) Files(ctx context.Context, owner, projectID, versionID int64) ([]repo.File, error) {
	if _, err := s.Version(ctx, owner, projectID, versionID); err != nil {
		return nil, err
	}
	return cached(s, cache.Key(cache.Resource("projects", projectID, "versions", versionID, "files"), nil), func() ([]repo.File, error) {
		return s.repo.FilesByVersion(ctx, versionID)
	})
}

func (s *Store) AddFile(ctx context.Context, owner, projectID int64, f repo.File) (repo.File, error) {
	if _, err := s.Version(ctx, owner, projectID, f.VersionID); err != nil {
		return repo.File{}, err
	}
	out, err := s.repo.CreateFile(ctx, f)
	if err != nil {
		return repo.File{}, merry.Prepend(err, "record file")
	}
	s.invalidate(cache.Resource("projects", projectID, "versions", f.VersionID, "files"))
	return out, nil
}

// File returns the file if it belongs to a project of owner.
func (s *Store) File(ctx context.Context, owner int64, id string) (repo.File, error) {
	f, err := s.repo.File(ctx, id)
	if err != nil {
		return repo.File{}, err
	}
	v, err := s.repo.Version(ctx, f.VersionID)
	if err != nil {
		return repo.File{}, err
	}
	if _, err := s.Project(ctx, owner, v.ProjectID); err != nil {
		return repo.File{}, err
	}
	return f, nil
}
