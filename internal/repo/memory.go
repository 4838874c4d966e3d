package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"Sismik/internal/perf"
)

// Memory is a Repository kept in process memory. It backs the server when
// DATABASE_URL is "memory" and the handler tests.
type Memory struct {
	mu       sync.Mutex
	nextID   int64
	users    map[string]User
	projects map[int64]Project
	versions map[int64]Version
	results  map[int64][]perf.ResultRow
	files    map[string]File
}

func NewMemory() *Memory {
	return &Memory{
		users:    map[string]User{},
		projects: map[int64]Project{},
		versions: map[int64]Version{},
		results:  map[int64][]perf.ResultRow{},
		files:    map[string]File{},
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) CreateUser(ctx context.Context, login, email, passwordHash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[login]; ok {
		return 0, ErrConflict.Here()
	}
	u := User{ID: m.id(), Login: login, Email: email, Password: passwordHash}
	m.users[login] = u
	return u.ID, nil
}

func (m *Memory) UserByLogin(ctx context.Context, login string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[login]
	if !ok {
		return User{}, ErrNotFound.Here()
	}
	return u, nil
}

func (m *Memory) CreateProject(ctx context.Context, p Project) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.CreatedAt = time.Now().UTC()
	m.projects[p.ID] = p
	return p, nil
}

func (m *Memory) Project(ctx context.Context, id int64) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return Project{}, ErrNotFound.Here()
	}
	return p, nil
}

func (m *Memory) ProjectsByOwner(ctx context.Context, ownerID int64) ([]Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Project{}
	for _, p := range m.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) DeleteProject(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return ErrNotFound.Here()
	}
	delete(m.projects, id)
	for vid, v := range m.versions {
		if v.ProjectID != id {
			continue
		}
		delete(m.versions, vid)
		delete(m.results, vid)
		for fid, f := range m.files {
			if f.VersionID == vid {
				delete(m.files, fid)
			}
		}
	}
	return nil
}

func (m *Memory) CreateVersion(ctx context.Context, projectID int64, note string) (Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[projectID]; !ok {
		return Version{}, ErrNotFound.Here()
	}
	n := 0
	for _, v := range m.versions {
		if v.ProjectID == projectID && v.Number > n {
			n = v.Number
		}
	}
	v := Version{ID: m.id(), ProjectID: projectID, Number: n + 1, Note: note, IsCurrent: n == 0, CreatedAt: time.Now().UTC()}
	m.versions[v.ID] = v
	return v, nil
}

func (m *Memory) Versions(ctx context.Context, projectID int64) ([]Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Version{}
	for _, v := range m.versions {
		if v.ProjectID == projectID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *Memory) Version(ctx context.Context, id int64) (Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[id]
	if !ok {
		return Version{}, ErrNotFound.Here()
	}
	return v, nil
}

func (m *Memory) SetCurrentVersion(ctx context.Context, projectID, versionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.versions[versionID]; !ok || v.ProjectID != projectID {
		return ErrNotFound.Here()
	}
	for id, v := range m.versions {
		if v.ProjectID == projectID {
			v.IsCurrent = id == versionID
			m.versions[id] = v
		}
	}
	return nil
}

func (m *Memory) ReplaceResults(ctx context.Context, versionID int64, rows []perf.ResultRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.versions[versionID]; !ok {
		return ErrNotFound.Here()
	}
	m.results[versionID] = append([]perf.ResultRow(nil), rows...)
	return nil
}

func (m *Memory) Results(ctx context.Context, versionID int64) ([]perf.ResultRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]perf.ResultRow{}, m.results[versionID]...), nil
}

func (m *Memory) CreateFile(ctx context.Context, f File) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[f.ID]; ok {
		return File{}, ErrConflict.Here()
	}
	f.CreatedAt = time.Now().UTC()
	m.files[f.ID] = f
	return f, nil
}

func (m *Memory) File(ctx context.Context, id string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return File{}, ErrNotFound.Here()
	}
	return f, nil
}

func (m *Memory) FilesByVersion(ctx context.Context, versionID int64) ([]File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []File{}
	for _, f := range m.files {
		if f.VersionID == versionID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
