package repo

import (
	"context"
	"testing"

	"github.com/ansel1/merry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sismik/internal/perf"
)

// testRepository checks the behavior every Repository implementation shares.
func testRepository(t *testing.T, r Repository) {
	ctx := context.Background()
	login := "user-" + uuid.New().String()

	owner, err := r.CreateUser(ctx, login, "a@example.com", "hash")
	require.NoError(t, err)
	_, err = r.CreateUser(ctx, login, "b@example.com", "hash")
	assert.True(t, merry.Is(err, ErrConflict))
	u, err := r.UserByLogin(ctx, login)
	require.NoError(t, err)
	assert.Equal(t, owner, u.ID)
	_, err = r.UserByLogin(ctx, login+"-missing")
	assert.True(t, merry.Is(err, ErrNotFound))

	p, err := r.CreateProject(ctx, Project{OwnerID: owner, Name: "Tower"})
	require.NoError(t, err)
	other, err := r.CreateProject(ctx, Project{OwnerID: owner, Name: "School"})
	require.NoError(t, err)

	t.Run("version numbering", func(t *testing.T) {
		v1, err := r.CreateVersion(ctx, p.ID, "first")
		require.NoError(t, err)
		v2, err := r.CreateVersion(ctx, p.ID, "second")
		require.NoError(t, err)
		o1, err := r.CreateVersion(ctx, other.ID, "")
		require.NoError(t, err)

		assert.Equal(t, 1, v1.Number)
		assert.True(t, v1.IsCurrent)
		assert.Equal(t, 2, v2.Number)
		assert.False(t, v2.IsCurrent)
		assert.Equal(t, 1, o1.Number)
		assert.True(t, o1.IsCurrent)

		_, err = r.CreateVersion(ctx, other.ID+p.ID+1000, "")
		assert.True(t, merry.Is(err, ErrNotFound))
	})

	t.Run("current version", func(t *testing.T) {
		versions, err := r.Versions(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, versions, 2)
		v2 := versions[1]

		require.NoError(t, r.SetCurrentVersion(ctx, p.ID, v2.ID))
		versions, err = r.Versions(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, versions[0].IsCurrent)
		assert.True(t, versions[1].IsCurrent)

		assert.True(t, merry.Is(r.SetCurrentVersion(ctx, other.ID, v2.ID), ErrNotFound))
		otherVersions, err := r.Versions(ctx, other.ID)
		require.NoError(t, err)
		require.Len(t, otherVersions, 1)
		assert.True(t, otherVersions[0].IsCurrent)
	})

	t.Run("results", func(t *testing.T) {
		versions, err := r.Versions(ctx, p.ID)
		require.NoError(t, err)
		vid := versions[0].ID

		rows := []perf.ResultRow{
			{EarthquakeLevel: perf.DD2, LoadCombination: "G+Q+Dx+", Story: "Kat 2", SH: perf.MarkerFail, MaxXDrift: perf.Num(0.004)},
			{EarthquakeLevel: perf.DD2, Story: "Kat 1", KH: perf.MarkerPass, MaxNN0: perf.Num(0.25)},
		}
		require.NoError(t, r.ReplaceResults(ctx, vid, rows))
		got, err := r.Results(ctx, vid)
		require.NoError(t, err)
		assert.Equal(t, rows, got)
		assert.False(t, got[1].MaxXDrift.Valid)

		require.NoError(t, r.ReplaceResults(ctx, vid, rows[1:]))
		got, err = r.Results(ctx, vid)
		require.NoError(t, err)
		assert.Equal(t, rows[1:], got)
	})

	t.Run("files and delete", func(t *testing.T) {
		versions, err := r.Versions(ctx, p.ID)
		require.NoError(t, err)
		id := uuid.New().String()
		f, err := r.CreateFile(ctx, File{ID: id, VersionID: versions[0].ID, Kind: FileModel, Name: "model.e2k", Path: "/tmp/" + id, Size: 5})
		require.NoError(t, err)
		assert.False(t, f.CreatedAt.IsZero())

		files, err := r.FilesByVersion(ctx, versions[0].ID)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "model.e2k", files[0].Name)

		require.NoError(t, r.DeleteProject(ctx, p.ID))
		_, err = r.Project(ctx, p.ID)
		assert.True(t, merry.Is(err, ErrNotFound))
		_, err = r.Version(ctx, versions[0].ID)
		assert.True(t, merry.Is(err, ErrNotFound))
		_, err = r.File(ctx, id)
		assert.True(t, merry.Is(err, ErrNotFound))
		assert.True(t, merry.Is(r.DeleteProject(ctx, p.ID), ErrNotFound))

		projects, err := r.ProjectsByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, other.ID, projects[0].ID)
	})
}
