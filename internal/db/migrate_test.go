package db

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	upErr      error
	downErr    error
	version    uint
	dirty      bool
	versionErr error
	closed     bool
}

func (f *fakeRunner) Up() error   { return f.upErr }
func (f *fakeRunner) Down() error { return f.downErr }
func (f *fakeRunner) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}
func (f *fakeRunner) Close() (error, error) {
	f.closed = true
	return nil, nil
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/d", migrateURL("postgres://u:p@h:5432/d"))
	assert.Equal(t, "pgx5://u:p@h:5432/d", migrateURL("postgresql://u:p@h:5432/d"))
	assert.Equal(t, "pgx5://u:p@h:5432/d", migrateURL("pgx5://u:p@h:5432/d"))
}

func TestMigratorUpTreatsNoChangeAsSuccess(t *testing.T) {
	m := &Migrator{m: &fakeRunner{upErr: migrate.ErrNoChange}}
	assert.NoError(t, m.Up())

	m = &Migrator{m: &fakeRunner{upErr: errors.New("syntax error")}}
	assert.Error(t, m.Up())
}

func TestMigratorVersion(t *testing.T) {
	m := &Migrator{m: &fakeRunner{versionErr: migrate.ErrNilVersion}}
	v, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	m = &Migrator{m: &fakeRunner{version: 1}}
	v, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
