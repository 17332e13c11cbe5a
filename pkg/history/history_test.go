package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/geniass/airpods-dealz/pkg/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLedger() []product.Product {
	return []product.Product{
		{Name: "Casti Apple AirPods 3", Link: "https://altex.ro/a3/?x=1&y=2", Price: 899.99, Date: civil.Date{Year: 2024, Month: 2, Day: 1}},
		{Name: "Casti Apple AirPods Pro 2", Link: "https://www.flanco.ro/pro2.html", Price: 1299.99, Date: civil.Date{Year: 2024, Month: 2, Day: 10}},
	}
}

func TestJSONFileMissingReadsEmpty(t *testing.T) {
	s := NewJSONFile(filepath.Join(t.TempDir(), "products.json"))
	ps, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestJSONFileCorruptReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Casti", "price": `), 0644))

	ps, err := NewJSONFile(path).Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ps)

	_, err = NewJSONFile(path).load()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestJSONFileBadDateIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Casti","link":"https://x.ro/","price":1.99,"date":"01/02/2024"}]`), 0644))

	_, err := NewJSONFile(path).load()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestJSONFileWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "products.json")
	s := NewJSONFile(path)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, sampleLedger()))
	got, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger(), got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `    {
        "name": "Casti Apple AirPods 3",
        "link": "https://altex.ro/a3/?x=1&y=2",
        "price": 899.99,
        "date": "2024-02-01"
    }`)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestJSONFileWriteEmptyLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, NewJSONFile(path).Write(context.Background(), nil))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestSQLiteWriteThenRead(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	empty, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Write(ctx, sampleLedger()))
	got, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger(), got)

	// full overwrite, not append
	longer := append(sampleLedger(), product.Product{Name: "Casti Apple AirPods Max", Link: "https://altex.ro/max/", Price: 2799.99, Date: civil.Date{Year: 2024, Month: 3, Day: 1}})
	require.NoError(t, s.Write(ctx, longer))
	got, err = s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, longer, got)
}

func TestSQLiteCorruptDateReadsEmpty(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.Exec(`INSERT INTO price_history (name, link, price, observed_on) VALUES ('Casti', 'https://x.ro/', 1.99, 'yesterday')`)
	require.NoError(t, err)

	ps, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestPostgresWriteThenRead(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	unlock, err := s.Lock(ctx)
	require.NoError(t, err)
	defer unlock()

	require.NoError(t, s.Write(ctx, sampleLedger()))
	got, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger(), got)

	_, err = s.Lock(ctx)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestFileLockExcludesSecondHolder(t *testing.T) {
	lock := FileLock{Path: filepath.Join(t.TempDir(), "products.json.lock"), TTL: time.Minute}
	ctx := context.Background()

	unlock, err := lock.Lock(ctx)
	require.NoError(t, err)

	_, err = lock.Lock(ctx)
	assert.ErrorIs(t, err, ErrLocked)

	unlock()
	unlock()
	_, err = os.Stat(lock.Path)
	assert.True(t, os.IsNotExist(err))

	unlock, err = lock.Lock(ctx)
	require.NoError(t, err)
	unlock()
}

func TestFileLockTakesOverStaleLock(t *testing.T) {
	lock := FileLock{Path: filepath.Join(t.TempDir(), "products.json.lock"), TTL: time.Minute}
	require.NoError(t, os.WriteFile(lock.Path, []byte(`{"pid":1}`), 0644))
	old := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(lock.Path, old, old))

	unlock, err := lock.Lock(context.Background())
	require.NoError(t, err)
	unlock()
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := Open(ctx, Config{Backend: "json", Path: filepath.Join(dir, "products.json")})
	require.NoError(t, err)
	assert.IsType(t, &JSONFile{}, b.Store)
	assert.IsType(t, FileLock{}, b.Locker)
	assert.NoError(t, b.Close())

	b, err = Open(ctx, Config{Backend: "sqlite", Path: filepath.Join(dir, "history.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, b.Store)
	assert.NoError(t, b.Close())

	_, err = Open(ctx, Config{Backend: "postgres"})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: "csv", Path: "x"})
	assert.Error(t, err)
}
