package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/pagechat/internal/config"
	apierrors "github.com/diogo/pagechat/internal/errors"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)
	assert.True(t, ValidID(a))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("../../etc/passwd"))
	assert.False(t, ValidID("not-a-uuid"))
}

func TestData_HasPage(t *testing.T) {
	var nilData *Data
	assert.False(t, nilData.HasPage())
	assert.False(t, (&Data{CurrentURL: "x"}).HasPage())
	assert.True(t, (&Data{ScrapedData: "TITLE: x"}).HasPage())
}

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	id := NewID()

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, apierrors.ErrNoSession)

	require.NoError(t, store.Save(ctx, id, &Data{ScrapedData: "content", CurrentURL: "https://a"}))

	info, err := os.Stat(filepath.Join(dir, id+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "content", got.ScrapedData)
	assert.Equal(t, "https://a", got.CurrentURL)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, apierrors.ErrNoSession)
	assert.NoError(t, store.Delete(ctx, id))
}

func TestFileStore_RejectsInvalidIDs(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	assert.Error(t, store.Save(context.Background(), "../escape", &Data{}))
	_, err = store.Get(context.Background(), "../escape")
	assert.ErrorIs(t, err, apierrors.ErrNoSession)
}

func TestFileStore_Expiry(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, time.Hour)
	require.NoError(t, err)
	clk := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store.now = clk.now
	ctx := context.Background()

	fresh, stale := NewID(), NewID()
	require.NoError(t, store.Save(ctx, stale, &Data{ScrapedData: "old"}))
	clk.t = clk.t.Add(50 * time.Minute)
	require.NoError(t, store.Save(ctx, fresh, &Data{ScrapedData: "new"}))
	clk.t = clk.t.Add(20 * time.Minute)

	_, err = store.Get(ctx, stale)
	assert.ErrorIs(t, err, apierrors.ErrNoSession)
	_, err = os.Stat(filepath.Join(dir, stale+".json"))
	assert.True(t, os.IsNotExist(err), "expired file is removed on read")

	got, err := store.Get(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, "new", got.ScrapedData)
}

func TestFileStore_RefreshedSessionIsNotRemoved(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, time.Hour)
	require.NoError(t, err)
	clk := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store.now = clk.now
	ctx := context.Background()

	id := NewID()
	require.NoError(t, store.Save(ctx, id, &Data{ScrapedData: "old"}))
	clk.t = clk.t.Add(2 * time.Hour)

	// a reader saw the stale copy, then a Save refreshed it before the removal
	require.NoError(t, store.Save(ctx, id, &Data{ScrapedData: "refreshed"}))
	require.NoError(t, store.removeExpired(id))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", got.ScrapedData)

	clk.t = clk.t.Add(2 * time.Hour)
	require.NoError(t, store.removeExpired(id))
	_, err = os.Stat(filepath.Join(dir, id+".json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_Prune(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, time.Hour)
	require.NoError(t, err)
	clk := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store.now = clk.now
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, NewID(), &Data{}))
	require.NoError(t, store.Save(ctx, NewID(), &Data{}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, NewID()+".json"), []byte("{corrupt"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o600))

	clk.t = clk.t.Add(2 * time.Hour)
	keep := NewID()
	require.NoError(t, store.Save(ctx, keep, &Data{}))

	removed, err := store.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	_, err = store.Get(ctx, keep)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	clk := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store.now = clk.now
	ctx := context.Background()
	id := NewID()

	require.NoError(t, store.Save(ctx, id, &Data{ScrapedData: "x"}))
	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "x", got.ScrapedData)

	got.ScrapedData = "mutated"
	again, _ := store.Get(ctx, id)
	assert.Equal(t, "x", again.ScrapedData, "callers get a copy")

	clk.t = clk.t.Add(61 * time.Minute)
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, apierrors.ErrNoSession)
	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Save(ctx, NewID(), &Data{}))
	clk.t = clk.t.Add(2 * time.Hour)
	removed, err := store.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestRedisStore_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, time.Hour)
	ctx := context.TODO()
	id := NewID()

	raw, _ := json.Marshal(Data{ScrapedData: "page", CurrentURL: "https://a"})
	mock.ExpectGet(KeyPrefix + id).SetVal(string(raw))
	got, err := store.Get(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, "page", got.ScrapedData)
	assert.Equal(t, "https://a", got.CurrentURL)

	mock.ExpectGet(KeyPrefix + id).RedisNil()
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, apierrors.ErrNoSession)

	mock.ExpectGet(KeyPrefix + id).SetErr(errors.New("redis error"))
	_, err = store.Get(ctx, id)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis get failure")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisStore_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, time.Hour)
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.TODO()
	id := NewID()

	raw, _ := json.Marshal(Data{ScrapedData: "page", CurrentURL: "https://a", UpdatedAt: fixed})
	mock.ExpectSet(KeyPrefix+id, string(raw), time.Hour).SetVal("OK")
	err := store.Save(ctx, id, &Data{ScrapedData: "page", CurrentURL: "https://a"})
	assert.NoError(t, err)

	mock.ExpectSet(KeyPrefix+id, string(raw), time.Hour).SetErr(errors.New("redis error"))
	err = store.Save(ctx, id, &Data{ScrapedData: "page", CurrentURL: "https://a"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis set failure")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisStore_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, time.Hour)
	id := NewID()

	mock.ExpectDel(KeyPrefix + id).SetVal(1)
	assert.NoError(t, store.Delete(context.TODO(), id))
	assert.NoError(t, store.Delete(context.TODO(), "bogus"), "invalid IDs never reach redis")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestNewStore(t *testing.T) {
	cfg := config.ServerConfig{SessionStore: "memory", SessionTTL: time.Hour}
	store, err := NewStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	cfg = config.ServerConfig{SessionStore: "file", SessionDir: t.TempDir(), SessionTTL: time.Hour}
	store, err = NewStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = NewStore(context.Background(), config.ServerConfig{SessionStore: "bolt"})
	assert.Error(t, err)
}
