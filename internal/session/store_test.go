package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSetGetRemove(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	_, ok := s.Get(1)
	assert.False(t, ok)

	s.Set(1, "payload")
	v, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "payload", v)

	s.Remove(1)
	_, ok = s.Get(1)
	assert.False(t, ok)
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore(20 * time.Millisecond)
	defer s.Close()

	s.Set(1, "payload")
	time.Sleep(40 * time.Millisecond)

	_, ok := s.Get(1)
	assert.False(t, ok, "протухшая запись считается отсутствующей")
}

func TestStoreSetRefreshesTTL(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	defer s.Close()

	s.Set(1, "old")
	time.Sleep(30 * time.Millisecond)
	s.Set(1, "new")
	time.Sleep(30 * time.Millisecond)

	// 60 мс от первой записи, но 30 мс от второй — TTL обновился
	v, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestStoreIsolatedKeys(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	s.Set(1, "one")
	s.Set(2, "two")

	v1, _ := s.Get(1)
	v2, _ := s.Get(2)
	assert.Equal(t, "one", v1)
	assert.Equal(t, "two", v2)
}

func TestStoreCloseIdempotent(t *testing.T) {
	s := NewStore(time.Minute)
	s.Close()
	s.Close() // повторный Close не должен паниковать
}
