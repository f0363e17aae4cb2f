package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"results/a.md", "results/a.md", true},
		{"jobs/x/../y/b.md", "jobs/y/b.md", true},
		{"", "", false},
		{"/etc/passwd", "", false},
		{"../up.md", "", false},
		{"a/../../up.md", "", false},
		{`jobs\x.md`, "", false},
	}
	for _, tt := range tests {
		got, err := CleanKey(tt.key)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidKey, tt.key)
			continue
		}
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.want, got)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "results/h-bilingual.md")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "results/h-bilingual.md")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Put(ctx, "results/h-bilingual.md", []byte("v1"), "text/markdown"))
	require.NoError(t, s.Put(ctx, "results/h-bilingual.md", []byte("v2"), "text/markdown"))
	data, err := s.Get(ctx, "results/h-bilingual.md")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	ok, err = s.Exists(ctx, "results/h-bilingual.md")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalList(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, k := range []string{"jobs/j1/block_01.md", "jobs/j1/block_00.md", "jobs/j2/block_00.md", "results/r.md"} {
		require.NoError(t, s.Put(ctx, k, []byte(k), ""))
	}

	objs, err := s.List(ctx, "jobs/j1/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "jobs/j1/block_00.md", objs[0].Key)
	assert.Equal(t, "jobs/j1/block_01.md", objs[1].Key)
	assert.EqualValues(t, len("jobs/j1/block_00.md"), objs[0].Size)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	err = s.Put(context.Background(), "../outside.md", []byte("x"), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "results/abc-replace.md", ResultKey("abc", "replace"))
	assert.Equal(t, "jobs/j/block_00_Intro_paper.md", UnitKey("j", "block_00_Intro_paper.md"))
}

func TestOpen(t *testing.T) {
	st, err := Open(context.Background(), Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, st)

	_, err = Open(context.Background(), Options{Backend: "s4"})
	assert.Error(t, err)
}
