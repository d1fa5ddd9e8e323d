package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvarga/threadbase/internal/post"
)

// addPost inserts a post with the given identity, raw parent reference and
// creation offset (minutes after a fixed base time).
func addPost(t *testing.T, s *Store, id, parent string, minutes int) *post.Post {
	t.Helper()
	p := post.New(id)
	p.SetParent(parent)
	base := time.Date(2008, 8, 20, 12, 0, 0, 0, time.UTC)
	p.SetDate(base.Add(time.Duration(minutes) * time.Minute).Format(time.RFC1123Z))
	require.NoError(t, s.Add(p))
	return p
}

func TestGet(t *testing.T) {
	s := New()
	addPost(t, s, "1", "", 0)

	t.Run("returns the post", func(t *testing.T) {
		p, err := s.Get("1")
		require.NoError(t, err)
		assert.Equal(t, "1", p.ID())
	})

	t.Run("returns ErrNotFound for an unknown id", func(t *testing.T) {
		_, err := s.Get("99")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("returns deleted posts too", func(t *testing.T) {
		require.NoError(t, s.Delete("1"))
		p, err := s.Get("1")
		require.NoError(t, err)
		assert.True(t, p.Deleted())
	})
}

func TestAdd(t *testing.T) {
	t.Run("rejects duplicate ids and leaves the store unchanged", func(t *testing.T) {
		s := New()
		first := addPost(t, s, "1", "", 0)

		err := s.Add(post.New("1"))
		assert.ErrorIs(t, err, ErrDuplicateID)

		p, err := s.Get("1")
		require.NoError(t, err)
		assert.Same(t, first, p)
	})

	t.Run("rejects posts without an id", func(t *testing.T) {
		s := New()
		assert.Error(t, s.Add(post.New("")))
	})
}

func TestAllIDsAndLiveIDs(t *testing.T) {
	s := New()
	addPost(t, s, "1", "", 0)
	addPost(t, s, "2", "1", 1)
	addPost(t, s, "3", "1", 2)
	require.NoError(t, s.Delete("2"))

	assert.Equal(t, []string{"1", "2", "3"}, s.AllIDs())
	assert.Equal(t, []string{"1", "3"}, s.LiveIDs())
}

func TestSetParent(t *testing.T) {
	s := New()
	addPost(t, s, "1", "", 0)

	t.Run("stores dangling references verbatim", func(t *testing.T) {
		require.NoError(t, s.SetParent("1", "<future@example.com>"))
		p, err := s.Get("1")
		require.NoError(t, err)
		assert.Equal(t, "<future@example.com>", p.Parent())
	})

	t.Run("returns ErrNotFound for an unknown id", func(t *testing.T) {
		assert.ErrorIs(t, s.SetParent("99", "1"), ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	s := New()
	addPost(t, s, "1", "", 0)

	t.Run("returns ErrNotFound for an unknown id", func(t *testing.T) {
		assert.ErrorIs(t, s.Delete("99"), ErrNotFound)
	})

	t.Run("keeps the identity and parent reference", func(t *testing.T) {
		require.NoError(t, s.Delete("1"))
		assert.Equal(t, []string{"1"}, s.AllIDs())
		assert.Empty(t, s.LiveIDs())
	})
}

func TestCreateEmpty(t *testing.T) {
	t.Run("allocates sequential numeric ids", func(t *testing.T) {
		s := New()
		assert.Equal(t, "1", s.CreateEmpty().ID())
		assert.Equal(t, "2", s.CreateEmpty().ID())
	})

	t.Run("never recycles ids, even after deletion", func(t *testing.T) {
		s := New()
		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			p := s.CreateEmpty()
			assert.False(t, seen[p.ID()], "id %s was reused", p.ID())
			seen[p.ID()] = true
			require.NoError(t, s.Delete(p.ID()))
		}
	})

	t.Run("seeds the counter above existing ids, deleted included", func(t *testing.T) {
		s := New()
		addPost(t, s, "41", "", 0)
		addPost(t, s, "7", "", 0)
		require.NoError(t, s.Delete("41"))
		assert.Equal(t, "42", s.CreateEmpty().ID())
	})

	t.Run("skips non-numeric ids when seeding", func(t *testing.T) {
		s := New()
		addPost(t, s, "attachment-a", "", 0)
		addPost(t, s, "3", "", 0)
		assert.Equal(t, "4", s.CreateEmpty().ID())
	})

	t.Run("keeps the counter ahead of later numeric adds", func(t *testing.T) {
		s := New()
		assert.Equal(t, "1", s.CreateEmpty().ID())
		addPost(t, s, "10", "", 0)
		assert.Equal(t, "11", s.CreateEmpty().ID())
	})
}

func TestByMessageID(t *testing.T) {
	s := New()
	p1 := addPost(t, s, "1", "", 0)
	p1.SetMessageID("<one@example.com>")

	t.Run("finds a post by Message-Id", func(t *testing.T) {
		p, ok := s.ByMessageID("<one@example.com>")
		require.True(t, ok)
		assert.Equal(t, "1", p.ID())
	})

	t.Run("misses unknown and empty Message-Ids", func(t *testing.T) {
		_, ok := s.ByMessageID("<other@example.com>")
		assert.False(t, ok)
		_, ok = s.ByMessageID("")
		assert.False(t, ok)
	})

	t.Run("sees Message-Ids set after the index was built", func(t *testing.T) {
		p2 := addPost(t, s, "2", "", 0)
		p2.SetMessageID("<two@example.com>")
		p, ok := s.ByMessageID("<two@example.com>")
		require.True(t, ok)
		assert.Equal(t, "2", p.ID())
	})
}

func TestLoadAndSaveDir(t *testing.T) {
	dir := t.TempDir()

	s := New()
	p1 := s.CreateEmpty()
	p1.SetSubject("first")
	p2 := s.CreateEmpty()
	p2.SetSubject("second")
	p2.SetParent("1")

	n, err := s.SaveDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t.Run("saving again writes nothing", func(t *testing.T) {
		n, err := s.SaveDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("saving after a mutation writes just the touched post", func(t *testing.T) {
		p1.SetSubject("first, edited")
		n, err := s.SaveDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("a fresh store loads the same posts", func(t *testing.T) {
		loaded := New()
		require.NoError(t, loaded.LoadDir(dir))
		assert.Equal(t, []string{"1", "2"}, loaded.AllIDs())

		p, err := loaded.Get("2")
		require.NoError(t, err)
		assert.Equal(t, "second", p.RealSubject())
		assert.Equal(t, "1", p.Parent())

		// The id allocator resumes after the loaded ids.
		assert.Equal(t, "3", loaded.CreateEmpty().ID())
	})

	t.Run("ignores files without the post extension", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
		loaded := New()
		require.NoError(t, loaded.LoadDir(dir))
		assert.Equal(t, []string{"1", "2"}, loaded.AllIDs())
	})

	t.Run("fails on a malformed post file", func(t *testing.T) {
		bad := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(bad, "9.post"), []byte("no colon here\n"), 0o644))
		loaded := New()
		assert.Error(t, loaded.LoadDir(bad))
	})

	t.Run("fails on a missing directory", func(t *testing.T) {
		loaded := New()
		assert.Error(t, loaded.LoadDir(filepath.Join(dir, "absent")))
	})
}

func TestSaveDirDeletedPostKeepsFile(t *testing.T) {
	dir := t.TempDir()
	s := New()
	p := s.CreateEmpty()
	p.SetSubject("doomed")
	_, err := s.SaveDir(dir)
	require.NoError(t, err)

	require.NoError(t, s.Delete("1"))
	_, err = s.SaveDir(dir)
	require.NoError(t, err)

	// The file stays on disk, flagged deleted, so the identity remains
	// reserved across sessions.
	loaded := New()
	require.NoError(t, loaded.LoadDir(dir))
	got, err := loaded.Get("1")
	require.NoError(t, err)
	assert.True(t, got.Deleted())
	assert.Equal(t, "2", loaded.CreateEmpty().ID())
}

func ExampleStore_CreateEmpty() {
	s := New()
	p := s.CreateEmpty()
	p.SetSubject("hello")
	fmt.Println(p.ID(), p.Subject())
	// Output: 1 hello
}
