// Package store holds the post database: the authoritative identity-keyed
// collection of posts plus the thread structure derived from their parent
// references.
//
// All derived state (children map, roots, cycles, threads, Message-Id index)
// follows a lazy invalidation discipline: any structural mutation calls
// Touch, which discards everything derived; the first query after that
// recomputes what it needs. The store is not safe for concurrent use and
// must be serialized by the caller.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dvarga/threadbase/internal/post"
)

// PostFileExt is the filename extension of post files in the mail directory.
// The file stem is the post's identity.
const PostFileExt = ".post"

// Store owns every post, including deleted ones. Other components refer to
// posts by identity and resolve them here.
type Store struct {
	posts map[string]*post.Post

	// Cache for the next numeric identity. Zero means "not computed yet";
	// CreateEmpty seeds it from the largest numeric id present, deleted
	// posts included, so identities are never recycled.
	nextID int

	// Derived state, nil when stale. Touch resets all of it together.
	children   map[string][]string
	cycleSet   map[string]struct{}
	threads    map[string]map[string]struct{}
	messageIDs map[string]string

	// Number of children-map recomputations, for cache behavior tests.
	recomputes int
}

// New returns an empty store.
func New() *Store {
	return &Store{posts: make(map[string]*post.Post)}
}

// Touch discards all derived thread structure. Called automatically by every
// mutation that can change parent references or post membership; the next
// structural query recomputes lazily.
func (s *Store) Touch() {
	s.children = nil
	s.cycleSet = nil
	s.threads = nil
	s.messageIDs = nil
}

// Get returns the post with the given identity, deleted or not.
func (s *Store) Get(id string) (*post.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %q: %w", id, ErrNotFound)
	}
	return p, nil
}

// Add inserts the post under its own identity and wires its touch hook to
// the store. The store is unchanged when the identity is already taken.
func (s *Store) Add(p *post.Post) error {
	id := p.ID()
	if id == "" {
		return fmt.Errorf("post has no id")
	}
	if _, ok := s.posts[id]; ok {
		return fmt.Errorf("post %q: %w", id, ErrDuplicateID)
	}
	s.posts[id] = p
	p.SetTouchHook(s.Touch)
	if n, err := strconv.Atoi(id); err == nil && s.nextID != 0 && n >= s.nextID {
		s.nextID = n + 1
	}
	s.Touch()
	return nil
}

// CreateEmpty allocates the next numeric identity, adds a fresh post under
// it and returns the post. Identities are monotonic and never reused within
// the store's lifetime; because deleted posts stay in the store (and their
// files on disk), the guarantee extends across sessions.
func (s *Store) CreateEmpty() *post.Post {
	if s.nextID == 0 {
		maxID := 0
		for id := range s.posts {
			if n, err := strconv.Atoi(id); err == nil && n > maxID {
				maxID = n
			}
		}
		s.nextID = maxID + 1
	}
	p := post.New(strconv.Itoa(s.nextID))
	s.nextID++
	// Add cannot fail: the identity is fresh by construction.
	_ = s.Add(p)
	return p
}

// SetParent sets the raw parent reference of the given post. The reference
// is stored verbatim and not validated: it may name a Message-Id whose post
// has not arrived yet, or nothing at all. Pass "" to clear the parent.
func (s *Store) SetParent(id, ref string) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}
	p.SetParent(ref)
	return nil
}

// Delete clears the post's content and flags it deleted. The identity stays
// in the store and the post keeps its raw parent reference; it just stops
// appearing in thread structure, so its children re-root.
func (s *Store) Delete(id string) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}
	p.Delete()
	return nil
}

// AllIDs returns every identity in the store, deleted posts included, in
// ascending identity order.
func (s *Store) AllIDs() []string {
	ids := make([]string, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LiveIDs returns the identities of all non-deleted posts in ascending
// identity order.
func (s *Store) LiveIDs() []string {
	ids := make([]string, 0, len(s.posts))
	for id, p := range s.posts {
		if !p.Deleted() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of posts in the store, deleted included.
func (s *Store) Len() int {
	return len(s.posts)
}

// ByMessageID returns the post whose Message-Id header equals messid. The
// index covers deleted posts too; parent resolution applies its own "deleted
// posts do not count" rule on top.
func (s *Store) ByMessageID(messid string) (*post.Post, bool) {
	if messid == "" {
		return nil, false
	}
	if s.messageIDs == nil {
		s.messageIDs = make(map[string]string)
		for id, p := range s.posts {
			if mid := p.MessageID(); mid != "" {
				s.messageIDs[mid] = id
			}
		}
	}
	id, ok := s.messageIDs[messid]
	if !ok {
		return nil, false
	}
	return s.posts[id], true
}

// LoadDir reads every post file in dir into the store. The file stem is the
// post's identity. Fails on the first unreadable or malformed file.
func (s *Store) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read post directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, PostFileExt) {
			continue
		}
		id := strings.TrimSuffix(name, PostFileExt)
		p, err := post.Load(id, filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if err := s.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// SaveDir writes every modified post back to its file in dir and returns
// the number of files written.
func (s *Store) SaveDir(dir string) (int, error) {
	saved := 0
	for _, id := range s.AllIDs() {
		p := s.posts[id]
		if !p.Modified() {
			continue
		}
		if err := p.Save(filepath.Join(dir, id+PostFileExt)); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}
