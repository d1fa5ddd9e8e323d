package store

import (
	"sort"

	"github.com/dvarga/threadbase/internal/post"
)

// PostSet is a set of post identities bound to the store that can resolve
// them. It owns nothing: identities are resolved through the store at use
// time, and identities the store no longer recognizes silently drop out of
// results. Every operator is pure and returns a new set.
type PostSet struct {
	store *Store
	ids   map[string]struct{}
}

// NewPostSet builds a set over the given store from the given identities.
// The identities are not validated here; unresolvable ones contribute
// nothing when the set is used.
func NewPostSet(s *Store, ids ...string) PostSet {
	set := PostSet{store: s, ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		set.ids[id] = struct{}{}
	}
	return set
}

// NewPostSetOf builds a set from posts rather than identities.
func NewPostSetOf(s *Store, posts ...*post.Post) PostSet {
	set := PostSet{store: s, ids: make(map[string]struct{}, len(posts))}
	for _, p := range posts {
		set.ids[p.ID()] = struct{}{}
	}
	return set
}

// AllLive returns the set of every non-deleted post in the store.
func AllLive(s *Store) PostSet {
	return NewPostSet(s, s.LiveIDs()...)
}

func (ps PostSet) clone() PostSet {
	out := PostSet{store: ps.store, ids: make(map[string]struct{}, len(ps.ids))}
	for id := range ps.ids {
		out.ids[id] = struct{}{}
	}
	return out
}

// Len returns the number of identities in the set.
func (ps PostSet) Len() int {
	return len(ps.ids)
}

// Contains reports whether the set holds the given identity.
func (ps PostSet) Contains(id string) bool {
	_, ok := ps.ids[id]
	return ok
}

// IDs returns the identities in ascending order. This is the set's one
// documented iteration order; ForEach and Collect follow it too.
func (ps PostSet) IDs() []string {
	ids := make([]string, 0, len(ps.ids))
	for id := range ps.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Union returns the set of identities in either set.
func (ps PostSet) Union(other PostSet) PostSet {
	out := ps.clone()
	for id := range other.ids {
		out.ids[id] = struct{}{}
	}
	return out
}

// Intersect returns the set of identities in both sets.
func (ps PostSet) Intersect(other PostSet) PostSet {
	out := PostSet{store: ps.store, ids: make(map[string]struct{})}
	for id := range ps.ids {
		if other.Contains(id) {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

// Difference returns the set of identities in ps but not in other.
func (ps PostSet) Difference(other PostSet) PostSet {
	out := PostSet{store: ps.store, ids: make(map[string]struct{})}
	for id := range ps.ids {
		if !other.Contains(id) {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

// SymmetricDifference returns the identities in exactly one of the sets.
func (ps PostSet) SymmetricDifference(other PostSet) PostSet {
	return ps.Union(other).Difference(ps.Intersect(other))
}

// SubsetOf reports whether every identity of ps is in other.
func (ps PostSet) SubsetOf(other PostSet) bool {
	for id := range ps.ids {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold exactly the same identities.
func (ps PostSet) Equal(other PostSet) bool {
	return len(ps.ids) == len(other.ids) && ps.SubsetOf(other)
}

// Filter returns the subset whose resolved posts satisfy pred. Posts are
// resolved through the store at call time; identities that no longer resolve
// are dropped.
func (ps PostSet) Filter(pred func(*post.Post) bool) PostSet {
	out := PostSet{store: ps.store, ids: make(map[string]struct{})}
	for id := range ps.ids {
		p, ok := ps.store.posts[id]
		if ok && pred(p) {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

// ExpandAncestors returns the set extended with every ancestor of its posts,
// following effective parents. A walk stops before revisiting a post, so
// parent cycles extend the set only up to the loop instead of hanging.
// Known as "expb" (expand backward) in query shorthand.
func (ps PostSet) ExpandAncestors() PostSet {
	out := PostSet{store: ps.store, ids: make(map[string]struct{})}
	for id := range ps.ids {
		if out.Contains(id) {
			// Already collected as an ancestor of an earlier walk, and
			// every walk runs all the way up, so its ancestors are in too.
			continue
		}
		if _, ok := ps.store.posts[id]; !ok {
			continue
		}
		visited := make(map[string]struct{})
		for {
			visited[id] = struct{}{}
			out.ids[id] = struct{}{}
			parent, err := ps.store.Parent(id)
			if err != nil || parent == "" {
				break
			}
			if _, seen := visited[parent]; seen {
				break
			}
			if out.Contains(parent) {
				break
			}
			id = parent
		}
	}
	return out
}

// ExpandDescendants returns the set extended with the transitive children
// closure of its posts. Known as "expf" (expand forward). Idempotent.
func (ps PostSet) ExpandDescendants() PostSet {
	out := PostSet{store: ps.store, ids: make(map[string]struct{})}
	for id := range ps.ids {
		if _, ok := ps.store.posts[id]; !ok {
			continue
		}
		stack := []string{id}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if out.Contains(cur) {
				continue
			}
			out.ids[cur] = struct{}{}
			stack = append(stack, ps.store.Children(cur)...)
		}
	}
	return out
}

// ExpandThreadmates returns the union of the full threads the set's posts
// belong to: for every post, its root's whole descendant closure. Posts in a
// parent cycle have no root and contribute nothing. Known as "exp".
func (ps PostSet) ExpandThreadmates() PostSet {
	roots := PostSet{store: ps.store, ids: make(map[string]struct{})}
	for id := range ps.ids {
		root, err := ps.store.Root(id)
		if err != nil {
			// Absent or cyclic; either way there is no thread to join.
			continue
		}
		roots.ids[root] = struct{}{}
	}
	return roots.ExpandDescendants()
}

// ForEach calls fn on every resolved post, in ascending identity order.
func (ps PostSet) ForEach(fn func(*post.Post)) {
	for _, id := range ps.IDs() {
		if p, ok := ps.store.posts[id]; ok {
			fn(p)
		}
	}
}

// Collect applies fn to every resolved post of the set, in ascending
// identity order, and returns the results.
func Collect[T any](ps PostSet, fn func(*post.Post) T) []T {
	var out []T
	ps.ForEach(func(p *post.Post) {
		out = append(out, fn(p))
	})
	return out
}

// Sorted returns the resolved posts stably sorted by less.
func (ps PostSet) Sorted(less func(a, b *post.Post) bool) []*post.Post {
	posts := ps.resolve()
	sort.SliceStable(posts, func(i, j int) bool { return less(posts[i], posts[j]) })
	return posts
}

// SortedList returns the resolved posts in chronological order, ties broken
// by identity (the same order the children map uses).
func (ps PostSet) SortedList() []*post.Post {
	return ps.Sorted(func(a, b *post.Post) bool {
		if a.Timestamp() != b.Timestamp() {
			return a.Timestamp() < b.Timestamp()
		}
		return a.ID() < b.ID()
	})
}

func (ps PostSet) resolve() []*post.Post {
	posts := make([]*post.Post, 0, len(ps.ids))
	for _, id := range ps.IDs() {
		if p, ok := ps.store.posts[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts
}
