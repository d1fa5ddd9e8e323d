package store

import "sort"

// Thread structure queries. Everything here is derived from the per-post raw
// parent references and cached until the next Touch.
//
// Effective parent resolution: a raw reference is looked up first as a
// Message-Id, then as a post identity. A reference that resolves to nothing,
// or to a deleted post, counts as "no parent". Dangling references are
// legal, not errors, because a parent may be recorded by a Message-Id whose
// post arrives later.

// Parent returns the identity of the given post's effective parent, or ""
// when the post has none. Reads the store directly; no recomputation.
func (s *Store) Parent(id string) (string, error) {
	p, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return s.resolveParent(p.Parent()), nil
}

func (s *Store) resolveParent(ref string) string {
	if ref == "" {
		return ""
	}
	parent, ok := s.ByMessageID(ref)
	if !ok {
		parent, ok = s.posts[ref]
	}
	if !ok || parent.Deleted() {
		return ""
	}
	return parent.ID()
}

// Root follows the parent chain of the given post up to a post with no
// effective parent and returns that post's identity. When the chain loops,
// Root returns ErrCycle instead of walking forever: the per-call visited set
// is what keeps malformed parent references (free-form user input) from
// hanging the process.
func (s *Store) Root(id string) (string, error) {
	if _, err := s.Get(id); err != nil {
		return "", err
	}
	visited := map[string]struct{}{id: {}}
	for {
		parent, err := s.Parent(id)
		if err != nil {
			return "", err
		}
		if parent == "" {
			return id, nil
		}
		if _, seen := visited[parent]; seen {
			return "", ErrCycle
		}
		visited[parent] = struct{}{}
		id = parent
	}
}

// Children returns the identities of the posts whose effective parent is the
// given post, in chronological order (ties broken by identity). The returned
// slice is shared cache state and must not be modified.
func (s *Store) Children(id string) []string {
	return s.childrenMap()[id]
}

// RootPosts returns the identities of all live posts with no effective
// parent, in chronological order. The returned slice must not be modified.
func (s *Store) RootPosts() []string {
	return s.childrenMap()[""]
}

// childrenMap returns the cached children map, rebuilding it after an
// invalidation. The "" key is the synthetic no-parent bucket. The rebuild is
// a single pass over the live posts plus a sort per bucket, and always
// replaces the previous map wholesale.
func (s *Store) childrenMap() map[string][]string {
	if s.children != nil {
		return s.children
	}
	s.recomputes++

	children := map[string][]string{"": nil}
	for _, id := range s.LiveIDs() {
		parent := s.resolveParent(s.posts[id].Parent())
		children[parent] = append(children[parent], id)
	}
	for parent, ids := range children {
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := s.posts[ids[i]], s.posts[ids[j]]
			if a.Timestamp() != b.Timestamp() {
				return a.Timestamp() < b.Timestamp()
			}
			return a.ID() < b.ID()
		})
		children[parent] = ids
	}
	s.children = children
	return s.children
}

// Cycles returns the set of live posts with no well-defined thread position:
// everything not reachable from a root by child edges. This reachability
// definition classifies whole cycles, cycles with dangling tails and
// self-loops uniformly; it does not try to pinpoint the closing edge, since
// consumers only need to know which posts to repair.
func (s *Store) Cycles() PostSet {
	if s.cycleSet == nil {
		reachable := make(map[string]struct{})
		stack := append([]string(nil), s.RootPosts()...)
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, ok := reachable[id]; ok {
				continue
			}
			reachable[id] = struct{}{}
			stack = append(stack, s.Children(id)...)
		}

		cycles := make(map[string]struct{})
		for _, id := range s.LiveIDs() {
			if _, ok := reachable[id]; !ok {
				cycles[id] = struct{}{}
			}
		}
		s.cycleSet = cycles
	}
	return PostSet{store: s, ids: s.cycleSet}
}

// HasCycle reports whether any live post is in a parent cycle.
func (s *Store) HasCycle() bool {
	return s.Cycles().Len() > 0
}

// Threads returns every thread as a root identity mapped to the full
// descendant closure of that root (the root included). Memoized until the
// next invalidation.
func (s *Store) Threads() map[string]PostSet {
	if s.threads == nil {
		s.threads = make(map[string]map[string]struct{})
		for _, root := range s.RootPosts() {
			closure := make(map[string]struct{})
			stack := []string{root}
			for len(stack) > 0 {
				id := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if _, ok := closure[id]; ok {
					continue
				}
				closure[id] = struct{}{}
				stack = append(stack, s.Children(id)...)
			}
			s.threads[root] = closure
		}
	}
	out := make(map[string]PostSet, len(s.threads))
	for root, ids := range s.threads {
		out[root] = PostSet{store: s, ids: ids}
	}
	return out
}

// ThreadItemPos marks whether a walk item opens or closes a subthread.
type ThreadItemPos int

const (
	// PosBegin is yielded when the walk enters a post's subthread.
	PosBegin ThreadItemPos = iota
	// PosEnd is yielded when the walk leaves a post's subthread.
	PosEnd
)

// ThreadItem is one step of a thread walk.
type ThreadItem struct {
	ID    string
	Pos   ThreadItemPos
	Level int
}

// WalkThread walks the thread under rootID in preorder and returns the
// sequence of items: each post appears once with PosBegin when its subthread
// is entered and once with PosEnd when it is left, with Level 0 at the given
// root. An empty rootID walks the whole forest, all roots at level 0. Each
// post is entered at most once, so the walk terminates even when rootID sits
// on a parent cycle and the child edges loop back to it.
func (s *Store) WalkThread(rootID string) []ThreadItem {
	var stack []ThreadItem
	if rootID == "" {
		roots := s.RootPosts()
		for i := len(roots) - 1; i >= 0; i-- {
			stack = append(stack, ThreadItem{ID: roots[i], Pos: PosBegin})
		}
	} else {
		stack = []ThreadItem{{ID: rootID, Pos: PosBegin}}
	}

	entered := make(map[string]struct{})
	var items []ThreadItem
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.Pos == PosBegin {
			if _, ok := entered[item.ID]; ok {
				continue
			}
			entered[item.ID] = struct{}{}
		}
		items = append(items, item)

		if item.Pos != PosBegin {
			continue
		}
		stack = append(stack, ThreadItem{ID: item.ID, Pos: PosEnd, Level: item.Level})
		children := s.Children(item.ID)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, ThreadItem{ID: children[i], Pos: PosBegin, Level: item.Level + 1})
		}
	}
	return items
}
