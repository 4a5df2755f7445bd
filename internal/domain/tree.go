package domain

import (
	"cmp"
	"slices"
)

// ForestEntry is a top-level reply together with its direct replies.
type ForestEntry struct {
	Post     *Post   `json:"post"`
	Children []*Post `json:"children"`
}

// ThreadTree is the read model of a thread page: the starting post plus one
// level of reply nesting. Deeper levels are reachable through Children.
type ThreadTree struct {
	StartingPost *Post         `json:"starting_post"`
	Forest       []ForestEntry `json:"forest"`
	// Orphans lists posts whose parent is missing from the thread. They are
	// promoted to the top level instead of being dropped.
	Orphans []PostId `json:"-"`

	children map[PostId][]*Post
}

// Children returns the direct replies of a post ordered by creation time.
func (t *ThreadTree) Children(id PostId) []*Post {
	return t.children[id]
}

func byCreation(a, b *Post) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Id, b.Id)
}

// BuildTree partitions the posts of one thread into the starting post, the
// parentless replies and the parent -> children index. It runs in a single
// pass over the posts once they are ordered by creation time.
// If several posts carry the starting flag the earliest one wins and the
// rest are treated as ordinary posts.
func BuildTree(posts []*Post) ThreadTree {
	sorted := posts
	if !slices.IsSortedFunc(posts, byCreation) {
		sorted = slices.Clone(posts)
		slices.SortStableFunc(sorted, byCreation)
	}

	present := make(map[PostId]struct{}, len(sorted))
	for _, p := range sorted {
		present[p.Id] = struct{}{}
	}

	tree := ThreadTree{
		Forest:   []ForestEntry{},
		children: make(map[PostId][]*Post),
	}
	var roots []*Post
	for _, p := range sorted {
		if p.StartingPost && tree.StartingPost == nil {
			tree.StartingPost = p
			continue
		}
		if p.ParentId == nil {
			roots = append(roots, p)
			continue
		}
		if _, ok := present[*p.ParentId]; !ok || *p.ParentId == p.Id {
			tree.Orphans = append(tree.Orphans, p.Id)
			roots = append(roots, p)
			continue
		}
		tree.children[*p.ParentId] = append(tree.children[*p.ParentId], p)
	}

	for _, root := range roots {
		children := tree.children[root.Id]
		if children == nil {
			children = []*Post{}
		}
		tree.Forest = append(tree.Forest, ForestEntry{Post: root, Children: children})
	}
	return tree
}
