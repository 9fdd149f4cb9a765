package commerce

import "testing"

func TestBuildCategoryTreeOrphansBecomeRoots(t *testing.T) {
	tree := BuildCategoryTree([]Category{
		{ID: "1", Name: "A"},
		{ID: "2", ParentID: "1", Name: "A1"},
		{ID: "3", ParentID: "missing", Name: "Orphan"},
		{ID: "4", ParentID: "2", Name: "A1a"},
	})
	if len(tree) != 2 || tree[0].ID != "1" || tree[1].ID != "3" {
		t.Fatalf("unexpected roots: %+v", tree)
	}
	if len(tree[0].Children) != 1 || len(tree[0].Children[0].Children) != 1 {
		t.Fatalf("unexpected nesting: %+v", tree[0])
	}
}
