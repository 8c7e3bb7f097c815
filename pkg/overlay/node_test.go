package overlay

import "testing"

func TestNodeAppendReparents(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	b := NewText("hello")

	root.Append(a, b, nil)

	if len(root.Children()) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children()))
	}
	if a.Parent() != root || b.Parent() != root {
		t.Error("children should be reparented to root")
	}
	if b.Text() != "hello" || b.Kind() != "" {
		t.Errorf("text node should carry text and no kind, got kind=%q text=%q", b.Kind(), b.Text())
	}
	if !b.IsLeaf() {
		t.Error("text node is a leaf")
	}
}

func TestNodeRemoveChildren(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	root.Append(a)

	root.RemoveChildren()

	if len(root.Children()) != 0 {
		t.Error("children should be detached")
	}
	if a.Parent() != nil {
		t.Error("detached child keeps no parent pointer")
	}
}

func TestNodeAttrs(t *testing.T) {
	n := NewNode("line").SetAttr("slot-index", "2")

	v, ok := n.Attr("slot-index")
	if !ok || v != "2" {
		t.Errorf("expected slot-index=2, got %q (ok=%v)", v, ok)
	}
	if _, ok := n.Attr("missing"); ok {
		t.Error("missing attribute should report ok=false")
	}
}

func TestNodeClasses(t *testing.T) {
	n := NewNode("span").AddClass("keyword", "keyword", "", "focused")

	if !n.HasClass("keyword") || !n.HasClass("focused") {
		t.Error("expected both classes present")
	}
	if len(n.Classes()) != 2 {
		t.Errorf("duplicates and empties are not stored, got %v", n.Classes())
	}
	if n.ClassString() != "keyword focused" {
		t.Errorf("unexpected class string %q", n.ClassString())
	}

	n.RemoveClass("keyword")
	if n.HasClass("keyword") {
		t.Error("keyword should be removed")
	}
}

func TestNodeClosest(t *testing.T) {
	root := NewNode("root").SetAttr("marker", "yes")
	mid := NewNode("mid")
	leaf := NewText("x")
	root.Append(mid)
	mid.Append(leaf)

	found := leaf.Closest(func(n *Node) bool {
		_, ok := n.Attr("marker")
		return ok
	})
	if found != root {
		t.Error("Closest should find the marked root")
	}

	if leaf.Closest(func(n *Node) bool { return n.Kind() == "absent" }) != nil {
		t.Error("Closest with no match returns nil")
	}
}

func TestNodeIsAncestorOf(t *testing.T) {
	root := NewNode("root")
	mid := NewNode("mid")
	leaf := NewText("x")
	other := NewNode("other")
	root.Append(mid)
	mid.Append(leaf)

	if !root.IsAncestorOf(leaf) {
		t.Error("root is an ancestor of leaf")
	}
	if !mid.IsAncestorOf(mid) {
		t.Error("a node is an ancestor of itself")
	}
	if root.IsAncestorOf(other) {
		t.Error("root is not an ancestor of an unrelated node")
	}
	if leaf.IsAncestorOf(root) {
		t.Error("ancestry is not symmetric")
	}
}

func TestNodeWalk(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	b := NewNode("b")
	aa := NewNode("aa")
	root.Append(a, b)
	a.Append(aa)

	var visited []string
	root.Walk(func(n *Node) bool {
		visited = append(visited, n.Kind())
		return true
	})
	want := []string{"root", "a", "aa", "b"}
	if len(visited) != len(want) {
		t.Fatalf("expected %v, got %v", want, visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, visited)
		}
	}

	// Returning false prunes the subtree.
	visited = nil
	root.Walk(func(n *Node) bool {
		visited = append(visited, n.Kind())
		return n.Kind() != "a"
	})
	for _, k := range visited {
		if k == "aa" {
			t.Error("pruned subtree should not be visited")
		}
	}
}

func TestNodeGeometry(t *testing.T) {
	n := NewNode("box").SetRect(Rect{X: 2, Y: 3, Width: 10, Height: 1}).SetZIndex(5)

	if n.Rect() != (Rect{2, 3, 10, 1}) {
		t.Errorf("unexpected rect %+v", n.Rect())
	}
	if n.ZIndex() != 5 {
		t.Errorf("unexpected z %d", n.ZIndex())
	}

	n.SetHidden(true)
	if !n.Hidden() {
		t.Error("expected hidden")
	}
}
