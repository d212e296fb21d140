package bookmodel

// SyntheticReference marks a contents-tree node synthesized to bridge a
// skipped NCX depth (§4.8 "open a synthetic beginContentsParagraph(-2)").
const SyntheticReference = -2

// ContentsNode is one entry in the table-of-contents tree: display text
// plus a reference into the main text model (a paragraph number, or
// SyntheticReference for a "..." placeholder).
type ContentsNode struct {
	Text      string
	Reference int
	Children  []*ContentsNode
}

// ContentsTree is the rooted TOC tree the pipeline builds while walking
// an NCX navigation map (§3, §4.8). It is driven by a stack mirroring the
// reader's beginContentsParagraph/addContentsData/endContentsParagraph
// API so §4.8's level-tracking loop can be expressed directly against it.
type ContentsTree struct {
	root  *ContentsNode
	stack []*ContentsNode
}

func newContentsTree() *ContentsTree {
	root := &ContentsNode{Reference: SyntheticReference}
	return &ContentsTree{root: root, stack: []*ContentsNode{root}}
}

// Root returns the tree's synthetic root node; its Children are the
// top-level TOC entries.
func (t *ContentsTree) Root() *ContentsNode { return t.root }

// Depth returns the current open-node stack depth (§4.8 "level"); Depth()
// returns 0 only at the root, matching §8's "TOC generation leaves
// level = 0 on return" invariant once every opened node has been closed.
func (t *ContentsTree) Depth() int { return len(t.stack) - 1 }

// BeginContentsParagraph opens a new child node of the currently open
// node with the given reference, and descends into it.
func (t *ContentsTree) BeginContentsParagraph(reference int) *ContentsNode {
	parent := t.stack[len(t.stack)-1]
	node := &ContentsNode{Reference: reference}
	parent.Children = append(parent.Children, node)
	t.stack = append(t.stack, node)
	return node
}

// AddContentsData appends text to the currently open node's label.
func (t *ContentsTree) AddContentsData(text string) {
	node := t.stack[len(t.stack)-1]
	node.Text += text
}

// EndContentsParagraph closes the currently open node, returning to its
// parent. Calling it at the root is a programming error, matching the
// reader's unmatched-pop-is-fatal contract (§4.3).
func (t *ContentsTree) EndContentsParagraph() {
	if len(t.stack) <= 1 {
		panic("bookmodel: EndContentsParagraph called with no open contents node")
	}
	t.stack = t.stack[:len(t.stack)-1]
}
