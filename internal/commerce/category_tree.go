package commerce

// BuildCategoryTree 将扁平分类组装为树，父节点缺失的分类视为根节点，保持输入顺序
func BuildCategoryTree(flat []Category) []Category {
	known := make(map[string]bool, len(flat))
	for _, c := range flat {
		known[c.ID] = true
	}
	children := make(map[string][]Category)
	var roots []Category
	for _, c := range flat {
		if c.ParentID == "" || !known[c.ParentID] || c.ParentID == c.ID {
			roots = append(roots, c)
			continue
		}
		children[c.ParentID] = append(children[c.ParentID], c)
	}

	visited := make(map[string]bool, len(flat))
	var attach func(node Category) Category
	attach = func(node Category) Category {
		visited[node.ID] = true
		node.Children = nil
		for _, child := range children[node.ID] {
			if visited[child.ID] {
				continue
			}
			node.Children = append(node.Children, attach(child))
		}
		return node
	}

	tree := make([]Category, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, attach(root))
	}
	return tree
}
