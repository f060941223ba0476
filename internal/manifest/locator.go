package manifest

import "gopkg.in/yaml.v3"

// Node resolves a path of mapping keys (string) and sequence indexes
// (int) to the matching value node of the parsed document, so
// diagnostics can carry the exact manifest position. Returns nil when
// the path does not exist; diagnostics then render without a position.
//
//	m.Node("composites", 0, "elements", 2, "identity")
func (m *Manifest) Node(path ...interface{}) *yaml.Node {
	if m == nil || m.doc == nil {
		return nil
	}
	node := m.doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	for _, step := range path {
		switch s := step.(type) {
		case string:
			if node.Kind != yaml.MappingNode {
				return nil
			}
			var next *yaml.Node
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == s {
					next = node.Content[i+1]
					break
				}
			}
			if next == nil {
				return nil
			}
			node = next
		case int:
			if node.Kind != yaml.SequenceNode || s < 0 || s >= len(node.Content) {
				return nil
			}
			node = node.Content[s]
		default:
			return nil
		}
	}
	return node
}
