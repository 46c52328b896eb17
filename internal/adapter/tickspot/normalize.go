package tickspot

import "strings"

// collectionPaths maps each container path in a response document to the tag
// of its repeated child. Every level of the clients_projects_tasks tree is
// listed on its own so a single client holding a single project holding a
// single task still comes out as sequences all the way down.
var collectionPaths = map[string]string{
	"/clients":                               "client",
	"/entries":                               "entry",
	"/users":                                 "user",
	"/projects":                              "project",
	"/clients/client/projects":               "project",
	"/tasks":                                 "task",
	"/projects/project/tasks":                "task",
	"/clients/client/projects/project/tasks": "task",
}

// ensureSlice returns v when it already is a sequence and wraps it in a
// one-element sequence otherwise.
func ensureSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return []any{v}
}

// normalize forces the repeated child of a container path to a sequence.
// Nodes at any other path are returned unchanged. A container that is present
// but holds no child (<entries></entries>) becomes an empty sequence.
func normalize(path string, node any) any {
	tag, ok := collectionPaths[path]
	if !ok {
		return node
	}
	m, ok := node.(map[string]any)
	if !ok {
		if s, isStr := node.(string); isStr && strings.TrimSpace(s) == "" {
			return map[string]any{tag: []any{}}
		}
		return node
	}
	child, present := m[tag]
	if !present {
		m[tag] = []any{}
		return m
	}
	m[tag] = ensureSlice(child)
	return m
}

// normalizeTree applies normalize at every level of a parsed document,
// children first. Elements of a repeated tag share the tag's path.
func normalizeTree(path string, node any) any {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			n[k] = normalizeTree(path+"/"+k, v)
		}
	case []any:
		for i, v := range n {
			n[i] = normalizeTree(path, v)
		}
		return n
	}
	return normalize(path, node)
}
