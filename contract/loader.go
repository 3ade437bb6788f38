package contract

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const includeTag = "!include"

// Load parses the contract document at path, inlining every !include it
// reaches, and returns the merged Catalogue.
func Load(path string) (*Catalogue, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, newBadContract(path, "resolving path: %s", err)
	}

	root, err := loadNode(abs, map[string]bool{abs: true})
	if err != nil {
		return nil, err
	}

	var doc document
	if err := root.Decode(&doc); err != nil {
		return nil, newBadContract(path, "decoding contract document: %s", err)
	}

	suiteOrder, categoryOrder, err := documentOrder(root, abs)
	if err != nil {
		return nil, err
	}

	cat := &Catalogue{
		suites:  make(map[string]Suite, len(doc.TestSuites)),
		actions: make(map[string]Step, len(doc.AdapterActions)+len(doc.TestActions)),
		order:   suiteOrder,
	}

	for name, raw := range doc.TestSuites {
		suite := Suite{
			Name:                     name,
			Categories:               make(map[string]Category, len(raw.Categories)),
			RequiredAdapterEndpoints: raw.RequiredAdapterEndpoints,
			order:                    categoryOrder[name],
		}
		for catName, rc := range raw.Categories {
			suite.Categories[catName] = Category{Name: catName, Tests: rc.Tests}
		}
		cat.suites[name] = suite
	}

	// test_actions shadows adapter_actions on name collision.
	for name, step := range doc.AdapterActions {
		cat.actions[name] = step
	}
	for name, step := range doc.TestActions {
		cat.actions[name] = step
	}

	return cat, nil
}

// loadNode reads and parses the YAML file at abs, recursively inlining any
// !include directives it contains. chain tracks the ancestor include path
// (by resolved absolute path) for cycle detection.
func loadNode(abs string, chain map[string]bool) (*yaml.Node, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, newBadContract(abs, "reading file: %s", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newBadContract(abs, "parsing YAML: %s", err)
	}
	if len(doc.Content) == 0 {
		return &doc, nil
	}
	root := doc.Content[0]

	if err := resolveIncludes(root, abs, chain); err != nil {
		return nil, err
	}
	return root, nil
}

// resolveIncludes walks node, splicing in the parsed tree of any scalar
// node tagged !include in place.
func resolveIncludes(node *yaml.Node, base string, chain map[string]bool) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag != includeTag {
			return nil
		}
		target := absPath(base, node.Value)
		if chain[target] {
			return newBadContract(base, "cyclic !include of %s", node.Value)
		}
		childChain := make(map[string]bool, len(chain)+1)
		for k := range chain {
			childChain[k] = true
		}
		childChain[target] = true

		included, err := loadNode(target, childChain)
		if err != nil {
			return err
		}
		*node = *included
		return nil
	case yaml.MappingNode, yaml.SequenceNode, yaml.DocumentNode:
		for _, child := range node.Content {
			if err := resolveIncludes(child, base, chain); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// documentOrder recovers suite and category document order, which decoding
// into a Go map discards. Returns suite names in order, and a per-suite map
// of category names in order.
func documentOrder(root *yaml.Node, path string) ([]string, map[string][]string, error) {
	testSuitesNode := mappingValue(root, "test_suites")
	if testSuitesNode == nil {
		return nil, nil, nil
	}

	var suiteOrder []string
	categoryOrder := make(map[string][]string)

	for i := 0; i+1 < len(testSuitesNode.Content); i += 2 {
		nameNode, suiteNode := testSuitesNode.Content[i], testSuitesNode.Content[i+1]
		if nameNode.Kind != yaml.ScalarNode {
			return nil, nil, newBadContract(path, "test_suites key is not a scalar")
		}
		suiteOrder = append(suiteOrder, nameNode.Value)

		catsNode := mappingValue(suiteNode, "categories")
		if catsNode == nil {
			continue
		}
		var names []string
		for j := 0; j+1 < len(catsNode.Content); j += 2 {
			names = append(names, catsNode.Content[j].Value)
		}
		categoryOrder[nameNode.Value] = names
	}

	return suiteOrder, categoryOrder, nil
}

// mappingValue returns the value node for key within mapping node m, or
// nil if m is not a mapping or key is absent.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
