package catalog

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"catalog/selector/internal/domain"
)

// Source supplies the category tree once at startup.
type Source interface {
	LoadCategories(ctx context.Context) ([]domain.Category, error)
}

// Load reads categories from src and builds a validated Catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	categories, err := src.LoadCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	c, err := New(categories)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	log.Infof("📚 Catalog loaded: %d categories, %d properties", len(c.categories), len(c.properties))
	return c, nil
}

type builtinSource struct{}

// BuiltinSource serves the compiled-in catalog.
func BuiltinSource() Source {
	return builtinSource{}
}

func (builtinSource) LoadCategories(context.Context) ([]domain.Category, error) {
	return cloneCategories(defaultCategories), nil
}

type fileSource struct {
	path string
}

// FileSource reads a YAML or JSON document holding a list of categories,
// either at the top level or under a "categories" key.
func FileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) LoadCategories(_ context.Context) ([]domain.Category, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", s.path, err)
	}

	categories, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog file %s: %w", s.path, err)
	}

	log.Debugf("Read %d categories from %s", len(categories), s.path)
	return categories, nil
}

// Decode parses a YAML or JSON catalog document.
func Decode(data []byte) ([]domain.Category, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("empty catalog document")
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var categories []domain.Category
		if err := root.Decode(&categories); err != nil {
			return nil, err
		}
		return categories, nil
	case yaml.MappingNode:
		var doc struct {
			Categories []domain.Category `yaml:"categories"`
		}
		if err := root.Decode(&doc); err != nil {
			return nil, err
		}
		return doc.Categories, nil
	default:
		return nil, fmt.Errorf("catalog document must be a list or a mapping, got %v", root.Kind)
	}
}
