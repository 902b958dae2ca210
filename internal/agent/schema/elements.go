package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/feichai0017/docintel/internal/models"
)

type elementsFile struct {
	Elements []models.ConfiguredElement `yaml:"elements"`
}

// LoadElements decodes an element list. Both a bare YAML sequence and a
// mapping with an "elements" key are accepted; JSON is valid YAML.
func LoadElements(r io.Reader) ([]models.ConfiguredElement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read elements: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse elements: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var elements []models.ConfiguredElement
		if err := root.Decode(&elements); err != nil {
			return nil, fmt.Errorf("failed to decode elements: %w", err)
		}
		return elements, nil
	}

	var file elementsFile
	if err := root.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode elements: %w", err)
	}
	return file.Elements, nil
}

func LoadElementsFile(path string) ([]models.ConfiguredElement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open elements file: %w", err)
	}
	defer f.Close()
	return LoadElements(f)
}
