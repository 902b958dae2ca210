package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/docintel/internal/models"
)

const twoFieldDocument = `{"Blocks": [
  {"Id": "w1", "BlockType": "WORD", "Text": "Name"},
  {"Id": "w2", "BlockType": "WORD", "Text": "John"},
  {"Id": "w3", "BlockType": "WORD", "Text": "Smith"},
  {"Id": "w4", "BlockType": "WORD", "Text": "DOB"},
  {"Id": "w5", "BlockType": "WORD", "Text": "01/01/1990"},
  {"Id": "k1", "BlockType": "KEY_VALUE_SET", "EntityTypes": ["KEY"], "Confidence": 90,
   "Relationships": [{"Type": "CHILD", "Ids": ["w1"]}, {"Type": "VALUE", "Ids": ["v1"]}]},
  {"Id": "v1", "BlockType": "KEY_VALUE_SET", "EntityTypes": ["VALUE"],
   "Relationships": [{"Type": "CHILD", "Ids": ["w2", "w3"]}]},
  {"Id": "k2", "BlockType": "KEY_VALUE_SET", "EntityTypes": ["KEY"], "Confidence": 85,
   "Relationships": [{"Type": "CHILD", "Ids": ["w4"]}, {"Type": "VALUE", "Ids": ["v2"]}]},
  {"Id": "v2", "BlockType": "KEY_VALUE_SET", "EntityTypes": ["VALUE"],
   "Relationships": [{"Type": "CHILD", "Ids": ["w5"]}]}
]}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	blocks := writeTemp(t, "blocks.json", twoFieldDocument)

	out, err := execute(t, "extract", blocks, "--elements=", "--expect=false", "--out=")
	require.NoError(t, err)

	var got []models.ExtractedField
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, models.DataTypeName, got[0].DataType)
	assert.Equal(t, models.DataTypeDate, got[1].DataType)
}

func TestMatchCommand(t *testing.T) {
	blocks := writeTemp(t, "blocks.json", twoFieldDocument)
	elements := writeTemp(t, "elements.yaml", "- name: Name\n")
	outFile := filepath.Join(t.TempDir(), "fields.json")

	_, err := execute(t, "match", blocks, "--elements=", "--expect=false", "--out=")
	assert.ErrorContains(t, err, "--elements is required")

	_, err = execute(t, "match", blocks, "--elements="+elements, "--expect=true", "--out="+outFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var got []models.ExtractedField
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "k1", got[0].ID)
	assert.Equal(t, models.DefaultElementType, got[0].ElementType)
}

func TestInferCommand(t *testing.T) {
	out, err := execute(t, "infer", "jane.doe@example.com", "hello world")
	require.NoError(t, err)
	assert.Equal(t, "Email\tjane.doe@example.com\nText\thello world\n", out)
}

func TestExtractCommandBadInput(t *testing.T) {
	_, err := execute(t, "extract", filepath.Join(t.TempDir(), "missing.json"), "--elements=", "--expect=false", "--out=")
	assert.Error(t, err)

	bad := writeTemp(t, "bad.json", "{")
	_, err = execute(t, "extract", bad, "--elements=", "--expect=false", "--out=")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "docintel v0.3.0\n", out)
}
