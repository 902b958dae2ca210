package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/docintel/internal/models"
)

func TestPageLines(t *testing.T) {
	lines := PageLines("Invoice\n\n  Total: $10.00  \n", 2)
	require.Len(t, lines, 2)

	assert.Equal(t, "p2-l1", lines[0].ID)
	assert.Equal(t, "Invoice", lines[0].Text)
	assert.Equal(t, "p2-l3", lines[1].ID)
	assert.Equal(t, "Total: $10.00", lines[1].Text)
	assert.Equal(t, models.BlockTypeLine, lines[1].BlockType)
	assert.Equal(t, 2, lines[1].Page)
	assert.Equal(t, 100.0, lines[1].Confidence)

	assert.Empty(t, PageLines("   \n", 1))
}

func TestExtractTextRejectsGarbage(t *testing.T) {
	p := NewProcessor(nil)
	assert.True(t, p.CanProcess("application/pdf"))
	assert.False(t, p.CanProcess("image/png"))

	_, err := p.ExtractText(context.Background(), models.Document{Content: []byte("not a pdf")})
	assert.Error(t, err)
}
