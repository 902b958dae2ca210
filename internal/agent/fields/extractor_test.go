package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/pkg/logger"
)

type formBuilder struct {
	blocks []models.Block
	n      int
}

func (b *formBuilder) words(text ...string) []string {
	ids := make([]string, 0, len(text))
	for _, t := range text {
		b.n++
		id := "w" + string(rune('a'+b.n))
		b.blocks = append(b.blocks, models.Block{
			ID:         id,
			BlockType:  models.BlockTypeWord,
			Text:       t,
			Confidence: 98,
		})
		ids = append(ids, id)
	}
	return ids
}

// pair adds a KEY with label words and a VALUE with value words
func (b *formBuilder) pair(keyID string, confidence float64, label, value []string) {
	valueID := keyID + "-v"
	keyRels := []models.Relationship{
		{Type: models.RelationshipValue, Ids: []string{valueID}},
	}
	if len(label) > 0 {
		keyRels = append(keyRels, models.Relationship{Type: models.RelationshipChild, Ids: b.words(label...)})
	}
	var valueRels []models.Relationship
	if len(value) > 0 {
		valueRels = []models.Relationship{{Type: models.RelationshipChild, Ids: b.words(value...)}}
	}

	b.blocks = append(b.blocks,
		models.Block{
			ID:            keyID,
			BlockType:     models.BlockTypeKeyValueSet,
			EntityTypes:   []models.EntityType{models.EntityTypeKey},
			Relationships: keyRels,
			Confidence:    confidence,
			Geometry:      &models.Geometry{BoundingBox: &models.BoundingBox{Left: 0.1, Top: 0.2}},
		},
		models.Block{
			ID:            valueID,
			BlockType:     models.BlockTypeKeyValueSet,
			EntityTypes:   []models.EntityType{models.EntityTypeValue},
			Relationships: valueRels,
			Confidence:    confidence,
			Geometry:      &models.Geometry{BoundingBox: &models.BoundingBox{Left: 0.5, Top: 0.2}},
			Page:          2,
		},
	)
}

func TestExtractTwoFields(t *testing.T) {
	var b formBuilder
	b.pair("k1", 91, []string{"Name"}, []string{"John", "Smith"})
	b.pair("k2", 87, []string{"DOB"}, []string{"01/01/1990"})

	out := NewExtractor(logger.NewNop()).Extract(b.blocks)
	require.Len(t, out, 2)

	assert.Equal(t, "k1", out[0].ID)
	assert.Equal(t, "Name", out[0].Label)
	assert.Equal(t, "John Smith", out[0].Value)
	assert.Equal(t, models.DataTypeName, out[0].DataType)
	assert.Equal(t, 91.0, out[0].Confidence)
	assert.Equal(t, 2, out[0].Page)
	assert.Len(t, out[0].ValueWordBlocks, 2)
	require.NotNil(t, out[0].BoundingBox)
	require.NotNil(t, out[0].KeyBoundingBox)
	assert.Equal(t, 0.5, out[0].BoundingBox.Left)
	assert.Equal(t, 0.1, out[0].KeyBoundingBox.Left)

	assert.Equal(t, "DOB", out[1].Label)
	assert.Equal(t, models.DataTypeDate, out[1].DataType)
	assert.Empty(t, out[1].ElementType)
}

func TestExtractDropsIncompletePairs(t *testing.T) {
	var b formBuilder
	b.pair("no-label", 90, nil, []string{"orphan"})
	b.pair("no-value", 90, []string{"Email"}, nil)
	b.pair("ok", 90, []string{"City"}, []string{"Perth"})
	phone := b.words("Phone")
	b.blocks = append(b.blocks, models.Block{
		ID:          "dangling",
		BlockType:   models.BlockTypeKeyValueSet,
		EntityTypes: []models.EntityType{models.EntityTypeKey},
		Relationships: []models.Relationship{
			{Type: models.RelationshipChild, Ids: phone},
			{Type: models.RelationshipValue, Ids: []string{"missing"}},
		},
	})

	log := logger.NewTestLogger()
	out := NewExtractor(log).Extract(b.blocks)
	require.Len(t, out, 1)
	assert.Equal(t, "City", out[0].Label)
	assert.True(t, log.HasEntry("DEBUG", "Fields extracted"))
}

func TestExtractDuplicateLabelLaterWins(t *testing.T) {
	var b formBuilder
	b.pair("k1", 80, []string{"Name"}, []string{"Jane", "Doe"})
	b.pair("k2", 80, []string{"Phone"}, []string{"0412", "345", "678"})
	b.pair("k3", 95, []string{"Name"}, []string{"John", "Smith"})

	out := NewExtractor(nil).Extract(b.blocks)
	require.Len(t, out, 2)
	assert.Equal(t, "Name", out[0].Label)
	assert.Equal(t, "John Smith", out[0].Value)
	assert.Equal(t, "k3", out[0].ID)
	assert.Equal(t, "Phone", out[1].Label)
}

func TestExtractIsIdempotent(t *testing.T) {
	var b formBuilder
	b.pair("k1", 91, []string{"Name"}, []string{"John", "Smith"})
	b.pair("k2", 87, []string{"DOB"}, []string{"01/01/1990"})

	e := NewExtractor(nil)
	assert.Equal(t, e.Extract(b.blocks), e.Extract(b.blocks))
}

func TestExtractEmpty(t *testing.T) {
	out := NewExtractor(nil).Extract(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestExtractExpected(t *testing.T) {
	e := NewExtractor(nil)

	_, err := e.ExtractExpected(nil)
	assert.ErrorIs(t, err, ErrNoFields, "no keys at all still fails")

	var b formBuilder
	b.pair("k1", 90, []string{"Name"}, nil)
	_, err = e.ExtractExpected(b.blocks)
	assert.ErrorIs(t, err, ErrNoFields)

	b.pair("k2", 90, []string{"Age"}, []string{"33"})
	out, err := e.ExtractExpected(b.blocks)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestExtractFor(t *testing.T) {
	e := NewExtractor(nil)

	out, err := e.ExtractFor(nil, false)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	_, err = e.ExtractFor(nil, true)
	assert.ErrorIs(t, err, ErrNoFields)

	var b formBuilder
	b.pair("k1", 90, []string{"Age"}, []string{"33"})
	out, err = e.ExtractFor(b.blocks, true)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
