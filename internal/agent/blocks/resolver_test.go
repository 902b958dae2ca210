package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/docintel/internal/models"
)

func word(id, text string) models.Block {
	return models.Block{
		ID:         id,
		BlockType:  models.BlockTypeWord,
		Text:       text,
		Confidence: 99,
		Geometry: &models.Geometry{
			BoundingBox: &models.BoundingBox{Width: 0.1, Height: 0.02, Left: 0.1, Top: 0.1},
			Polygon:     []models.Point{{X: 0.1, Y: 0.1}},
		},
	}
}

func kvBlock(id string, entity models.EntityType, rels ...models.Relationship) models.Block {
	return models.Block{
		ID:            id,
		BlockType:     models.BlockTypeKeyValueSet,
		EntityTypes:   []models.EntityType{entity},
		Relationships: rels,
		Confidence:    90,
	}
}

func child(ids ...string) models.Relationship {
	return models.Relationship{Type: models.RelationshipChild, Ids: ids}
}

func value(ids ...string) models.Relationship {
	return models.Relationship{Type: models.RelationshipValue, Ids: ids}
}

func TestTextOfJoinsDirectChildren(t *testing.T) {
	g := NewGraph([]models.Block{
		word("w1", "Full"),
		word("w2", "Name"),
		kvBlock("k1", models.EntityTypeKey, child("w1", "missing", "w2")),
	})

	k, ok := g.Block("k1")
	require.True(t, ok)
	assert.Equal(t, "Full Name", g.ChildText(k))
	assert.Equal(t, "", g.TextOf(k, models.RelationshipValue))
	assert.Equal(t, "", g.TextOf(nil, models.RelationshipChild))
}

func TestTextOfDoesNotRecurse(t *testing.T) {
	line := models.Block{
		ID:            "l1",
		BlockType:     models.BlockTypeLine,
		Relationships: []models.Relationship{child("w1")},
	}
	g := NewGraph([]models.Block{
		word("w1", "deep"),
		line,
		kvBlock("k1", models.EntityTypeKey, child("l1")),
	})

	k, _ := g.Block("k1")
	assert.Equal(t, "", g.ChildText(k))
}

func TestValueBlockOfFirstWins(t *testing.T) {
	g := NewGraph([]models.Block{
		kvBlock("k1", models.EntityTypeKey, value("w1", "v1", "v2")),
		word("w1", "not a value"),
		kvBlock("v1", models.EntityTypeValue),
		kvBlock("v2", models.EntityTypeValue),
	})

	k, _ := g.Block("k1")
	v, ok := g.ValueBlockOf(k)
	require.True(t, ok)
	assert.Equal(t, "v1", v.ID)

	_, ok = g.ValueBlockOf(nil)
	assert.False(t, ok)
}

func TestValueBlockOfMissing(t *testing.T) {
	g := NewGraph([]models.Block{
		kvBlock("k1", models.EntityTypeKey, value("nowhere")),
	})
	k, _ := g.Block("k1")
	_, ok := g.ValueBlockOf(k)
	assert.False(t, ok)
}

func TestKeysKeepFirstSeenOrder(t *testing.T) {
	g := NewGraph([]models.Block{
		kvBlock("k2", models.EntityTypeKey),
		kvBlock("k1", models.EntityTypeKey),
		kvBlock("k2", models.EntityTypeKey, child("w1")),
		kvBlock("v1", models.EntityTypeValue),
		{BlockType: models.BlockTypeKeyValueSet, EntityTypes: []models.EntityType{models.EntityTypeKey}},
	})

	keys := g.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, "k2", keys[0].ID)
	assert.Equal(t, "k1", keys[1].ID)
	assert.Len(t, keys[0].Relationships, 1, "duplicate id replaces the block")
	assert.Equal(t, 2, g.KeyCount())
	assert.Equal(t, 1, g.ValueCount())
}

func TestWordsOfSkipsNonWords(t *testing.T) {
	sel := models.Block{ID: "s1", BlockType: models.BlockTypeSelectionElement}
	g := NewGraph([]models.Block{
		word("w1", "John"),
		sel,
		word("w2", "Smith"),
		kvBlock("v1", models.EntityTypeValue, child("w1", "s1", "w2")),
	})

	v, _ := g.Block("v1")
	words := g.WordsOf(v)
	require.Len(t, words, 2)
	assert.Equal(t, "w1", words[0].ID)
	assert.Equal(t, "Smith", words[1].Text)
	assert.NotNil(t, words[0].BoundingBox)
	assert.Len(t, words[0].Polygon, 1)
	assert.Nil(t, g.WordsOf(nil))
}

func TestLineText(t *testing.T) {
	in := []models.Block{
		{ID: "1", BlockType: models.BlockTypeLine, Text: "first", Confidence: 95},
		{ID: "2", BlockType: models.BlockTypeWord, Text: "first", Confidence: 95},
		{ID: "3", BlockType: models.BlockTypeLine, Text: "blurry", Confidence: 20},
		{ID: "4", BlockType: models.BlockTypeLine, Text: "second", Confidence: 80},
	}
	assert.Equal(t, "first\nsecond", LineText(in, 50))
	assert.Equal(t, "first\nblurry\nsecond", LineText(in, 0))
	assert.Equal(t, "", LineText(nil, 0))
}

func TestPageCountAndConfidence(t *testing.T) {
	in := []models.Block{
		{ID: "1", BlockType: models.BlockTypeLine, Confidence: 90},
		{ID: "2", BlockType: models.BlockTypeLine, Confidence: 70, Page: 3},
		{ID: "3", BlockType: models.BlockTypeWord, Confidence: 10, Page: 2},
	}
	assert.Equal(t, 3, PageCount(in))
	assert.Equal(t, 0, PageCount(nil))
	assert.InDelta(t, 80.0, AverageConfidence(in), 1e-9)
	assert.Zero(t, AverageConfidence(nil))
}
