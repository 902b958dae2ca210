// Package blocks indexes a flat OCR block list so key/value form pairs can be
// resolved without rescanning the list for every relationship.
package blocks

import (
	"strings"

	"github.com/feichai0017/docintel/internal/models"
)

// Graph is a read-only index over one document's blocks. Blocks are never mutated.
type Graph struct {
	all      map[string]*models.Block
	keys     map[string]*models.Block
	values   map[string]*models.Block
	keyOrder []string
}

// NewGraph indexes blocks by id. A duplicate id replaces the earlier block,
// while KEY iteration order stays that of the first occurrence.
func NewGraph(blocks []models.Block) *Graph {
	g := &Graph{
		all:    make(map[string]*models.Block, len(blocks)),
		keys:   make(map[string]*models.Block),
		values: make(map[string]*models.Block),
	}

	for i := range blocks {
		b := &blocks[i]
		if b.ID == "" {
			continue
		}
		g.all[b.ID] = b

		if b.BlockType != models.BlockTypeKeyValueSet {
			continue
		}
		if b.HasEntityType(models.EntityTypeKey) {
			if _, seen := g.keys[b.ID]; !seen {
				g.keyOrder = append(g.keyOrder, b.ID)
			}
			g.keys[b.ID] = b
		}
		if b.HasEntityType(models.EntityTypeValue) {
			g.values[b.ID] = b
		}
	}

	return g
}

// Block returns any indexed block by id
func (g *Graph) Block(id string) (*models.Block, bool) {
	b, ok := g.all[id]
	return b, ok
}

// Keys returns KEY blocks in first-seen order
func (g *Graph) Keys() []*models.Block {
	out := make([]*models.Block, 0, len(g.keyOrder))
	for _, id := range g.keyOrder {
		out = append(out, g.keys[id])
	}
	return out
}

// KeyCount number of distinct KEY block ids
func (g *Graph) KeyCount() int {
	return len(g.keyOrder)
}

// ValueCount number of distinct VALUE block ids
func (g *Graph) ValueCount() int {
	return len(g.values)
}

// TextOf joins, in relationship order, the text of the direct targets of
// relationships of type rel. Only one hop is followed; unresolved ids and
// targets without text are skipped.
func (g *Graph) TextOf(b *models.Block, rel models.RelationshipType) string {
	if b == nil {
		return ""
	}

	parts := make([]string, 0, 4)
	for _, r := range b.Relationships {
		if r.Type != rel {
			continue
		}
		for _, id := range r.Ids {
			target, ok := g.all[id]
			if !ok || target.Text == "" {
				continue
			}
			parts = append(parts, target.Text)
		}
	}
	return strings.Join(parts, " ")
}

// ChildText is TextOf over CHILD relationships
func (g *Graph) ChildText(b *models.Block) string {
	return g.TextOf(b, models.RelationshipChild)
}

// ValueBlockOf follows the VALUE relationships of a KEY block and returns the
// first target that resolves to a VALUE block. Later candidates are ignored.
func (g *Graph) ValueBlockOf(key *models.Block) (*models.Block, bool) {
	if key == nil {
		return nil, false
	}
	for _, r := range key.Relationships {
		if r.Type != models.RelationshipValue {
			continue
		}
		for _, id := range r.Ids {
			if v, ok := g.values[id]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// WordsOf returns the WORD blocks that are direct CHILD targets of b, in order
func (g *Graph) WordsOf(b *models.Block) []models.WordBlock {
	if b == nil {
		return nil
	}

	words := make([]models.WordBlock, 0, 4)
	for _, r := range b.Relationships {
		if r.Type != models.RelationshipChild {
			continue
		}
		for _, id := range r.Ids {
			target, ok := g.all[id]
			if !ok || target.BlockType != models.BlockTypeWord {
				continue
			}
			var polygon []models.Point
			if target.Geometry != nil {
				polygon = target.Geometry.Polygon
			}
			words = append(words, models.WordBlock{
				ID:          target.ID,
				Text:        target.Text,
				BoundingBox: target.BoundingBox(),
				Polygon:     polygon,
				Confidence:  target.Confidence,
			})
		}
	}
	return words
}

// LineText joins LINE block text with newlines in document order, keeping only
// lines at or above minConfidence.
func LineText(blocks []models.Block, minConfidence float64) string {
	lines := make([]string, 0, len(blocks))
	for i := range blocks {
		b := &blocks[i]
		if b.BlockType != models.BlockTypeLine || b.Text == "" {
			continue
		}
		if b.Confidence < minConfidence {
			continue
		}
		lines = append(lines, b.Text)
	}
	return strings.Join(lines, "\n")
}

// PageCount highest page number seen, at least 1 when blocks exist
func PageCount(blocks []models.Block) int {
	pages := 0
	for i := range blocks {
		if p := blocks[i].PageNumber(); p > pages {
			pages = p
		}
	}
	return pages
}

// AverageConfidence over LINE blocks, 0 when there are none
func AverageConfidence(blocks []models.Block) float64 {
	var total float64
	var n int
	for i := range blocks {
		if blocks[i].BlockType == models.BlockTypeLine {
			total += blocks[i].Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
