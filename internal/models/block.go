package models

// BlockType OCR block types
type BlockType string

const (
	BlockTypePage             BlockType = "PAGE"
	BlockTypeLine             BlockType = "LINE"
	BlockTypeWord             BlockType = "WORD"
	BlockTypeKeyValueSet      BlockType = "KEY_VALUE_SET"
	BlockTypeTable            BlockType = "TABLE"
	BlockTypeCell             BlockType = "CELL"
	BlockTypeSelectionElement BlockType = "SELECTION_ELEMENT"
)

// EntityType marks which half of a form pair a KEY_VALUE_SET block is
type EntityType string

const (
	EntityTypeKey   EntityType = "KEY"
	EntityTypeValue EntityType = "VALUE"
)

// RelationshipType block relationship types
type RelationshipType string

const (
	RelationshipChild RelationshipType = "CHILD"
	RelationshipValue RelationshipType = "VALUE"
)

// BoundingBox is expressed as ratios of the page size
type BoundingBox struct {
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
}

// Point polygon vertex
type Point struct {
	X float64 `json:"X"`
	Y float64 `json:"Y"`
}

type Geometry struct {
	BoundingBox *BoundingBox `json:"BoundingBox,omitempty"`
	Polygon     []Point      `json:"Polygon,omitempty"`
}

type Relationship struct {
	Type RelationshipType `json:"Type"`
	Ids  []string         `json:"Ids"`
}

// Block is a provider-neutral OCR block. The JSON layout follows the Textract
// response so raw AnalyzeDocument dumps decode directly.
type Block struct {
	ID            string         `json:"Id"`
	BlockType     BlockType      `json:"BlockType"`
	Text          string         `json:"Text,omitempty"`
	EntityTypes   []EntityType   `json:"EntityTypes,omitempty"`
	Relationships []Relationship `json:"Relationships,omitempty"`
	Geometry      *Geometry      `json:"Geometry,omitempty"`
	Confidence    float64        `json:"Confidence"`
	Page          int            `json:"Page,omitempty"`
}

// HasEntityType reports whether the block carries the given entity type
func (b *Block) HasEntityType(t EntityType) bool {
	for _, et := range b.EntityTypes {
		if et == t {
			return true
		}
	}
	return false
}

// BoundingBox returns the block's bounding box or nil when no geometry was reported
func (b *Block) BoundingBox() *BoundingBox {
	if b.Geometry == nil {
		return nil
	}
	return b.Geometry.BoundingBox
}

// PageNumber returns the 1-based page, defaulting to 1
func (b *Block) PageNumber() int {
	if b.Page <= 0 {
		return 1
	}
	return b.Page
}

// WordBlock is the projection of a WORD block used for redaction
type WordBlock struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	BoundingBox *BoundingBox `json:"boundingBox"`
	Polygon     []Point      `json:"polygon"`
	Confidence  float64      `json:"confidence"`
}

// BlockDocument wraps a raw block list, matching the top level of a Textract response
type BlockDocument struct {
	Blocks []Block `json:"Blocks"`
}
