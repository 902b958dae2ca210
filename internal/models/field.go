package models

// DataType semantic type assigned to a field value
type DataType string

const (
	DataTypeEmail      DataType = "Email"
	DataTypePhone      DataType = "Phone"
	DataTypeSSN        DataType = "SSN"
	DataTypeCreditCard DataType = "CreditCard"
	DataTypeCurrency   DataType = "Currency"
	DataTypeDate       DataType = "Date"
	DataTypeAddress    DataType = "Address"
	DataTypeName       DataType = "Name"
	DataTypeNumber     DataType = "Number"
	DataTypeText       DataType = "Text"
)

const (
	DefaultElementType = "CUSTOM"
	DefaultCategory    = "GENERAL"
)

// ExtractedField is one key/value pair resolved from the block graph.
// ID is the id of the KEY block it came from.
type ExtractedField struct {
	ID              string       `json:"id"`
	Label           string       `json:"label"`
	Value           string       `json:"value"`
	Confidence      float64      `json:"confidence"`
	DataType        DataType     `json:"dataType"`
	BoundingBox     *BoundingBox `json:"boundingBox"`
	KeyBoundingBox  *BoundingBox `json:"keyBoundingBox"`
	ValueWordBlocks []WordBlock  `json:"valueWordBlocks"`
	Page            int          `json:"page"`
	ElementType     string       `json:"elementType,omitempty"`
	Category        string       `json:"category,omitempty"`
}

// ConfiguredElement is a caller-supplied schema entry. Pattern takes precedence
// over Name when both are set.
type ConfiguredElement struct {
	Pattern  string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}
