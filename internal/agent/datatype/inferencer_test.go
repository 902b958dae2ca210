package datatype

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feichai0017/docintel/internal/models"
)

func TestInfer(t *testing.T) {
	cases := []struct {
		in   string
		want models.DataType
	}{
		{"jane.doe@example.com", models.DataTypeEmail},
		{"(555) 123-4567", models.DataTypePhone},
		{"+61 412 345 6789", models.DataTypePhone},
		{"555-123-4567", models.DataTypePhone},
		{"(02) 1234 5678", models.DataTypePhone},
		{"0412 345 678", models.DataTypePhone},
		{"0412345678", models.DataTypePhone},
		{"+1 555.123.4567", models.DataTypePhone},
		{"(02) 1234 567", models.DataTypeText},
		{"+61 412 345", models.DataTypeText},
		{"123-45-6789", models.DataTypeSSN},
		{"4111 1111 1111 1111", models.DataTypeCreditCard},
		{"$1,234.56", models.DataTypeCurrency},
		{"42", models.DataTypeCurrency},
		{"04/12/2024", models.DataTypeDate},
		{"01/01/1990", models.DataTypeDate},
		{"1.2.90", models.DataTypeDate},
		{"123 Main Street", models.DataTypeAddress},
		{"12B Harbour View Rd", models.DataTypeAddress},
		{"John Smith", models.DataTypeName},
		{"12 345", models.DataTypeNumber},
		{"1.2.3.4", models.DataTypeNumber},
		{"hello world", models.DataTypeText},
		{"", models.DataTypeText},
		{"john smith", models.DataTypeText},
		{"13/13/2024", models.DataTypeText},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Infer(tc.in))
		})
	}
}

func TestInferIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, models.DataTypeSSN, Infer("123-45-6789"))
	}
}

func TestTypesEndsWithText(t *testing.T) {
	types := Types()
	assert.Equal(t, models.DataTypeEmail, types[0])
	assert.Equal(t, models.DataTypeText, types[len(types)-1])
	assert.Len(t, types, 10)
}
