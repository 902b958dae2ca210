// Package datatype classifies a field value into one semantic type.
package datatype

import (
	"regexp"
	"strings"

	"github.com/feichai0017/docintel/internal/models"
)

type rule struct {
	dataType models.DataType
	match    func(string) bool
}

func pattern(expr string) func(string) bool {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

var (
	streetSuffixes = `(?:St|Street|Rd|Road|Ave|Avenue|Blvd|Boulevard|Dr|Drive|Ln|Lane|Ct|Court|Pl|Place|Way|Pde|Parade|Cres|Crescent|Hwy|Highway|Tce|Terrace|Cl|Close)`

	// evaluated in order, first match wins
	rules = []rule{
		{models.DataTypeEmail, pattern(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)},
		{models.DataTypePhone, isPhone},
		{models.DataTypeSSN, pattern(`^\d{3}[\s\-]?\d{2}[\s\-]?\d{4}$`)},
		{models.DataTypeCreditCard, pattern(`^\d{4}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4}$`)},
		{models.DataTypeCurrency, pattern(`^[$€£¥]?\s?\d+(?:,\d{3})*(?:\.\d{1,2})?$`)},
		{models.DataTypeDate, pattern(`^(?:0?[1-9]|[12]\d|3[01])[/.\-](?:0?[1-9]|1[0-2])[/.\-](?:\d{4}|\d{2})$`)},
		{models.DataTypeAddress, pattern(`^\d+[A-Za-z]?\s+(?:[A-Z][a-z]+\s+){1,3}` + streetSuffixes + `\b`)},
		{models.DataTypeName, pattern(`^[A-Z][a-z]+\s[A-Z][a-z]+$`)},
		{models.DataTypeNumber, isNumber},
	}

	// digit groups of 2-4 covers 3-3-4, 2-4-4 and 4-3-3 layouts
	phoneShape = regexp.MustCompile(`^(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)|\d{2,4})(?:[\s.\-]?\d{2,4}){1,4}$`)

	numberStripper = strings.NewReplacer(",", "", ".", "", " ", "", "\t", "", "\n", "")
)

// isPhone accepts 10 significant digits, plus 1-3 more when a +country code
// leads.
func isPhone(value string) bool {
	if !phoneShape.MatchString(value) {
		return false
	}
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if strings.HasPrefix(value, "+") {
		return digits >= 11 && digits <= 13
	}
	return digits == 10
}

func isNumber(value string) bool {
	stripped := numberStripper.Replace(value)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Infer returns the data type of value. It never fails: anything that no rule
// accepts is Text.
func Infer(value string) models.DataType {
	for _, r := range rules {
		if r.match(value) {
			return r.dataType
		}
	}
	return models.DataTypeText
}

// Types lists every label Infer can return, in evaluation order
func Types() []models.DataType {
	out := make([]models.DataType, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.dataType)
	}
	return append(out, models.DataTypeText)
}
