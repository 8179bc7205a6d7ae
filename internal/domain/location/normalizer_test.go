package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAbbreviations(t *testing.T) {
	n := DefaultNormalizer()

	cases := []struct {
		in   string
		want string
	}{
		{"вулиця Хрещатик, 12", "вул хрещатик, 12"},
		{"Вул. Хрещатик, 12", "вул хрещатик, 12"},
		{"проспект Перемоги, 1", "просп перемоги, 1"},
		{"Main Street 5", "main st 5"},
		{"main st. 5", "main st 5"},
		{"Fifth Avenue, Apartment 3", "fifth ave, apt 3"},
		{"Building 7, apartment 12", "bldg 7, apt 12"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, n.Normalize(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeCollapsesWhitespaceAndCase(t *testing.T) {
	n := DefaultNormalizer()

	assert.Equal(t, "вул шевченка, 10", n.Normalize("  ВУЛИЦЯ   Шевченка,   10  "))
	assert.Equal(t, "main st 5", n.Normalize("Main\tSTREET\n5"))
}

func TestNormalizeVariantsCollide(t *testing.T) {
	n := DefaultNormalizer()

	// Different spellings of the same address reduce to one key.
	a := n.Normalize("вулиця Хрещатик, буд. 12")
	b := n.Normalize("Вул. Хрещатик, будинок 12")
	assert.Equal(t, a, b)
}

func TestNormalizeEmpty(t *testing.T) {
	n := DefaultNormalizer()
	assert.Equal(t, "", n.Normalize(""))
	assert.Equal(t, "", n.Normalize("   "))
}

func TestCustomTableOrderMatters(t *testing.T) {
	// Longer forms listed first win before shorter substrings apply.
	n := NewNormalizer([][2]string{
		{"boulevard", "blvd"},
		{"street", "st"},
	})
	assert.Equal(t, "sunset blvd 1", n.Normalize("Sunset Boulevard 1"))
}
