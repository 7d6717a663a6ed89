package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescription(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"IFOOD       *IFOOD", "IFOOD *IFOOD"},
		{"ifd*ifood", "IFD*IFOOD"},
		{"  Uber   Trip  ", "UBER TRIP"},
		{"PAG*JoseDaSilva - 10/12", "PAG*JOSEDASILVA 1012"},
		{"Farmácia São João", "FARMÁCIA SÃO JOÃO"},
		{"NETFLIX.COM", "NETFLIXCOM"},
		{"a\tb\nc", "A B C"},
		{"a - b", "A B"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Description(tt.in), "Description(%q)", tt.in)
	}
}

func TestDescription_Idempotent(t *testing.T) {
	inputs := []string{
		"IFOOD       *IFOOD",
		"  mixed Case\t\twith  tabs ",
		"a - b - c",
		"R$ 10,00 * x",
		"ção ß ǅ",
		"** * **",
		" non breaking space",
	}
	for _, in := range inputs {
		once := Description(in)
		assert.Equal(t, once, Description(once), "input %q", in)
	}
}

func TestPattern(t *testing.T) {
	assert.Equal(t, "UBER EATS", Pattern(" uber  eats "))
}
