package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Matematica", "matematica"},
		{"spaces", "Educacao Fisica", "educacao-fisica"},
		{"diacritics", "Educação Física", "educacao-fisica"},
		{"cedilla", "Redação", "redacao"},
		{"mixed punctuation", "Turma 3ºA - Manhã", "turma-3-a-manha"},
		{"leading trailing", "  --Ciências--  ", "ciencias"},
		{"collapse runs", "Artes   &   Música", "artes-musica"},
		{"numbers", "Ano 2026", "ano-2026"},
		{"empty", "", ""},
		{"only symbols", "***", ""},
		{"arabic numerals dropped", "٣ Série B", "serie-b"},
		{"devanagari numerals dropped", "Turma १२", "turma"},
		{"cjk collapses to empty", "数学", ""},
		{"ascii digits kept", "3º Ano B", "3-ano-b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Make(tc.input))
		})
	}
}

func TestMakeIsDeterministic(t *testing.T) {
	first := Make("Língua Portuguesa")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Make("Língua Portuguesa"))
	}
}
