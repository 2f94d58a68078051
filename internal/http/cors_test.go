package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single", input: "http://localhost:3000", expected: []string{"http://localhost:3000"}},
		{
			name:     "multiple with whitespace",
			input:    "http://localhost:3000, http://127.0.0.1:3000 ,",
			expected: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		{name: "only separators", input: ", ,", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseOrigins(tt.input))
		})
	}
}

func TestCreateCORSMiddleware(t *testing.T) {
	logger := testLogger()

	assert.Nil(t, createCORSMiddleware(false, "http://localhost:3000", logger))
	assert.Nil(t, createCORSMiddleware(true, "", logger))
	assert.Nil(t, createCORSMiddleware(true, " , ", logger))
	assert.NotNil(t, createCORSMiddleware(true, "http://localhost:3000", logger))
}
