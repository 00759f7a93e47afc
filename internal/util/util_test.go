package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagMatch(t *testing.T) {
	tests := []struct {
		name     string
		inputTag string
		match    string
		want     bool
	}{
		{"Exact match", "foo", "foo", true},
		{"Prefix match", "foobar", "foo*", true},
		{"Suffix match", "foobar", "*bar", true},
		{"Middle match", "foobarbaz", "foo*baz", true},
		{"Multiple wildcards", "foobarbaz", "f*bar*baz", true},
		{"No match", "foobar", "baz*", false},
		{"Empty pattern", "foobar", "", false},
		{"Empty input", "", "*", true},
		{"Rule routing", "interview-self", "interview*", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TagMatch(tt.inputTag, tt.match)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustString(t *testing.T) {
	assert.Equal(t, "hello", MustString("hello"))
	assert.Equal(t, "", MustString(nil))
	assert.Panics(t, func() { MustString(42) }, "Should panic on non-string type")
}

func TestStringSlice(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    []string
		wantErr bool
	}{
		{"nil", nil, nil, false},
		{"string slice", []string{"a", "b"}, []string{"a", "b"}, false},
		{"comma separated", "Gatekeeper, Drone", []string{"Gatekeeper", "Drone"}, false},
		{"empty string", "", nil, false},
		{"yaml sequence", []interface{}{"a", "b"}, []string{"a", "b"}, false},
		{"mixed sequence", []interface{}{"a", 1}, nil, true},
		{"wrong type", 42, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StringSlice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
