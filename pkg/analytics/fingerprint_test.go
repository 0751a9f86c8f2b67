package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type label string

type ratio float32

func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"nil", nil, "None"},
		{"empty string", "", ""},
		{"trimmed string", "  str value  ", "str value"},
		{"int", 42, "42"},
		{"integral float", 42.0, "42.0"},
		{"float", 3.2, "3.2"},
		{"small float", 0.00001, "1e-05"},
		{"bool", true, "True"},
		{"json integer", json.Number("7"), "7"},
		{"json float", json.Number("7.50"), "7.5"},
		{"padded number string", " 42 ", "42"},
		{"mixed list", []interface{}{3.2, 1, " foo ", nil}, "1,3.2,None,foo"},
		{"nested list", []interface{}{" def", "abc", []int{22, 33}}, "22,33,abc,def"},
		{"array", [4]string{"abc", "def", "33", "22"}, "22,33,abc,def"},
		{"empty map", map[string]interface{}{}, ""},
		{"nil slice", []int(nil), ""},
		{"map", map[interface{}]interface{}{"a": " b c ", 1: 2}, "1:2|a:b c"},
		{
			"composite key",
			map[interface{}]interface{}{[2]int{1, 2}: []int{3, 4, 5}, "foo": "bar"},
			"1,2:3,4,5|foo:bar",
		},
		{"pointer", func() *int { i := 5; return &i }(), "5"},
		{"nil pointer", (*int)(nil), "None"},
		{"named string", label(" x "), "x"},
		{"named int", time.Second, "1000000000"},
		{"named float", ratio(0.5), "0.5"},
		{"int8", int8(3), "3"},
		{"uint", uint(7), "7"},
		{"map of named values", map[label]time.Duration{"wait": 2}, "wait:2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonical(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonical_Errors(t *testing.T) {
	_, err := Canonical()
	assert.ErrorIs(t, err, ErrInvalidArity)

	_, err = Canonical(1, 2)
	assert.ErrorIs(t, err, ErrInvalidArity)

	_, err = Canonical(map[string]struct{}{"a": {}})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Canonical([]interface{}{1, struct{ A int }{1}})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Fingerprint(make(chan int))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFingerprint(t *testing.T) {
	got, err := Fingerprint(map[string]interface{}{})
	require.NoError(t, err)
	// md5 of the empty string
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", got)

	a := map[string]interface{}{
		"scenario": map[string]interface{}{"Foo.bar": map[string]interface{}{"size": 1}},
		"runner":   map[string]interface{}{"constant": map[string]interface{}{"times": 10}},
		"list":     []interface{}{"x", "y"},
	}
	b := map[string]interface{}{
		"list":     []interface{}{"y", "x"},
		"runner":   map[string]interface{}{"constant": map[string]interface{}{"times": 10}},
		"scenario": map[string]interface{}{"Foo.bar": map[string]interface{}{"size": 1}},
	}

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	again, err := Fingerprint(a)
	require.NoError(t, err)

	assert.Len(t, fa, 32)
	assert.Equal(t, fa, fb)
	assert.Equal(t, fa, again)

	other, err := Fingerprint(map[string]interface{}{"list": []interface{}{"x"}})
	require.NoError(t, err)
	assert.NotEqual(t, fa, other)
}
