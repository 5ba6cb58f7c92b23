package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string            `json:"name"`
	Count int               `json:"count"`
	Tags  map[string]string `json:"tags"`
}

func TestMarshalRoundTrip(t *testing.T) {
	in := sample{Name: "a", Count: 3, Tags: map[string]string{"z": "1", "b": "2"}}
	data, err := Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"a","count":3,"tags":{"b":"2","z":"1"}}`, string(data))
	assert.True(t, Valid(data))

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalInvalid(t *testing.T) {
	var out sample
	assert.Error(t, Unmarshal([]byte(`{"name":`), &out))
	assert.False(t, Valid([]byte(`{`)))
}
