package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListValueIsJSON(t *testing.T) {
	v, err := StringList{"u1", "u2"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["u1","u2"]`, v)

	v, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStringListScanJSON(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte(`["u1","u2"]`)))
	assert.Equal(t, StringList{"u1", "u2"}, l)
}

func TestStringListScanPostgresLiteral(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(`{u1,"with,comma",u3}`))
	assert.Equal(t, StringList{"u1", "with,comma", "u3"}, l)

	require.NoError(t, l.Scan("{}"))
	assert.Empty(t, l)
}

func TestStringListScanBareString(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan("u1"))
	assert.Equal(t, StringList{"u1"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)
}
