package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomString(t *testing.T) {
	a, err := randomString(deleteTokenLength)
	require.NoError(t, err)
	require.Len(t, a, deleteTokenLength)
	for _, c := range a {
		require.True(t, strings.ContainsRune(idAlphabet, c), "unexpected symbol %q", c)
	}

	b, err := randomString(deleteTokenLength)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestNewSheetId(t *testing.T) {
	s := newTestServer(t, nil)

	id, err := s.newSheetId()
	require.NoError(t, err)
	require.Len(t, id, SheetIdLength)

	taken, err := s.sheetExists(id)
	require.NoError(t, err)
	require.False(t, taken)

	uploaded := uploadSheet(t, s).Id
	taken, err = s.sheetExists(uploaded)
	require.NoError(t, err)
	require.True(t, taken)
}
