package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/model"
)

const (
	idDell    = "7D0F4F9E-3C1A-5B8E-9A4E-6E6F74636864"
	idDell2   = "11111111-2222-5333-8444-555555555555"
	idBuiltin = "AAAAAAAA-BBBB-5CCC-8DDD-EEEEEEEEEEEE"
)

func testDisplays() []display.DisplayStatus {
	return []display.DisplayStatus{
		{Identity: idDell, Name: "DELL U2720Q", Handle: "DP-1"},
		{Name: "Unknown", Handle: "HDMI-1"},
		{Identity: idDell2, Name: "DELL U2720Q", Handle: "DP-2"},
		{Identity: idBuiltin, Name: "Built-in", Handle: "eDP-1"},
	}
}

func TestResolved(t *testing.T) {
	resolved := Resolved(testDisplays())
	require.Len(t, resolved, 3)
	assert.Equal(t, "DP-2", resolved[1].Handle)
	assert.Nil(t, Resolved(nil))
}

func TestLookupByIdentity(t *testing.T) {
	displays := testDisplays()

	t.Run("found", func(t *testing.T) {
		result := LookupByIdentity(displays, idBuiltin)
		require.NotNil(t, result)
		assert.Equal(t, "eDP-1", result.Handle)
	})

	t.Run("case insensitive", func(t *testing.T) {
		result := LookupByIdentity(displays, "7d0f4f9e-3c1a-5b8e-9a4e-6e6f74636864")
		require.NotNil(t, result)
		assert.Equal(t, "DP-1", result.Handle)
	})

	t.Run("not found", func(t *testing.T) {
		assert.Nil(t, LookupByIdentity(displays, "nope"))
	})

	t.Run("empty identity never matches", func(t *testing.T) {
		assert.Nil(t, LookupByIdentity(displays, ""))
	})
}

func TestLookupByIndex(t *testing.T) {
	displays := testDisplays()

	t.Run("skips unresolved displays", func(t *testing.T) {
		result := LookupByIndex(displays, 2)
		require.NotNil(t, result)
		assert.Equal(t, "DP-2", result.Handle)
	})

	t.Run("index 0", func(t *testing.T) {
		assert.Nil(t, LookupByIndex(displays, 0))
	})

	t.Run("out of bounds", func(t *testing.T) {
		assert.Nil(t, LookupByIndex(displays, 4))
	})
}

func TestSearch(t *testing.T) {
	displays := testDisplays()

	assert.Len(t, Search(displays, "dell u2720q"), 2)
	assert.Len(t, Search(displays, "edp-1"), 1)
	assert.Empty(t, Search(displays, "HDMI-1"))
}

func TestLookupDisplay(t *testing.T) {
	displays := testDisplays()

	tests := []struct {
		name    string
		query   string
		want    model.DisplayIdentity
		wantErr string
	}{
		{"identity", idDell2, idDell2, ""},
		{"dmenu line", "3 | eDP-1 | Built-in | " + idBuiltin, idBuiltin, ""},
		{"index", "1", idDell, ""},
		{"bad index", "9", "", "no display at index 9"},
		{"connector", "DP-2", idDell2, ""},
		{"name", " Built-in ", idBuiltin, ""},
		{"ambiguous name", "DELL U2720Q", "", "matches 2 displays"},
		{"unknown", "VGA-1", "", "no display matches"},
		{"unknown identity", "00000000-0000-0000-0000-000000000000", "", "no display matches"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := LookupDisplay(displays, tt.query)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Identity)
		})
	}
}

func TestExtractIdentity(t *testing.T) {
	assert.Equal(t, model.DisplayIdentity(idDell), ExtractIdentity(idDell))
	assert.Equal(t, model.DisplayIdentity(idDell), ExtractIdentity("1 | DP-1 | DELL | 7d0f4f9e-3c1a-5b8e-9a4e-6e6f74636864"))
	assert.Empty(t, ExtractIdentity("DP-1"))
	assert.Empty(t, ExtractIdentity(""))
}
