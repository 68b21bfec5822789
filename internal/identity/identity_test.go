package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/model"
)

// makeEDID builds a minimal base block for vendor "DEL".
func makeEDID(product uint16, serial uint32, serialText string) []byte {
	e := make([]byte, 128)
	copy(e, edidHeader)
	// D=4, E=5, L=12
	v := uint16(4)<<10 | uint16(5)<<5 | uint16(12)
	e[8], e[9] = byte(v>>8), byte(v)
	e[10], e[11] = byte(product), byte(product>>8)
	e[12], e[13], e[14], e[15] = byte(serial), byte(serial>>8), byte(serial>>16), byte(serial>>24)
	if serialText != "" {
		desc := e[54:72]
		desc[3] = 0xff
		copy(desc[5:], serialText+"\n")
	}
	return e
}

func TestEDIDKey(t *testing.T) {
	key, ok := EDIDKey(makeEDID(0xa0c5, 0x12345678, "ABC123"))
	require.True(t, ok)
	assert.Equal(t, "DEL:a0c5:12345678:ABC123", key)

	_, ok = EDIDKey([]byte{1, 2, 3})
	assert.False(t, ok)

	bad := makeEDID(1, 1, "")
	bad[0] = 0x42
	_, ok = EDIDKey(bad)
	assert.False(t, ok)
}

func TestEDIDName(t *testing.T) {
	e := makeEDID(1, 2, "SER")
	assert.Empty(t, EDIDName(e))

	desc := e[72:90]
	desc[3] = 0xfc
	copy(desc[5:], "DELL U2720Q\n   ")
	assert.Equal(t, "DELL U2720Q", EDIDName(e))
	assert.Equal(t, "DEL", EDIDVendor(e))

	assert.Empty(t, EDIDName(nil))
}

func TestHardwareDeriver(t *testing.T) {
	var d HardwareDeriver

	a, err := d.Derive(model.Display{Handle: "DP-1", EDID: makeEDID(1, 2, "X")})
	require.NoError(t, err)
	b, err := d.Derive(model.Display{Handle: "HDMI-A-1", Name: "renamed", EDID: makeEDID(1, 2, "X")})
	require.NoError(t, err)
	assert.Equal(t, a, b, "identity does not depend on handle or name")

	c, err := d.Derive(model.Display{Handle: "DP-1", EDID: makeEDID(1, 3, "X")})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	hw, err := d.Derive(model.Display{Handle: "eDP-1", Manufacturer: "BOE", Model: "0x0a1c"})
	require.NoError(t, err)
	assert.Len(t, string(hw), 36)

	_, err = d.Derive(model.Display{Handle: "Virtual-1"})
	assert.ErrorIs(t, err, ErrNoStableIdentity)
}

func testTopology() model.Topology {
	return model.Topology{Displays: []model.Display{
		{Handle: "eDP-1", Name: "Built-in", Primary: true, Manufacturer: "BOE", Model: "A",
			Bounds: model.Rect{Width: 1920, Height: 1080}},
		{Handle: "DP-2", Name: "Dell", Manufacturer: "DEL", Model: "U27",
			Bounds: model.Rect{X: 1920, Width: 2560, Height: 1440}},
		{Handle: "Virtual-1", Name: "virtual"},
	}}
}

func TestResolver_RebuildAndLookups(t *testing.T) {
	r := NewResolver(nil, nil)
	r.Rebuild(testTopology())

	primary, ok := r.Resolve("eDP-1")
	require.True(t, ok)
	secondary, ok := r.Resolve("DP-2")
	require.True(t, ok)
	_, ok = r.Resolve("Virtual-1")
	assert.False(t, ok, "display without hardware identity is absent")

	d, ok := r.Display(secondary)
	require.True(t, ok)
	assert.Equal(t, "DP-2", d.Handle)

	p, ok := r.Primary()
	require.True(t, ok)
	assert.Equal(t, primary, p)

	assert.Equal(t, []model.DisplayIdentity{primary, secondary}, r.Identities())

	byName, ok := r.FindByName("dell")
	require.True(t, ok)
	assert.Equal(t, secondary, byName)
}

func TestResolver_LookupsNeverDerive(t *testing.T) {
	calls := 0
	r := NewResolver(DeriverFunc(func(d model.Display) (model.DisplayIdentity, error) {
		calls++
		return model.DisplayIdentity("id-" + d.Handle), nil
	}), nil)

	r.Rebuild(testTopology())
	assert.Equal(t, 3, calls)

	for i := 0; i < 10; i++ {
		r.Resolve("DP-2")
		r.Display("id-DP-2")
		r.Primary()
	}
	assert.Equal(t, 3, calls)
}

func TestResolver_HandleChangeKeepsIdentity(t *testing.T) {
	r := NewResolver(nil, nil)
	r.Rebuild(testTopology())
	before, _ := r.Resolve("DP-2")

	topo := testTopology()
	topo.Displays[1].Handle = "DP-3"
	r.Rebuild(topo)

	_, ok := r.Resolve("DP-2")
	assert.False(t, ok, "old handle dropped")
	after, ok := r.Resolve("DP-3")
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestResolver_DuplicateIdentitiesQualified(t *testing.T) {
	a := model.Display{Handle: "DP-1", Manufacturer: "DEL", Model: "P24"}
	b := model.Display{Handle: "DP-2", Manufacturer: "DEL", Model: "P24"}
	base, err := HardwareDeriver{}.Derive(a)
	require.NoError(t, err)

	r := NewResolver(nil, nil)
	r.Rebuild(model.Topology{Displays: []model.Display{a, b}})

	idA, _ := r.Resolve("DP-1")
	idB, _ := r.Resolve("DP-2")
	assert.NotEqual(t, idA, idB)
	assert.NotEqual(t, base, idA, "every twin is qualified, not only the second")
	assert.NotEqual(t, base, idB)
	assert.Len(t, r.Identities(), 2)

	t.Run("reorder", func(t *testing.T) {
		r.Rebuild(model.Topology{Displays: []model.Display{b, a}})
		got, _ := r.Resolve("DP-2")
		assert.Equal(t, idB, got)
		got, _ = r.Resolve("DP-1")
		assert.Equal(t, idA, got)
	})

	t.Run("unplug one twin", func(t *testing.T) {
		r.Rebuild(model.Topology{Displays: []model.Display{b}})
		got, _ := r.Resolve("DP-2")
		assert.Equal(t, idB, got)
	})

	t.Run("independent of first topology", func(t *testing.T) {
		other := NewResolver(nil, nil)
		other.Rebuild(model.Topology{Displays: []model.Display{b, a}})
		got, _ := other.Resolve("DP-2")
		assert.Equal(t, idB, got)
	})
}

type memStore struct {
	id       model.DisplayIdentity
	legacy   string
	writes   int
	readErr  error
	writeErr error
}

func (m *memStore) PreferredDisplay() (model.DisplayIdentity, string, error) {
	return m.id, m.legacy, m.readErr
}

func (m *memStore) MigratePreferredDisplay(id model.DisplayIdentity) error {
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.id = id
	m.legacy = ""
	return nil
}

func TestMigrateLegacy(t *testing.T) {
	t.Run("matched", func(t *testing.T) {
		r := NewResolver(nil, nil)
		r.Rebuild(testTopology())
		want, _ := r.Resolve("DP-2")

		s := &memStore{legacy: "Dell"}
		got, res, err := r.MigrateLegacy(s)
		require.NoError(t, err)
		assert.Equal(t, MigrationMatched, res)
		assert.Equal(t, want, got)
		assert.Equal(t, want, s.id)
		assert.Empty(t, s.legacy)
	})

	t.Run("fallback to primary", func(t *testing.T) {
		r := NewResolver(nil, nil)
		r.Rebuild(testTopology())
		primary, _ := r.Primary()

		s := &memStore{legacy: "Unplugged Monitor"}
		got, res, err := r.MigrateLegacy(s)
		require.NoError(t, err)
		assert.Equal(t, MigrationFallback, res)
		assert.Equal(t, primary, got)
		assert.Empty(t, s.legacy, "legacy value is cleared even on mismatch")
	})

	t.Run("identity present", func(t *testing.T) {
		r := NewResolver(nil, nil)
		r.Rebuild(testTopology())

		s := &memStore{id: "KEEP", legacy: "Dell"}
		got, res, err := r.MigrateLegacy(s)
		require.NoError(t, err)
		assert.Equal(t, MigrationNotNeeded, res)
		assert.Equal(t, model.DisplayIdentity("KEEP"), got)
		assert.Equal(t, 0, s.writes)
	})

	t.Run("no preference", func(t *testing.T) {
		r := NewResolver(nil, nil)
		r.Rebuild(testTopology())

		s := &memStore{}
		got, res, err := r.MigrateLegacy(s)
		require.NoError(t, err)
		assert.Equal(t, MigrationNoPreference, res)
		assert.Empty(t, got)
		assert.Equal(t, 0, s.writes)
	})

	t.Run("runs once", func(t *testing.T) {
		r := NewResolver(nil, nil)
		r.Rebuild(testTopology())

		s := &memStore{legacy: "Dell"}
		_, _, err := r.MigrateLegacy(s)
		require.NoError(t, err)

		s.legacy = "Built-in"
		s.id = ""
		_, res, err := r.MigrateLegacy(s)
		require.NoError(t, err)
		assert.Equal(t, MigrationAlreadyRan, res)
		assert.Equal(t, 1, s.writes)
	})

	t.Run("errors", func(t *testing.T) {
		r := NewResolver(nil, nil)
		r.Rebuild(testTopology())
		_, _, err := r.MigrateLegacy(&memStore{readErr: errors.New("boom")})
		assert.Error(t, err)

		r = NewResolver(nil, nil)
		r.Rebuild(testTopology())
		_, _, err = r.MigrateLegacy(&memStore{legacy: "Dell", writeErr: errors.New("disk full")})
		assert.Error(t, err)
	})
}
