package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []Location{
		{Kind: KindRoot, URI: "file:///ws/main.src"},
		{Kind: KindInclude, URI: "file:///ws/lib/a.src"},
		{Kind: KindNativeImport, URI: "file:///ws/native.src"},
		{Kind: KindImport, URI: "file:///ws/lib/b.src", Args: []string{"utils"}},
		{Kind: KindImport, URI: "file:///ws/lib/c.src", Args: []string{"ns", "extra"}},
		{Kind: KindImport, URI: "file:///ws/weird!name.src", Args: []string{"x"}},
		{Kind: KindImport, URI: "", Args: []string{""}},
	}

	for _, tc := range cases {
		t.Run(string(tc.Raw()), func(t *testing.T) {
			assert.Equal(t, tc, Decode(Encode(tc)))
		})
	}
}

func TestEncode_Format(t *testing.T) {
	assert.Equal(t, Raw("include!file:///a.src"), Encode(Location{Kind: KindInclude, URI: "file:///a.src"}))
	assert.Equal(t, Raw("import:lib!file:///b.src"), Encode(Location{Kind: KindImport, URI: "file:///b.src", Args: []string{"lib"}}))
}

func TestDecode_FirstSeparatorIsAuthoritative(t *testing.T) {
	loc := Decode("import:ns!file:///dir!with/bang.src")
	assert.Equal(t, KindImport, loc.Kind)
	assert.Equal(t, "file:///dir!with/bang.src", loc.URI)
	assert.Equal(t, "ns", loc.Namespace())
}

func TestDecode_MissingSeparator(t *testing.T) {
	loc := Decode("file:///plain.src")
	assert.Equal(t, Kind(""), loc.Kind)
	assert.Equal(t, "file:///plain.src", loc.URI)
	assert.Empty(t, loc.Args)
}

func TestUnique(t *testing.T) {
	a := Location{Kind: KindInclude, URI: "file:///a.src"}
	b := Location{Kind: KindImport, URI: "file:///a.src", Args: []string{"a"}}
	out := Unique([]Location{a, b, a, {Kind: KindInclude, URI: "file:///a.src"}})
	require.Len(t, out, 2)
	assert.Equal(t, a, out[0])
	assert.Equal(t, b, out[1])
}
