// # internal/engine/location/location.go
package location

import "strings"

// Kind classifies how one document refers to another.
type Kind string

const (
	KindRoot         Kind = "root"
	KindInclude      Kind = "include"
	KindImport       Kind = "import"
	KindNativeImport Kind = "native-import"
)

const (
	separator    = "!"
	argSeparator = ":"
)

// Raw is the encoded form of a Location. It is comparable and is used as the
// map/set key for locations.
//
// Pattern: import:myVariable!file:///workspace/lib/util.src
type Raw string

// Location is a typed reference to another document. For KindImport the
// first argument, when present, is the binding namespace.
type Location struct {
	Kind Kind
	URI  string
	Args []string
}

// Namespace returns the binding name of an import, or "" when unbound.
func (l Location) Namespace() string {
	if len(l.Args) == 0 {
		return ""
	}
	return l.Args[0]
}

// Raw encodes the location.
func (l Location) Raw() Raw {
	return Encode(l)
}

func (l Location) String() string {
	return string(Encode(l))
}

// Encode serializes a location as "<kind>[:<args...>]!<uri>".
func Encode(l Location) Raw {
	var b strings.Builder
	b.Grow(len(l.Kind) + len(l.URI) + 1)
	b.WriteString(string(l.Kind))
	if len(l.Args) > 0 {
		b.WriteString(argSeparator)
		b.WriteString(strings.Join(l.Args, argSeparator))
	}
	b.WriteString(separator)
	b.WriteString(l.URI)
	return Raw(b.String())
}

// Decode parses an encoded location. The first "!" separates the header from
// the URI, so URIs may contain further "!" characters. The URI shape is not
// validated.
func Decode(raw Raw) Location {
	s := string(raw)
	idx := strings.Index(s, separator)
	if idx < 0 {
		return Location{URI: s}
	}

	header := strings.Split(s[:idx], argSeparator)
	loc := Location{
		Kind: Kind(header[0]),
		URI:  s[idx+1:],
	}
	if len(header) > 1 {
		loc.Args = header[1:]
	}
	return loc
}

// Unique drops repeated locations while keeping the first occurrence order.
func Unique(locs []Location) []Location {
	seen := make(map[Raw]struct{}, len(locs))
	out := make([]Location, 0, len(locs))
	for _, loc := range locs {
		key := loc.Raw()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, loc)
	}
	return out
}
