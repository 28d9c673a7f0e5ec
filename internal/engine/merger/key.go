// # internal/engine/merger/key.go
package merger

import (
	"strconv"

	"scriptls/internal/engine/document"

	"github.com/cespare/xxhash/v2"
)

// revision identifies one text of a document. Editor and disk versions are
// numbered independently, so the digest of the text is part of it.
type revision struct {
	version int32
	digest  uint64
}

func revisionOf(doc *document.ActiveDocument) revision {
	return revision{version: doc.Version, digest: xxhash.Sum64String(doc.Content)}
}

func (r revision) String() string {
	return strconv.FormatInt(int64(r.version), 10) + "-" + strconv.FormatUint(r.digest, 16)
}

// fold hashes s and folds the 64-bit digest into 32 bits.
func fold(s string) uint32 {
	h := xxhash.Sum64String(s)
	return uint32(h) ^ uint32(h>>32)
}

func fingerprint(uri string, rev revision) uint32 {
	return fold(uri + "-" + rev.String())
}

func rootFingerprint(strategy Strategy, uri string, rev revision) uint32 {
	return fold(string(strategy) + "-" + uri + "-" + rev.String())
}

// treeKey combines the root fingerprint with the fingerprint of every other
// distinct document of the import tree.
func treeKey(strategy Strategy, root *document.ImportNode) uint32 {
	key := rootFingerprint(strategy, root.URI(), revisionOf(root.Document))
	seen := map[string]bool{root.URI(): true}
	root.Walk(func(node *document.ImportNode, _ int) {
		if seen[node.URI()] {
			return
		}
		seen[node.URI()] = true
		key ^= fingerprint(node.URI(), revisionOf(node.Document))
	})
	return key
}

// workspaceKeys derives the key of every document from the same set of
// revisions: each key covers the document itself and every other document.
func workspaceKeys(strategy Strategy, revisions map[string]revision) map[string]uint32 {
	var all uint32
	for uri, rev := range revisions {
		all ^= fingerprint(uri, rev)
	}

	keys := make(map[string]uint32, len(revisions))
	for uri, rev := range revisions {
		keys[uri] = rootFingerprint(strategy, uri, rev) ^ all ^ fingerprint(uri, rev)
	}
	return keys
}
