// Path mapping between block ids and remote paths: a block lives at
// root + hex(digest), and the mapping back is recovered from the name alone.
package remotens

import (
	"strings"

	"github.com/blocklake/blocklake/internal/logger"
	"github.com/blocklake/blocklake/pkg/block"
)

// normalizeRoot forces the root to start and end with a path separator, so
// concatenation with a hex name always yields a well-formed remote path.
func normalizeRoot(root string) string {
	if root == "" {
		return "/"
	}
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root
}

// pathFor maps an id to its remote path under root. Pure concatenation;
// total for every id.
func pathFor(root string, id block.ID) string {
	return root + id.Hex()
}

// idForPath recovers the id stored at path. Paths outside root and names
// that are not a supported digest hex yield (zero, false) with a warning,
// never an error: the store's directory legitimately contains non-block
// entries (landing files, foreign objects) that simply are not blocks.
func idForPath(root, path string) (block.ID, bool) {
	name, ok := strings.CutPrefix(path, root)
	if !ok {
		logger.Warn("path %s is not under root %s, ignoring", path, root)
		return block.ID{}, false
	}
	id, ok := block.IDFromName(name)
	if !ok {
		logger.Warn("entry %s is not a valid block name, ignoring", name)
		return block.ID{}, false
	}
	return id, true
}
