package badgerdb

// Key schema
// ==========
//
// Two namespaced prefixes keep content and metadata apart:
//
//	c:<digest-hex>  raw block content
//	m:<digest-hex>  JSON blockRecord (canonical id, size, stored-at)
//
// Keying by digest hex alone is safe because the supported hash algorithms
// have distinct hex widths, and it makes an iteration over the metadata
// prefix stream blocks in ascending digest order for free.

const (
	contentPrefix = "c:"
	metaPrefix    = "m:"
)

func keyContent(hex string) []byte {
	return []byte(contentPrefix + hex)
}

func keyMeta(hex string) []byte {
	return []byte(metaPrefix + hex)
}
