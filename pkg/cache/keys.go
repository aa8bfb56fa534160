package cache

// Keyer builds cache keys for the things the kernel client caches. Keys are
// hashes of their inputs, so arbitrary workspace paths are safe to key on.
type Keyer interface {
	// HTTPKey keys a raw collaborator HTTP response.
	HTTPKey(namespace, key string) string

	// ListingKey keys a directory listing of a workspace path.
	ListingKey(workspacePath string) string

	// DocumentKey keys a serialized artifact (notebook or layout) of a
	// document.
	DocumentKey(documentID, kind string) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return hashKey("http:"+namespace, key)
}

func (DefaultKeyer) ListingKey(workspacePath string) string {
	return hashKey("listing", workspacePath)
}

func (DefaultKeyer) DocumentKey(documentID, kind string) string {
	return hashKey("doc", documentID, kind)
}

// ScopedKeyer prefixes another keyer's keys, isolating cache namespaces when
// several workspaces share one cache directory.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer whose keys all carry the given prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) ListingKey(workspacePath string) string {
	return k.prefix + k.inner.ListingKey(workspacePath)
}

func (k *ScopedKeyer) DocumentKey(documentID, kind string) string {
	return k.prefix + k.inner.DocumentKey(documentID, kind)
}
