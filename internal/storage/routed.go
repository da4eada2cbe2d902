package storage

// Routed sends a fixed set of keys to a secure backend and everything else
// to the default backend.
type Routed struct {
	fallback Store
	secure   Store
	keys     map[string]struct{}
}

// NewRouted creates a store that keeps secureKeys in secure
func NewRouted(fallback, secure Store, secureKeys ...string) *Routed {
	keys := make(map[string]struct{}, len(secureKeys))
	for _, k := range secureKeys {
		keys[k] = struct{}{}
	}
	return &Routed{fallback: fallback, secure: secure, keys: keys}
}

func (r *Routed) backend(key string) Store {
	if _, ok := r.keys[key]; ok {
		return r.secure
	}
	return r.fallback
}

func (r *Routed) StoreItem(key string, value any) error {
	return r.backend(key).StoreItem(key, value)
}

func (r *Routed) GetItem(key string, out any) bool {
	return r.backend(key).GetItem(key, out)
}

func (r *Routed) RemoveItem(key string) error {
	return r.backend(key).RemoveItem(key)
}
