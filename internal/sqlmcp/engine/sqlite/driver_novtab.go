//go:build !(sqlite_vtable || vtable)

package sqlite

// Register is unavailable without the sqlite_vtable build tag.
func Register(cfg Config) (string, error) {
	return "", ErrVTabUnsupported
}
