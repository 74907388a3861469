package store

import "fmt"

// Open returns the collection store and second-factor secret store for the
// named backend. The bolt backend keeps both in one database at vaultPath
// and ignores secretPath.
func Open(backend, vaultPath, secretPath string) (Store, SecretStore, error) {
	switch backend {
	case "", BackendFile:
		s, err := NewFileStore(vaultPath)
		if err != nil {
			return nil, nil, err
		}
		return s, NewFileSecret(secretPath), nil
	case BackendBolt:
		s, err := NewBoltStore(vaultPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
