package repository

import "io/fs"

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithPerm sets the permission bits of the written document.
func WithPerm(perm fs.FileMode) FileOption {
	return func(s *FileStore) {
		if perm != 0 {
			s.perm = perm
		}
	}
}

// GCSOption configures a GCSStore.
type GCSOption func(*GCSStore)

// WithObjectStore replaces the Cloud Storage client, e.g. with an in-memory
// implementation in tests.
func WithObjectStore(objects ObjectStore) GCSOption {
	return func(s *GCSStore) {
		if objects != nil {
			s.objects = objects
		}
	}
}
