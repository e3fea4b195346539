package fsops

// Deleter abstracts filesystem delete operations
// Enables mocking in tests to prove dry-run never deletes
type Deleter interface {
	Remove(path string) error
	RemoveAll(path string) error
	// Exists reports whether path still exists, without following symlinks.
	// Removal success is judged by this check, not by the remove call's error.
	Exists(path string) (bool, error)
}
