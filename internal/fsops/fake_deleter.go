package fsops

// FakeDeleter implements Deleter for testing
// Records all delete calls without performing actual deletions
type FakeDeleter struct {
	Calls []string
	// Surviving marks paths that remain on disk after a delete call,
	// simulating partial removal failures.
	Surviving map[string]bool
}

func (f *FakeDeleter) Remove(path string) error {
	f.Calls = append(f.Calls, "rm:"+path)
	return nil
}

func (f *FakeDeleter) RemoveAll(path string) error {
	f.Calls = append(f.Calls, "rmall:"+path)
	return nil
}

func (f *FakeDeleter) Exists(path string) (bool, error) {
	return f.Surviving[path], nil
}
