//go:build !linux

package placement

// renameNoReplace renames oldpath to newpath, failing with
// ErrDestinationExists instead of replacing an existing entry.
func renameNoReplace(oldpath, newpath string) error {
	return linkRename(oldpath, newpath)
}
