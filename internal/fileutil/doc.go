// Package fileutil provides directory traversal for the one-shot sweep and for
// registering newly created directory trees with a live watcher.
//
// # Main Components
//
// ScanOptions - Configuration struct for directory scanning:
//   - Recursive: descend into subdirectories
//   - Skip: predicate on a file's base name; matching files are left out
//
// ScanResult - Results of a directory scan:
//   - Files: absolute paths of regular files (sorted alphabetically)
//   - Dirs: absolute paths of directories visited, root first
//   - Errors: non-fatal errors encountered during the scan
//
// # Usage
//
//	result, err := fileutil.ScanDirectory(ctx, "/home/me/Downloads", fileutil.ScanOptions{
//	    Recursive: true,
//	    Skip:      filter.Ignored,
//	})
//	if err != nil {
//	    return err
//	}
//	for _, file := range result.Files {
//	    fmt.Println(file)
//	}
//
// # Behavior
//
// Only regular files are reported. Symbolic links are neither followed nor
// reported, so a link cycle can never make a scan loop and a link is never
// mistaken for the file it points to.
//
// The scanner collects non-fatal errors (e.g., permission denied on a
// subdirectory) and continues. Only a missing or non-directory root and
// context cancellation stop a scan early.
//
// Output is sorted so that repeated sweeps over the same tree visit files in
// the same order.
package fileutil
