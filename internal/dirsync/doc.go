/*
Package dirsync keeps an installed package tree in step with its source.

It offers three operations, all driven by the same exclude.Set so that an
entry skipped while copying is also skipped while comparing or pruning:

 1. Mirror replaces a destination directory wholesale with a filtered copy
    of a source directory. Symbolic links are recreated as links.
 2. Differ reports whether two filtered trees differ, stopping at the first
    difference. It is the idempotence check run before an update copies
    anything.
 3. Prune deletes, bottom-up, every entry of an existing tree whose base name
    matches the exclusion set.

Nothing in this package locks. Callers must guarantee that a single process
touches a given destination at a time.
*/
package dirsync
