// Package mountwait gates startup on a network filesystem mount becoming
// writable.
//
// FUSE-style object-storage mounts attach asynchronously with respect to the
// container entrypoint: the directory exists immediately but writes fail
// until the mount daemon finishes. Wait polls a write probe against the data
// directory until it succeeds or a fixed budget is exhausted. Nothing else in
// the supervisor may touch the mount before Wait returns.
package mountwait
