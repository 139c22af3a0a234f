// Package gantry supervises a single stateful application server whose
// SQLite database lives on a FUSE object-storage mount.
//
// The supervisor is designed for container platforms that deliver exactly
// one SIGTERM and then wait: it gates startup on the mount becoming
// writable, reconciles a crash-interrupted database before the server
// starts, forwards the platform's shutdown signal as a graceful stop with a
// kill ceiling, and finishes with a WAL checkpoint and a full sync so the
// mount daemon can flush everything to the backing store.
//
// # Basic Usage
//
//	import "github.com/harborhq/gantry"
//
//	sup, err := gantry.New(
//	    gantry.WithDataDir("/data"),
//	    gantry.WithBinary("/usr/local/bin/server"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	code, err := sup.RunUntilSignal(context.Background())
//	if err != nil {
//	    log.Print(err)
//	}
//	os.Exit(code)
//
// RunUntilSignal installs handlers for SIGINT, SIGTERM and SIGQUIT. Tests
// and embedders that manage signals themselves use Run with their own
// channel instead.
//
// # Exit codes
//
// The returned code is meant to become the process exit code: 0 after a
// requested shutdown (even when the server had to be force-killed), the
// server's own exit code when it exits on its own, and 1 when startup
// fails before the server was spawned.
package gantry
