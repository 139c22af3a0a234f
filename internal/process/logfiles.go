package process

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogFiles holds the stdout/stderr destinations for a child whose output is
// captured to the data directory instead of inherited. Capture exists for
// deployments whose platform has no log collector on the container streams;
// the files land on the mount, so they survive the container.
type LogFiles struct {
	stdoutFile *os.File
	stderrFile *os.File
	stdoutPath string
	stderrPath string
}

// NewLogFiles opens <dataDir>/<name>-stdout.log and <dataDir>/<name>-stderr.log
// for writing, truncating leftovers from a previous container. Either both
// files are open on return or neither is.
func NewLogFiles(dataDir, name string) (LogFiles, error) {
	l := LogFiles{
		stdoutPath: filepath.Join(dataDir, name+"-stdout.log"),
		stderrPath: filepath.Join(dataDir, name+"-stderr.log"),
	}

	stdoutFile, err := os.Create(l.stdoutPath)
	if err != nil {
		return LogFiles{}, fmt.Errorf("create stdout log: %w", err)
	}
	stderrFile, err := os.Create(l.stderrPath)
	if err != nil {
		_ = stdoutFile.Close()
		return LogFiles{}, fmt.Errorf("create stderr log: %w", err)
	}
	l.stdoutFile = stdoutFile
	l.stderrFile = stderrFile
	return l, nil
}

// StdoutPath returns the path of the stdout log file.
func (l *LogFiles) StdoutPath() string {
	return l.stdoutPath
}

// StderrPath returns the path of the stderr log file.
func (l *LogFiles) StderrPath() string {
	return l.stderrPath
}

// Close closes both log file handles and nils them to prevent double-close.
// The files themselves stay on the mount.
func (l *LogFiles) Close() {
	if l.stdoutFile != nil {
		_ = l.stdoutFile.Close()
		l.stdoutFile = nil
	}
	if l.stderrFile != nil {
		_ = l.stderrFile.Close()
		l.stderrFile = nil
	}
}
