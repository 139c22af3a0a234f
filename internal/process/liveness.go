package process

import (
	"errors"
	"fmt"

	gops "github.com/shirou/gopsutil/v3/process"
)

// Alive reports whether a process with the given pid currently exists.
// A pid of 0 or less is never alive. The probe goes through the process
// table rather than signal 0 so it also works for processes the caller
// does not own.
func Alive(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}
	p, err := gops.NewProcess(int32(pid))
	if err != nil {
		if errors.Is(err, gops.ErrorProcessNotRunning) {
			return false, nil
		}
		return false, fmt.Errorf("probe pid %d: %w", pid, err)
	}
	running, err := p.IsRunning()
	if err != nil {
		return false, fmt.Errorf("probe pid %d: %w", pid, err)
	}
	return running, nil
}
