package procexec

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/arjunv/headlamp/internal/logx"
)

// InterruptedExitCode is returned when the driver is interrupted by a
// one-shot SIGINT/SIGTERM, per spec.md §4.7.
const InterruptedExitCode = 130

var installOnce sync.Once

// InstallSignalHandlers installs one-shot interrupt and terminate handlers
// that print a notice and exit with InterruptedExitCode, mirroring the
// teacher's profiling start/stop defer pattern in cmd/root.go, generalized
// to signal handling. cancel is called once before the exit; if cancel
// itself exits the process, the handler's own exit is never reached.
func InstallSignalHandlers(cancel func()) {
	installOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-ch
			logx.Warn("interrupted, stopping running test processes", nil)
			cancel()
			os.Exit(InterruptedExitCode)
		}()
	})
}
