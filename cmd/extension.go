package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/etnz/books/config"
)

// RunExtension runs the external bks-<subcommand> binary, if any, with the
// global flags passed as environment variables. It reports whether an
// extension was found, and its exit code.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "bks-" + subcommand
	path, err := exec.LookPath(name)
	if err != nil {
		config.GetLogger().WithField("extension", name).Debug("extension not found")
		return false, 0
	}

	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		config.EnvStore+"="+*storeKind,
		config.EnvDir+"="+*booksDir,
		config.EnvDSN+"="+*dsn,
		config.EnvLogLevel+"="+*logLevel,
	)

	if err := cmd.Run(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return true, exit.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
