package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ExtensionPrefix is the prefix of external subcommand binaries.
const ExtensionPrefix = "depot-"

// RunExtension attempts to find and execute an external depot-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	return runExtension(os.Stdin, os.Stdout, os.Stderr, subcommand, args)
}

// extensionEnv passes the global flags to extensions.
func extensionEnv() []string {
	return []string{
		EnvConfig + "=" + *configFile,
		EnvSource + "=" + *sourceName,
		EnvMarketFile + "=" + *marketFile,
		EnvConversion + "=" + *conversion,
		EnvVerbose + "=" + strconv.FormatBool(*Verbose),
	}
}

func runExtension(stdin io.Reader, stdout, stderr io.Writer, subcommand string, args []string) (bool, int) {
	name := ExtensionPrefix + subcommand
	lp, err := exec.LookPath(name)
	if err != nil {
		log.Debug().Err(err).Str("extension", name).Msg("extension not found in PATH")
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), extensionEnv()...)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
