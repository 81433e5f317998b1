package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ErrExit ends a command with a non-zero status without printing anything.
var ErrExit = errors.New("exit")

var fatalErrHandler = fatal

// BehaviorOnFatal replaces the default fatal handler, for tests.
func BehaviorOnFatal(f func(string, int)) {
	fatalErrHandler = f
}

// DefaultBehaviorOnFatal restores the default fatal handler.
func DefaultBehaviorOnFatal() {
	fatalErrHandler = fatal
}

func fatal(msg string, code int) {
	if len(msg) > 0 {
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		fmt.Fprint(os.Stderr, msg)
	}
	os.Exit(code)
}

// CheckErr prints a user friendly error and exits with a non-zero status.
func CheckErr(err error) {
	checkErr(err, fatalErrHandler)
}

func checkErr(err error, handle func(string, int)) {
	switch {
	case err == nil:
		return
	case errors.Is(err, ErrExit):
		handle("", 1)
	default:
		handle(ErrorText(err), 1)
	}
}

// ErrorText renders err the way commands report it.
func ErrorText(err error) string {
	return color.RedString("error: ") + err.Error()
}

// PrintError writes err to w without exiting.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, ErrorText(err))
}
