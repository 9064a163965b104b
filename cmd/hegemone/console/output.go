// Package console prints command results for humans. Structured logs go
// through slog; this package only writes what a command was asked to show.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

const (
	PictoThermometer = "🌡"
	PictoHumidity    = "💧"
	PictoSun         = "☀"
	PictoRainbow     = "🌈"
	PictoStop        = "🚫"
	PictoFinish      = "🏁"
)

var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
)

var (
	writer    io.Writer = os.Stdout
	errWriter io.Writer = os.Stderr
)

// SetOutput redirects regular and error output.
func SetOutput(w, errw io.Writer) {
	writer = w
	errWriter = errw
}

func Errorf(msg string, args ...any) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), fmt.Sprintf(msg, args...))
}

func Warn(msg string) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), msg)
}

func Warnf(msg string, args ...any) {
	Warn(fmt.Sprintf(msg, args...))
}

func PInfof(picto, msg string, args ...any) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", picto, fmt.Sprintf(msg, args...))
}

// Measurement prints one labelled value, e.g. "💧 moisture      812".
func Measurement(picto, label string, value any, unit string) {
	_, _ = fmt.Fprintf(writer, "%s %-14s %s%s\n", picto, label, White(value), unit)
}

// Unavailable prints a measurement that could not be taken.
func Unavailable(picto, label string, err error) {
	_, _ = fmt.Fprintf(writer, "%s %-14s %s\n", picto, label, Red(err))
}

// Check prints a PASS or FAIL line.
func Check(name string, err error) {
	if err == nil {
		_, _ = fmt.Fprintf(writer, "%s %s\n", Green("PASS"), name)
		return
	}
	_, _ = fmt.Fprintf(writer, "%s %s: %s\n", Red("FAIL"), name, err)
}

func Print(msg string) {
	_, _ = fmt.Fprintln(writer, msg)
}

func Printf(msg string, args ...any) {
	_, _ = fmt.Fprintf(writer, msg, args...)
}
