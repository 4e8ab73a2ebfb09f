package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

func success(w io.Writer, format string, args ...any) {
	okColor.Fprintf(w, format, args...)
}

func warning(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, format, args...)
}

func failure(w io.Writer, format string, args ...any) {
	errColor.Fprintf(w, format, args...)
}

func note(w io.Writer, format string, args ...any) {
	dimColor.Fprint(w, fmt.Sprintf(format, args...))
}
