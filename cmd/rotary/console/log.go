package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
)

const PictoCompass = "🧭"
const PictoMagnet = "🧲"
const PictoFire = "🔥"
const PictoStop = "🚫"
const PictoPin = "📌"
const PictoArrows = "🔃"

var writer io.Writer = os.Stdout
var errWriter io.Writer = os.Stderr

// SetOutput redirects console output, mostly for tests.
func SetOutput(w, errw io.Writer) {
	writer = w
	errWriter = errw
}

func Writer() io.Writer {
	return writer
}

func Errorf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), fmt.Sprintf(msg, args...))
}

func Warnf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), fmt.Sprintf(msg, args...))
}

func Infof(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", White("..."), fmt.Sprintf(msg, args...))
}

func PInfof(picto, msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", picto, fmt.Sprintf(msg, args...))
}

func Printf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, msg, args...)
}
