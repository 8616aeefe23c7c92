package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit codes
const (
	CodeError    = 1
	CodeUsage    = 2
	CodeDevice   = 3
	CodeRejected = 4
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}
