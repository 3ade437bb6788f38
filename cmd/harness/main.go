// Command harness is the minimal CLI wrapper over the two external entry
// points: starting the mock server standalone, and running contract
// suites against an adapter URL. Report rendering beyond a bare summary
// line is explicitly out of scope for this layer.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := newRootCmd(logger).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
