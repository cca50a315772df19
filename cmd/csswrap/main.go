// Command csswrap validates the CSS of web pages with the W3C CSS validator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ka2n/csswrap/cli"
	"github.com/morikuni/failure/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Run(ctx)
	stop()
	if err != nil {
		if failure.Is(err, cli.ValidationFailed) {
			os.Exit(2)
		}
		var userMessage string
		if fmsg := failure.MessageOf(err); fmsg != "" {
			userMessage = fmsg.String()
		} else {
			userMessage = err.Error()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", userMessage)
		os.Exit(1)
	}
}
