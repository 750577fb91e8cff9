// SPDX-License-Identifier: MPL-2.0

// Command livecmd runs live-reloading shell commands defined in CUE.
package main

import (
	"context"
	"os"

	cmd "github.com/invowk/livecmd/cmd/livecmd"
)

func main() {
	os.Exit(cmd.Execute(context.Background()))
}
