package main

import (
	"fmt"
	"os"

	"golang.design/x/hotkey/mainthread"

	"mic-check/internal/adapter/primary/cli"
	"mic-check/internal/adapter/secondary/dispatch"
	"mic-check/internal/logging"
)

func main() {
	// CoreAudio and the hotkey event tap want the process main thread.
	// mainthread.Init never returns on macOS, so exit from inside it.
	mainthread.Init(func() {
		cli.SetDispatcher(dispatch.MainThread{})
		err := cli.NewRootCmd().Execute()
		logging.Sync()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		os.Exit(0)
	})
}
