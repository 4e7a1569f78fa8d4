// Package dispatch provides domain.Dispatcher implementations.
package dispatch

import "golang.design/x/hotkey/mainthread"

// MainThread runs functions on the process main thread. The program must be
// started through mainthread.Init for Call to make progress; on macOS that
// also runs the Cocoa event loop the hotkey registration needs.
type MainThread struct{}

// Call implements domain.Dispatcher. mainthread.Call returns early on macOS
// when called off the main thread, so completion is awaited here.
func (MainThread) Call(fn func()) {
	done := make(chan struct{})
	mainthread.Call(func() {
		defer close(done)
		fn()
	})
	<-done
}
