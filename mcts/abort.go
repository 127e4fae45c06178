package mcts

import "sync/atomic"

// AbortFlag signals a running search to stop after the current
// simulation. It is a capability injected at search construction; the
// package-level flag serves callers that want a process-wide one.
type AbortFlag struct {
	flag atomic.Bool
}

func (a *AbortFlag) Set()          { a.flag.Store(true) }
func (a *AbortFlag) Clear()        { a.flag.Store(false) }
func (a *AbortFlag) Aborted() bool { return a.flag.Load() }

var globalAbort AbortFlag

// GlobalAbort returns the process-wide abort flag.
func GlobalAbort() *AbortFlag { return &globalAbort }

func SetAbort()        { globalAbort.Set() }
func ClearAbort()      { globalAbort.Clear() }
func CheckAbort() bool { return globalAbort.Aborted() }
