package process

// SignalTerminator delivers termination signals with Terminate.
type SignalTerminator struct{}

// Terminate implements the server package's Terminator.
func (SignalTerminator) Terminate(pid int) error {
	return Terminate(pid)
}
