package projecttype

// StubCommandExists overrides the PATH lookup used by Detect for the
// duration of a test and returns a func that restores the original.
func StubCommandExists(fn func(name string) bool) func() {
	prev := commandExists
	commandExists = fn
	return func() { commandExists = prev }
}
