package main

// exitCodeError carries a process exit code through cobra's error return.
// quiet suppresses the final stderr line for failures whose message was
// already printed on stdout.
type exitCodeError struct {
	code  int
	err   error
	quiet bool
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error { return e.err }

// silentExit fails with code after the command already reported the
// problem on stdout.
func silentExit(code int) error {
	return &exitCodeError{code: code, quiet: true}
}
