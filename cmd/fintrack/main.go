// Command fintrack imports bank exports and reports on the ledger from the
// terminal.
package main

import (
	"io"
	"os"
)

func main() {
	if err := run(&state{}, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes one command line and always releases the ledger.
func run(st *state, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(st)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if st.app != nil {
		if cerr := st.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
		st.app = nil
	}
	return err
}
