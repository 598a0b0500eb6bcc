// Command cppcheck-junit converts cppcheck XML reports to JUnit XML.
//
//	cppcheck --xml --xml-version=2 src 2> cppcheck.xml
//	cppcheck-junit cppcheck.xml junit.xml 1
package main

import (
	"os"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/logging"
)

func main() {
	os.Exit(Execute(os.Args[1:], CLIConfig{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		NewLogger: logging.New,
	}))
}
