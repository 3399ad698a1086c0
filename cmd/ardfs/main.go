// Command ardfs lists, removes, and extracts entries from ARH/ARD archive pairs.
package main

import (
	"fmt"
	"os"
)

const usage = `ardfs - ARH/ARD archive CLI tool

Usage:
  ardfs ls   --arh FILE [--ard FILE] [path]            List a directory's contents
  ardfs rm   --arh FILE --ard FILE [-r] <path>          Remove a file or directory
  ardfs x    --arh FILE --ard FILE --out DIR [paths...] Extract files or directories
  ardfs mount --arh FILE --ard FILE [-ro] <mountpoint>  Mount read-write, or read-only with -ro (built with -tags fuse)
  ardfs help                                            Show this help message
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "ls", "list":
		err = runList(os.Args[2:])
	case "rm", "remove":
		err = runRemove(os.Args[2:])
	case "x", "extract":
		err = runExtract(os.Args[2:])
	case "mount":
		err = runMount(os.Args[2:])
	case "help":
		fmt.Println(usage)
		return
	default:
		fmt.Printf("Error: unknown command %q\n", os.Args[1])
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
