//go:build !fuse

package main

import "fmt"

func runMount(args []string) error {
	return fmt.Errorf("mount: this binary was built without FUSE support; rebuild with -tags fuse")
}
