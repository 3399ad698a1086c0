//go:build fuse

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/KarpelesLab/ardfs"
)

func fuseMountOptions(readOnly, debug bool) fuse.MountOptions {
	return fuse.MountOptions{
		FsName:     "ardfs",
		Name:       "ardfs",
		Debug:      debug,
		AllowOther: false,
	}
}

func runMount(args []string) error {
	fset := flag.NewFlagSet("mount", flag.ExitOnError)
	var common commonFlags
	common.register(fset)
	readOnly := fset.Bool("ro", false, "mount read-only")
	debug := fset.Bool("debug", false, "log every FUSE request")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() < 1 {
		return fmt.Errorf("usage: ardfs mount --arh FILE --ard FILE [-ro] <mountpoint>")
	}
	mountpoint := fset.Arg(0)

	var fsys *ardfs.FileSystem
	var arhFile, ardFile *os.File
	var err error
	if *readOnly {
		fsys, arhFile, err = common.loadReadOnly()
	} else {
		fsys, arhFile, ardFile, err = common.loadWritable()
	}
	if err != nil {
		return err
	}
	defer arhFile.Close()
	if ardFile != nil {
		defer ardFile.Close()
	}

	host := ardfs.NewHost(fsys)
	if !*readOnly {
		host.OnSync(func() error { return common.sync(fsys) })
	}

	server, err := fs.Mount(mountpoint, host.Root(), &fs.Options{
		MountOptions: fuseMountOptions(*readOnly, *debug),
	})
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		server.Unmount()
	}()

	server.Wait()
	if !*readOnly {
		return common.sync(fsys)
	}
	return nil
}
