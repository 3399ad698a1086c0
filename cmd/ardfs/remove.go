package main

import (
	"flag"
	"fmt"
)

func runRemove(args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	recursive := fs.Bool("r", false, "remove all contents of a directory, including subdirectories")
	fs.BoolVar(recursive, "recursive", false, "alias for -r")
	soft := fs.Bool("soft", false, "hide the entry instead of deleting it")
	restore := fs.Bool("restore", false, "unhide a previously soft-removed entry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: ardfs rm --arh FILE --ard FILE [-r] [--soft|--restore] <path>")
	}
	if *soft && *restore {
		return fmt.Errorf("--soft and --restore are mutually exclusive")
	}
	path := fs.Arg(0)

	fsys, arhFile, ardFile, err := common.loadWritable()
	if err != nil {
		return err
	}
	defer arhFile.Close()
	defer ardFile.Close()

	if *restore {
		if !fsys.IsFile(path) {
			return fmt.Errorf("no such file: %s", path)
		}
		if err := fsys.SetHidden(path, false); err != nil {
			return err
		}
		return common.sync(fsys)
	}

	switch {
	case fsys.IsFile(path):
		if *soft {
			if err := fsys.SetHidden(path, true); err != nil {
				return err
			}
			break
		}
		if err := fsys.DeleteFile(path); err != nil {
			return err
		}
	case fsys.IsDir(path):
		dir, _ := fsys.GetDir(path)
		children := dir.ChildrenPaths()
		if !*soft && !*recursive && len(children) != 0 {
			return fmt.Errorf("refusing to delete non-empty directory: use -r to empty it first")
		}
		for _, child := range children {
			if *soft {
				if err := fsys.SetHidden(path+child, true); err != nil {
					return err
				}
				continue
			}
			if err := fsys.DeleteFile(path + child); err != nil {
				return err
			}
		}
		if !*soft {
			if err := fsys.DeleteEmptyDir(path); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("no such file or directory: %s", path)
	}

	return common.sync(fsys)
}
