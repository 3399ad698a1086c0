package main

import (
	"flag"
	"fmt"

	"github.com/KarpelesLab/ardfs"
)

func runList(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	wd := "/"
	if fs.NArg() > 0 {
		wd = fs.Arg(0)
	}

	fsys, arhFile, err := common.loadReadOnly()
	if err != nil {
		return err
	}
	defer arhFile.Close()

	dir, ok := fsys.GetDir(wd)
	if !ok {
		return fmt.Errorf("directory not found: %s", wd)
	}

	fmt.Printf("In %s:\n\n", wd)
	fmt.Printf("%-30s %-10s %-6s %s\n", "Name", "Type", "Flags", "Size")

	var dirs, files int
	for _, entry := range dir.List() {
		if entry.IsDir {
			fmt.Printf("%-30s %-10s %-6s %s\n", entry.Name, "Directory", "", "--")
			dirs++
			continue
		}
		p, err := ardfs.Normalize(wd)
		if err != nil {
			return err
		}
		fullPath, err := p.Join(entry.Name)
		if err != nil {
			return err
		}
		meta, ok := fsys.GetFileInfo(string(fullPath))
		if !ok {
			continue
		}
		fmt.Printf("%-30s %-10s %-6s %d\n", entry.Name, "File", flagsDisplay(meta.Flags), meta.ActualSize())
		files++
	}

	fmt.Printf("\n%d directories, %d files\n", dirs, files)
	return nil
}

func flagsDisplay(f ardfs.FileFlag) string {
	out := ""
	if f.Has(ardfs.Hidden) {
		out += "H"
	}
	if f.Has(ardfs.HasCompressionHeader) {
		out += "X"
	}
	return out
}
