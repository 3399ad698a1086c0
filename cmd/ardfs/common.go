package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/KarpelesLab/ardfs"
)

// commonFlags holds the --arh/--ard/--out-arh flags shared by every subcommand.
type commonFlags struct {
	arh    string
	ard    string
	outArh string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.arh, "arh", "", "input .arh file")
	fs.StringVar(&c.ard, "ard", "", "input .ard file")
	fs.StringVar(&c.outArh, "out-arh", "", "output .arh file (defaults to overwriting --arh)")
}

func (c *commonFlags) loadReadOnly() (*ardfs.FileSystem, *os.File, error) {
	if c.arh == "" {
		return nil, nil, fmt.Errorf("--arh is required")
	}
	arhFile, err := os.Open(c.arh)
	if err != nil {
		return nil, nil, err
	}

	var ardFile *os.File
	if c.ard != "" {
		ardFile, err = os.Open(c.ard)
		if err != nil {
			arhFile.Close()
			return nil, nil, err
		}
	}

	fsys, err := ardfs.Load(arhFile, ardFile, nil)
	if err != nil {
		arhFile.Close()
		if ardFile != nil {
			ardFile.Close()
		}
		return nil, nil, err
	}
	return fsys, arhFile, nil
}

func (c *commonFlags) loadWritable() (*ardfs.FileSystem, *os.File, *os.File, error) {
	if c.arh == "" {
		return nil, nil, nil, fmt.Errorf("--arh is required")
	}
	if c.ard == "" {
		return nil, nil, nil, fmt.Errorf("--ard is required for mutating commands")
	}

	arhFile, err := os.Open(c.arh)
	if err != nil {
		return nil, nil, nil, err
	}
	ardFile, err := os.OpenFile(c.ard, os.O_RDWR, 0)
	if err != nil {
		arhFile.Close()
		return nil, nil, nil, err
	}

	fsys, err := ardfs.Load(arhFile, ardFile, ardFile)
	if err != nil {
		arhFile.Close()
		ardFile.Close()
		return nil, nil, nil, err
	}
	return fsys, arhFile, ardFile, nil
}

func (c *commonFlags) sync(fsys *ardfs.FileSystem) error {
	outPath := c.outArh
	if outPath == "" {
		outPath = c.arh
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return fsys.Sync(out)
}
