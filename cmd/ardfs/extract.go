package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/KarpelesLab/ardfs"
)

func runExtract(args []string) error {
	fs := flag.NewFlagSet("x", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	outDir := fs.String("out", "", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outDir == "" {
		return fmt.Errorf("--out is required")
	}
	if common.ard == "" {
		return fmt.Errorf("--ard is required")
	}

	fsys, arhFile, err := common.loadReadOnly()
	if err != nil {
		return err
	}
	defer arhFile.Close()

	var paths []string
	for _, p := range fs.Args() {
		switch {
		case fsys.IsFile(p):
			paths = append(paths, p)
		default:
			dir, ok := fsys.GetDir(p)
			if !ok {
				return fmt.Errorf("path not found: %s", p)
			}
			for _, child := range dir.ChildrenPaths() {
				paths = append(paths, strings.TrimSuffix(p, "/")+child)
			}
		}
	}
	if len(paths) == 0 {
		if dir, ok := fsys.GetDir("/"); ok {
			paths = dir.ChildrenPaths()
		}
	}

	// Sort paths by entry offset for sequential read locality.
	sort.Slice(paths, func(i, j int) bool {
		mi, _ := fsys.GetFileInfo(paths[i])
		mj, _ := fsys.GetFileInfo(paths[j])
		if mi == nil || mj == nil {
			return false
		}
		return mi.Offset < mj.Offset
	})

	return extractParallel(fsys, common.ard, *outDir, paths)
}

// extractParallel runs one worker per CPU, each owning its own DATA file descriptor,
// consuming the offset-sorted path list.
func extractParallel(fsys *ardfs.FileSystem, ardPath, outDir string, paths []string) error {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers == 0 {
		return nil
	}

	jobs := make(chan string)
	errs := make(chan error, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		fd, err := os.Open(ardPath)
		if err != nil {
			return err
		}
		if err := unix.Fadvise(int(fd.Fd()), 0, 0, unix.FADV_SEQUENTIAL); err != nil {
			// Best-effort hint; not fatal if the kernel or filesystem rejects it.
		}

		wg.Add(1)
		go func(dataFD *os.File) {
			defer wg.Done()
			defer dataFD.Close()
			for p := range jobs {
				if err := extractOne(fsys, dataFD, outDir, p); err != nil {
					select {
					case errs <- err:
					default:
					}
				}
			}
		}(fd)
	}

	for _, p := range paths {
		jobs <- p
	}
	close(jobs)
	wg.Wait()
	close(errs)

	for err := range errs {
		return err
	}
	return nil
}

func extractOne(fsys *ardfs.FileSystem, dataFD *os.File, outDir, path string) error {
	meta, ok := fsys.GetFileInfo(path)
	if !ok {
		return fmt.Errorf("extract: %s disappeared mid-run", path)
	}

	data := ardfs.NewDataCodec(dataFD, nil)
	buf, err := data.ReadEntry(meta)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	outPath := filepath.Join(outDir, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, buf, 0o644)
}
