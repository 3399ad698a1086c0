package ardfs

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrNoEntry is returned when an operand path resolves to neither a file nor a directory.
	ErrNoEntry = errors.New("ardfs: no such file or directory")

	// ErrAlreadyExists is returned by CreateFile when the path already names a file or a
	// directory.
	ErrAlreadyExists = errors.New("ardfs: an entry already exists with this name")

	// ErrExtendedFileName is returned by CreateFile when inserting the new path would require
	// one leaf's tail to be a strict prefix of another (e.g. "a.tar" next to "a.tar.gz").
	ErrExtendedFileName = errors.New("ardfs: extended file names are not supported")

	// ErrParse is returned when a META or DATA stream is structurally malformed.
	ErrParse = errors.New("ardfs: malformed archive")

	// ErrSizeOverflow is returned when a length does not fit the on-disk width of its field.
	ErrSizeOverflow = errors.New("ardfs: value does not fit on-disk field width")

	// ErrDecompress is returned when a compression container is rejected by its codec.
	ErrDecompress = errors.New("ardfs: failed to decompress entry")

	// ErrNotDirectory signals a directory-only operation on a file path. No function in
	// this package returns it; the FUSE adapter maps it to ENOTDIR.
	ErrNotDirectory = errors.New("ardfs: not a directory")

	// ErrUnknownCompression is returned when a compression container names a type with no
	// registered codec.
	ErrUnknownCompression = errors.New("ardfs: unknown compression type")
)
