package ardfs

// Options holds the knobs Load accepts, built up via functional Option values.
type Options struct {
	extBlockSizePow   uint16
	extForceBlockSize bool
	defaultComp       CompType
}

func defaultOptions() Options {
	return Options{
		extBlockSizePow: DefaultBlockSizePow,
		defaultComp:     CompXZ,
	}
}

// Option configures a FileSystem at load time.
type Option func(*Options) error

// ExtBlockSizePow sets the block allocator's block size (bytes, as a power of two) used
// when the "arhx" extension section must be (re)built from scratch.
func ExtBlockSizePow(pow uint16) Option {
	return func(o *Options) error {
		o.extBlockSizePow = pow
		return nil
	}
}

// ExtForceBlockSize, when set, rebuilds the block allocator's bitmap from the
// FileTable on load whenever the archive's existing "arhx" section was built with a
// different block size than ExtBlockSizePow requests.
func ExtForceBlockSize() Option {
	return func(o *Options) error {
		o.extForceBlockSize = true
		return nil
	}
}

// DefaultCompression sets the codec CompressionStandard uses for new or replaced
// entries.
func DefaultCompression(t CompType) Option {
	return func(o *Options) error {
		o.defaultComp = t
		return nil
	}
}
