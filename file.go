// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/google/uuid"
	"github.com/imdario/mergo"

	"github.com/retropak/retropak/log"
)

// Options configures how a File is opened and decoded: zero-value
// fields are filled in from sane defaults rather than treated as "off".
type Options struct {
	// StrictVersions is stored on the File but no decoder reads it: the
	// decoders always reject forms whose reader/writer version doesn't
	// match the known constant for that form kind. A false value is
	// replaced by the default true when options are merged.
	StrictVersions bool

	// A custom logger.
	Logger log.Logger
}

func defaultOptions() Options {
	return Options{StrictVersions: true}
}

// A File represents an open PACK container, either memory-mapped from
// disk or wrapping an in-memory buffer.
type File struct {
	data   mmap.MMap
	bytes  []byte
	f      *os.File
	opts   *Options
	logger *log.Helper
	pkg    *Package
}

// New memory-maps the PACK file at name.
func New(name string, opts *Options) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	file := &File{f: f, data: data, bytes: []byte(data)}
	if err := file.applyOptions(opts); err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	return file, nil
}

// NewBytes wraps an in-memory PACK buffer.
func NewBytes(data []byte, opts *Options) (*File, error) {
	file := &File{bytes: data}
	if err := file.applyOptions(opts); err != nil {
		return nil, err
	}
	return file, nil
}

func (f *File) applyOptions(opts *Options) error {
	merged := defaultOptions()
	if opts != nil {
		merged = *opts
	}
	if err := mergo.Merge(&merged, defaultOptions()); err != nil {
		return err
	}
	f.opts = &merged

	if merged.Logger == nil {
		logger := log.NewStdLogger(os.Stdout)
		f.logger = log.NewHelper(log.NewFilter(logger, log.FilterLevel(log.LevelError)))
	} else {
		f.logger = log.NewHelper(merged.Logger)
	}
	return nil
}

// Close releases the memory mapping and underlying file handle, if any.
func (f *File) Close() error {
	if f.data != nil {
		if err := f.data.Unmap(); err != nil {
			return err
		}
	}
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

// Bytes returns the raw backing buffer.
func (f *File) Bytes() []byte {
	return f.bytes
}

// Package decodes and caches the PACK directory, eagerly decompressing
// every asset and checking its top-level form header.
func (f *File) Package() (*Package, error) {
	if f.pkg != nil {
		return f.pkg, nil
	}
	pkg, err := ReadPackage(f.bytes)
	if err != nil {
		f.logger.Errorf("failed to decode package: %v", err)
		return nil, err
	}
	f.pkg = pkg
	return pkg, nil
}

// Sparse indexes the file's directory and string table without
// materializing metadata or asset payloads.
func (f *File) Sparse() ([]SparsePackageEntry, error) {
	entries, err := ReadSparse(f.bytes)
	if err != nil {
		f.logger.Errorf("failed to read sparse directory: %v", err)
		return nil, err
	}
	return entries, nil
}

// Header re-serializes the file's TOCC form alone, discarding asset
// payload bytes.
func (f *File) Header() ([]byte, error) {
	header, err := ReadHeader(f.bytes)
	if err != nil {
		f.logger.Errorf("failed to read package header: %v", err)
		return nil, err
	}
	return header, nil
}

// Asset extracts a single asset by id.
func (f *File) Asset(id uuid.UUID) ([]byte, error) {
	data, err := ReadAsset(f.bytes, id)
	if err != nil {
		f.logger.Errorf("failed to read asset %s: %v", id, err)
		return nil, err
	}
	return data, nil
}
