// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/gobuffalo/packd"
	"github.com/pierrec/lz4"
	"golang.org/x/exp/mmap"
)

var _ packd.Finder = (*Archive)(nil)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	preamble := make([]byte, Preamble)
	if _, err := r.ReadAt(preamble, 0); err != nil {
		if err == io.EOF {
			return nil, ErrFileFormat
		}
		return nil, err
	}
	if !bytes.Equal(preamble[:MagicLength], magic[:]) {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(preamble[MagicLength:])
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, Preamble); err != nil {
		if err == io.EOF {
			return nil, ErrFileFormat
		}
		return nil, err
	}

	ar := Archive{
		reader: r,
		data:   Preamble + headerSize,
	}
	if err := gobDecode(&ar.header, headerBytes); err != nil {
		return nil, fmt.Errorf("header: %v: %w", err, ErrFileFormat)
	}
	return &ar, nil
}

// OpenFile memory maps the archive at path.
func OpenFile(path string) (*Archive, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	ar, err := Open(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	ar.closer = r
	return ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader io.ReaderAt
	closer io.Closer
	header Header
	data   int64
}

// Header returns the archive header, index included.
func (a *Archive) Header() Header {
	return a.header
}

// Names lists the files in the archive, in the order they were added.
func (a *Archive) Names() []string {
	names := make([]string, len(a.header.Index))
	for idx, e := range a.header.Index {
		names[idx] = e.Name
	}
	return names
}

// Open returns a reader of the decompressed contents of name.
func (a *Archive) Open(name string) (io.Reader, error) {
	e, ok := a.header.Entry(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	section := io.NewSectionReader(a.reader, a.data+e.Offset, e.CompressedSize)
	return lz4.NewReader(section), nil
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", name, err, ErrFileFormat)
	}
	if e, _ := a.header.Entry(name); int64(len(data)) != e.Size {
		return nil, fmt.Errorf("%s: size %d, expected %d: %w", name, len(data), e.Size, ErrFileFormat)
	}
	return data, nil
}

// Find implements packd.Finder.
func (a *Archive) Find(name string) ([]byte, error) {
	return a.ReadAll(name)
}

// FindString implements packd.Finder.
func (a *Archive) FindString(name string) (string, error) {
	data, err := a.ReadAll(name)
	return string(data), err
}

// Close releases the memory mapping of an archive from OpenFile.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
