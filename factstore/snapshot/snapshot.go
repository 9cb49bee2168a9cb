// Package snapshot is the boundary between a factstore.Store and an
// opaque on-disk blob. Callers rely on exactly two things: the
// round-trip contract (Load(Write(s)) == s) and the no-overwrite
// write guard. The blob layout itself is private — a gob-encoded
// Store behind a one-byte codec header selecting the compressor.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/wbrown/factstore/factstore"
)

// Codec selects the compressor wrapping the gob-encoded store.
type Codec byte

const (
	// Snappy is the default: fast, streaming, no dictionary to manage.
	Snappy Codec = 1
	// Zstd trades write speed for a materially better ratio on large
	// stores (the -z CLI flag selects it).
	Zstd Codec = 2
)

// Options configures a snapshot Write.
type Options struct {
	Codec Codec
}

// DefaultOptions is Snappy compression, matching the CLI's default.
func DefaultOptions() Options { return Options{Codec: Snappy} }

// Write encodes store to path as a compressed blob. It refuses to
// overwrite an existing file, returning *factstore.ErrFileExists.
func Write(path string, store *factstore.Store, opts Options) error {
	if opts.Codec == 0 {
		opts.Codec = Snappy
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return &factstore.ErrFileExists{Path: path}
		}
		return &factstore.IoError{Path: path, Op: "create", Err: err}
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := bw.Write([]byte{byte(opts.Codec)}); err != nil {
		return &factstore.IoError{Path: path, Op: "write", Err: err}
	}

	cw, err := newCompressWriter(opts.Codec, bw)
	if err != nil {
		return &factstore.EncodingError{Err: err}
	}

	if err := gob.NewEncoder(cw).Encode(store); err != nil {
		return &factstore.EncodingError{Err: err}
	}
	if err := cw.Close(); err != nil {
		return &factstore.EncodingError{Err: err}
	}
	if err := bw.Flush(); err != nil {
		return &factstore.IoError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// Load decodes a blob previously produced by Write into a fresh Store.
func Load(path string) (*factstore.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &factstore.IoError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header, err := br.ReadByte()
	if err != nil {
		return nil, &factstore.DecodingError{Err: err}
	}

	cr, err := newDecompressReader(Codec(header), br)
	if err != nil {
		return nil, &factstore.DecodingError{Err: err}
	}

	store := &factstore.Store{}
	if err := gob.NewDecoder(cr).Decode(store); err != nil {
		return nil, &factstore.DecodingError{Err: err}
	}
	return store, nil
}

func newCompressWriter(codec Codec, w io.Writer) (io.WriteCloser, error) {
	switch codec {
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("snapshot: unknown codec %d", codec)
	}
}

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

func newDecompressReader(codec Codec, r io.Reader) (io.Reader, error) {
	switch codec {
	case Snappy:
		return snappy.NewReader(r), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	default:
		return nil, fmt.Errorf("snapshot: unknown codec byte %d", codec)
	}
}
