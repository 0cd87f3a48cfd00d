package index

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/bintly"
)

// EncodeBinary writes a reference to a binary stream.
func (r *Reference) EncodeBinary(stream *bintly.Writer) error {
	stream.String(r.ID)
	stream.String(r.Label)
	stream.String(r.Content)
	stream.String(r.Vector.Model)
	stream.Float32s(r.Vector.Values)
	return nil
}

// DecodeBinary reads a reference from a binary stream.
func (r *Reference) DecodeBinary(stream *bintly.Reader) error {
	stream.String(&r.ID)
	stream.String(&r.Label)
	stream.String(&r.Content)
	stream.String(&r.Vector.Model)
	stream.Float32s(&r.Vector.Values)
	return nil
}

// SaveSnapshot writes a corpus version to a URL-addressable location, so a
// built index can be shipped to scoring nodes without the SQLite store.
func SaveSnapshot(ctx context.Context, url string, version *Version) error {
	writers := bintly.NewWriters()
	w := writers.Get()
	defer writers.Put(w)

	w.String(version.model)
	w.Int(len(version.refs))
	for i := range version.refs {
		if err := version.refs[i].EncodeBinary(w); err != nil {
			return fmt.Errorf("encode reference %s: %w", version.refs[i].ID, err)
		}
	}
	fs := afs.New()
	if err := fs.Upload(ctx, url, file.DefaultFileOsMode, bytes.NewReader(w.Bytes())); err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a corpus version previously written by SaveSnapshot.
func LoadSnapshot(ctx context.Context, url string) (*Version, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download snapshot: %w", err)
	}
	readers := bintly.NewReaders()
	r := readers.Get()
	defer readers.Put(r)
	if err := r.FromBytes(data); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	var model string
	r.String(&model)
	var count int
	r.Int(&count)
	if count < 0 {
		return nil, fmt.Errorf("decode snapshot: negative reference count")
	}
	refs := make([]Reference, count)
	for i := 0; i < count; i++ {
		if err := refs[i].DecodeBinary(r); err != nil {
			return nil, fmt.Errorf("decode reference %d: %w", i, err)
		}
	}
	return NewVersion(model, refs)
}
