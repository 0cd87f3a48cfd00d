package index

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	url := filepath.Join(t.TempDir(), "corpus.snap")

	version, err := NewVersion("m", testRefs("m"))
	if err != nil {
		t.Fatalf("new version: %v", err)
	}
	if err := SaveSnapshot(ctx, url, version); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	loaded, err := LoadSnapshot(ctx, url)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if loaded.Model() != "m" {
		t.Fatalf("expected model m, got %s", loaded.Model())
	}
	if !reflect.DeepEqual(loaded.refs, version.refs) {
		t.Fatalf("snapshot round trip mismatch:\n got %+v\nwant %+v", loaded.refs, version.refs)
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	if _, err := LoadSnapshot(context.Background(), filepath.Join(t.TempDir(), "absent.snap")); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}
