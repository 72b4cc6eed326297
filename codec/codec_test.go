package codec

import "testing"

type fakeRecord struct {
	Name string
	N    int64
}

func (f fakeRecord) EncodeCanonical(e *Encoder) {
	e.Tag(TagTypedEdgeHash)
	e.String(f.Name)
	e.Int64(f.N)
}

func TestHashIsDeterministic(t *testing.T) {
	v := fakeRecord{Name: "abc", N: 42}
	h1, err := Hash(v)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := Hash(v)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hash not deterministic: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestHashDistinguishesFields(t *testing.T) {
	h1, _ := Hash(fakeRecord{Name: "abc", N: 1})
	h2, _ := Hash(fakeRecord{Name: "abc", N: 2})
	if h1 == h2 {
		t.Fatalf("expected distinct hashes for distinct values")
	}
}

type failingRecord struct{}

func (failingRecord) EncodeCanonical(e *Encoder) {
	e.Fail("unknown type")
}

func TestSerializeSurfacesProgrammerError(t *testing.T) {
	_, err := Serialize(failingRecord{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := err.(*SerializationError); !ok {
		t.Fatalf("expected *SerializationError, got %T", err)
	}
}
