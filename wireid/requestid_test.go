package wireid

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	id := RequestId{WriterGUID: GUID{1, 2, 3, 4}, SequenceNr: 42}

	for _, m := range []ServiceMapping{Basic, Enhanced, Cyclone} {
		buf := m.Encode(id)
		got, err := m.Decode(buf)
		if err != nil {
			t.Fatalf("%s: Decode: %v", m, err)
		}
		if got != id {
			t.Fatalf("%s: round trip mismatch: got %+v, want %+v", m, got, id)
		}
	}
}

func TestMappingsAreNotInterchangeable(t *testing.T) {
	id := RequestId{WriterGUID: GUID{9}, SequenceNr: 7}
	buf := Basic.Encode(id)

	if _, err := Enhanced.Decode(buf); err == nil {
		t.Fatalf("Enhanced.Decode unexpectedly accepted a Basic-encoded buffer")
	}
}

func TestGeneratorProducesDistinctIds(t *testing.T) {
	g := NewGenerator(GUID{1})
	seen := map[RequestId]bool{}
	for i := 0; i < 100; i++ {
		id := g.Next()
		if seen[id] {
			t.Fatalf("duplicate RequestId %v at iteration %d", id, i)
		}
		seen[id] = true
	}
}
