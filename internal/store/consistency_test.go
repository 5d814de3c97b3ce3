package store

import "testing"

func TestInconsistencyType_String(t *testing.T) {
	cases := map[InconsistencyType]string{
		InconsistencyBadEmbeddingDimension: "bad_embedding_dimension",
		InconsistencyBadLineRange:          "bad_line_range",
		InconsistencyDanglingEdgeEndpoint:  "dangling_edge_endpoint",
		InconsistencyType(99):              "unknown",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("InconsistencyType(%d).String() = %q, want %q", typ, got, want)
		}
	}
}
