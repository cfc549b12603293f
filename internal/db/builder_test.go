package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx, err := NewIndex("test-idx").
		Prefix("doc:").
		Tag("source").
		Text("content").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Type != IndexFieldTag || idx.Fields[1].Type != IndexFieldText {
		t.Errorf("unexpected field types %+v", idx.Fields)
	}
}

func TestChunkIndex(t *testing.T) {
	idx, err := ChunkIndex("nofo_chunks", "grantmatch:chunk:", 1024, 16, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx.Prefixes) != 1 || idx.Prefixes[0] != "grantmatch:chunk:" {
		t.Errorf("prefixes = %v", idx.Prefixes)
	}
	if len(idx.Fields) != 3 {
		t.Fatalf("fields count = %d, want 3", len(idx.Fields))
	}
	v := idx.Fields[2]
	if v.Name != ChunkVectorField || v.VectorAlgo != VectorHNSW || v.VectorDistance != DistanceCosine {
		t.Errorf("unexpected vector field %+v", v)
	}
	if v.VectorDim != 1024 || v.VectorM != 16 || v.VectorEFConstruct != 200 {
		t.Errorf("unexpected vector params %+v", v)
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Tag("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field is required",
		},
		{
			name: "invalid name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("bad name!").Tag("x").Build()
			},
			wantErr: "invalid characters",
		},
		{
			name: "duplicate field",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Tag("x").Text("x").Build()
			},
			wantErr: "duplicate field name",
		},
		{
			name: "zero dim",
			builder: func() (*IndexDefinition, error) {
				return ChunkIndex("idx", "p:", 0, 16, 200)
			},
			wantErr: "positive DIM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"nofo_chunks", "a:b-c", "X1"}
	for _, s := range valid {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false", s)
		}
	}
	invalid := []string{"", "a b", "a.b", "a/b"}
	for _, s := range invalid {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true", s)
		}
	}
}
