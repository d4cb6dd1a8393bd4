package milvus

import "testing"

func TestCharacterSchemaDimension(t *testing.T) {
	s := CharacterSchema("bf_characters", 768)
	if s.CollectionName != "bf_characters" {
		t.Fatalf("CollectionName = %q", s.CollectionName)
	}
	var found bool
	for _, f := range s.Fields {
		if f.Name == FieldVector {
			found = true
			if f.TypeParams["dim"] != "768" {
				t.Fatalf("vector dim = %q", f.TypeParams["dim"])
			}
		}
		if f.Name == FieldID && !f.PrimaryKey {
			t.Fatal("id is not the primary key")
		}
	}
	if !found {
		t.Fatal("vector field missing")
	}
}

func TestBookFilterEscapesQuotes(t *testing.T) {
	if got := bookFilter(`a"b`); got != `book_id == "a\"b"` {
		t.Fatalf("bookFilter() = %s", got)
	}
}
