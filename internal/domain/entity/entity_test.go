package entity

import (
	"testing"

	"gorm.io/datatypes"
)

func TestChapterApplyPartRoundTrip(t *testing.T) {
	ch := &Chapter{Status: ChapterStatusDraft}

	ch.BeginPart(PartOne, "more dialogue")
	if ch.Status != ChapterStatusWritingPart1 || ch.UserDirectives != "more dialogue" {
		t.Fatalf("after BeginPart(1): status=%s directives=%q", ch.Status, ch.UserDirectives)
	}
	ch.ApplyPart(PartOne, "The kitchen smelled of onions.")
	if ch.Status != ChapterStatusPart1Completed {
		t.Fatalf("status = %s, want part1_completed", ch.Status)
	}

	ch.BeginPart(PartTwo, "")
	if ch.Status != ChapterStatusWritingPart2 {
		t.Fatalf("status = %s, want writing_part2", ch.Status)
	}
	ch.ApplyPart(PartTwo, "Night fell over the camp.")

	want := "The kitchen smelled of onions." + PartSeparator + "Night fell over the camp."
	if ch.Content != want {
		t.Fatalf("content = %q, want %q", ch.Content, want)
	}
	if ch.Status != ChapterStatusCompleted {
		t.Fatalf("status = %s, want completed", ch.Status)
	}
}

func TestChapterRewritePartOneOverwrites(t *testing.T) {
	ch := &Chapter{Content: "old text", Status: ChapterStatusCompleted}
	ch.ApplyPart(PartOne, "new text")
	if ch.Content != "new text" || ch.Status != ChapterStatusPart1Completed {
		t.Fatalf("content=%q status=%s", ch.Content, ch.Status)
	}
}

func TestParsePart(t *testing.T) {
	for _, s := range []string{"1", "2"} {
		if _, err := ParsePart(s); err != nil {
			t.Fatalf("ParsePart(%q) error = %v", s, err)
		}
	}
	for _, s := range []string{"", "0", "3", "one"} {
		if _, err := ParsePart(s); err == nil {
			t.Fatalf("ParsePart(%q) expected error", s)
		}
	}
}

func TestBookConcept(t *testing.T) {
	b := &Book{ID: "b1"}
	c, err := b.Concept()
	if err != nil || c != nil {
		t.Fatalf("empty concept: got %v, %v", c, err)
	}

	b.LLMConcept = datatypes.JSON(`{"title":"Mess Hall","premise":"p","chapters":[{"chapter_number":2,"chapter_title":"Two","chapter_synopsis":"s","chapter_events":[{"event_title":"e","event_description":"d"}]}]}`)
	c, err = b.Concept()
	if err != nil {
		t.Fatalf("Concept() error = %v", err)
	}
	ch, ok := c.Chapter(2)
	if !ok || ch.ChapterTitle != "Two" || len(ch.ChapterEvents) != 1 {
		t.Fatalf("Chapter(2) = %+v, %v", ch, ok)
	}
	if _, ok := c.Chapter(1); ok {
		t.Fatal("Chapter(1) should not exist")
	}

	b.LLMConcept = datatypes.JSON(`{"title": `)
	if _, err := b.Concept(); err == nil {
		t.Fatal("malformed concept should fail to decode")
	}
}

func TestConceptNormalize(t *testing.T) {
	c := &BookConcept{Chapters: []ConceptChapter{{ChapterNumber: 1}, {ChapterNumber: 1}, {ChapterNumber: 0, ChapterTitle: "x"}}}
	if err := c.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	for i, ch := range c.Chapters {
		if ch.ChapterNumber != i+1 {
			t.Fatalf("chapter %d numbered %d", i, ch.ChapterNumber)
		}
	}
	if c.Chapters[0].ChapterTitle != "Chapter 1" {
		t.Fatalf("missing title not filled: %q", c.Chapters[0].ChapterTitle)
	}
	if err := (&BookConcept{}).Normalize(); err == nil {
		t.Fatal("empty concept should fail")
	}
}

func TestCharacterVectorDocument(t *testing.T) {
	c := &Character{Name: "Hans", Description: "the cook", IsProtagonist: true}
	if got := c.VectorDocument(); got != "name: Hans, role: protagonist, summary: the cook" {
		t.Fatalf("VectorDocument() = %q", got)
	}
	c.Summary = "A tired army cook."
	c.IsProtagonist = false
	if got := c.VectorDocument(); got != "name: Hans, role: supporting, summary: A tired army cook." {
		t.Fatalf("VectorDocument() = %q", got)
	}
}
