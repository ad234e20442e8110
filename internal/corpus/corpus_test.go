package corpus

import (
	"reflect"
	"testing"

	"github.com/hyperifyio/arxivsubj/internal/extract"
)

func TestCorpus_AddKeepsAlignment(t *testing.T) {
	c := New()
	c.Add("http://arxiv.org/abs/1/", extract.AbstractRecord{Label: "Number Theory (math.NT)", Text: "a"})
	c.Skip(SkipLabelNotFound)
	c.Add("http://arxiv.org/abs/2/", extract.AbstractRecord{Label: "Combinatorics (math.CO)", Text: "b"})
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("len=%d", c.Len())
	}
	if c.Labels[1] != "Combinatorics (math.CO)" || c.Texts[1] != "b" || c.URLs[1] != "http://arxiv.org/abs/2/" {
		t.Fatalf("record 1 misaligned: %+v", c)
	}
}

func TestCorpus_ResetReturnsFreshValue(t *testing.T) {
	c := New()
	c.Add("u", extract.AbstractRecord{Label: "l", Text: "t"})
	c.Skip(SkipDecode)
	fresh := c.Reset()
	if fresh.Len() != 0 || fresh.Skips.Total() != 0 {
		t.Fatalf("expected empty corpus, got %+v", fresh)
	}
	if c.Len() != 1 || c.Skips[SkipDecode] != 1 {
		t.Fatalf("reset must not mutate the original: %+v", c)
	}
	fresh.Add("v", extract.AbstractRecord{Label: "m", Text: "s"})
	if c.Len() != 1 {
		t.Fatalf("fresh corpus shares storage with original")
	}
}

func TestCorpus_ValidateDetectsMisalignment(t *testing.T) {
	c := Corpus{URLs: []string{"a"}, Labels: []string{"x"}, Texts: nil}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected misalignment error")
	}
}

func TestSkipStats(t *testing.T) {
	var c Corpus
	c.Skip(SkipAbstractNotFound)
	c.Skip(SkipAbstractNotFound)
	c.Skip(SkipRetrieval)
	if c.Skips.Total() != 3 {
		t.Fatalf("total=%d", c.Skips.Total())
	}
	want := []SkipKind{SkipAbstractNotFound, SkipRetrieval}
	if got := c.Skips.Kinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds=%v, want %v", got, want)
	}
	if SkipAbstractNotFound.Describe() != "no abstract found" {
		t.Fatalf("describe=%q", SkipAbstractNotFound.Describe())
	}
}

func TestLabelCounts(t *testing.T) {
	c := New()
	for _, l := range []string{"a", "b", "a"} {
		c.Add("u", extract.AbstractRecord{Label: l, Text: "t"})
	}
	if got := c.LabelCounts(); got["a"] != 2 || got["b"] != 1 {
		t.Fatalf("counts=%v", got)
	}
}
