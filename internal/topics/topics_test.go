package topics

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/litreview/lit/internal/bibtex"
)

func entry(doi, title, raw string) bibtex.Entry {
	return bibtex.Entry{DOI: doi, Title: title, Raw: raw}
}

func TestCount(t *testing.T) {
	entries := []bibtex.Entry{
		entry("10.1/a", "Painting with machines", "@article{a,\n title={Painting with machines}\n}"),
		entry("10.1/b", "Deep learning", "@article{b,\n title={Deep Learning and AI}\n}"),
		entry("10.1/c", "Soil", "@article{c,\n title={Soil}\n}"),
	}
	topics := []string{"AI", "learning", "robots"}

	tests := []struct {
		name string
		opts Options
		want []int
	}{
		{"case insensitive matches substrings", Options{}, []int{2, 1, 0}},
		{"case sensitive", Options{CaseSensitive: true}, []int{1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := Count(entries, topics, tt.opts)
			got := make([]int, len(counts))
			for i, c := range counts {
				got[i] = c.Count
				if c.Topic != topics[i] {
					t.Errorf("counts[%d].Topic = %q, want %q", i, c.Topic, topics[i])
				}
				if len(c.Entries) != c.Count {
					t.Errorf("%s: %d entries retained, count %d", c.Topic, len(c.Entries), c.Count)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Count() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort_StableDescending(t *testing.T) {
	counts := []TopicCount{
		{Topic: "a", Count: 1},
		{Topic: "b", Count: 3},
		{Topic: "c", Count: 1},
		{Topic: "d", Count: 3},
		{Topic: "e", Count: 0},
	}
	Sort(counts)

	var got []string
	for _, c := range counts {
		got = append(got, c.Topic)
	}
	want := []string{"b", "d", "a", "c", "e"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort() order = %v, want %v", got, want)
	}

	if nz := NonZero(counts); len(nz) != 4 {
		t.Errorf("NonZero() kept %d, want 4", len(nz))
	}
}

func TestReadTopics(t *testing.T) {
	got, err := ReadTopics(strings.NewReader("  machine learning \n\nAI\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"machine learning", "AI"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadTopics() = %v, want %v", got, want)
	}
}

func TestFind(t *testing.T) {
	counts := []TopicCount{{Topic: "x", Count: 2}}
	if c, ok := Find(counts, "x"); !ok || c.Count != 2 {
		t.Errorf("Find(x) = %+v, %v", c, ok)
	}
	if _, ok := Find(counts, "y"); ok {
		t.Error("Find(y) should report false")
	}
}

func TestWriteCSV(t *testing.T) {
	counts := []TopicCount{{
		Topic: "AI",
		Count: 2,
		Entries: []bibtex.Entry{
			entry("10.1/a", "First, paper", ""),
			entry("", "", ""),
		},
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, counts); err != nil {
		t.Fatal(err)
	}
	want := "Topic,Frequency,DOIs,Titles\nAI,2,10.1/a|No DOI,\"First, paper|No Title\"\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() = %q, want %q", buf.String(), want)
	}
}
