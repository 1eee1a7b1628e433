package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestComplete(t *testing.T) {
	var got chatPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Databases \n"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, Model: "test-model", APIKey: "sk-test"})
	reply, err := c.Complete(context.Background(), Request{System: "sys", User: "hi", MaxTokens: 50, Temperature: 0.1})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Databases" {
		t.Errorf("Complete() = %q, want %q", reply, "Databases")
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Model != "test-model" || got.MaxTokens != 50 || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("payload = %+v", got)
	}
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"http error", 401, `{"error":{"message":"bad key"}}`, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 401 && apiErr.Message == "bad key"
		}},
		{"no choices", 200, `{"choices":[]}`, func(err error) bool { return errors.Is(err, ErrInvalidResponse) }},
		{"not json", 200, `oops`, func(err error) bool { return errors.Is(err, ErrInvalidResponse) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{Endpoint: srv.URL, Model: "m", APIKey: "k"})
			_, err := c.Complete(context.Background(), Request{User: "x"})
			if err == nil || !tt.check(err) {
				t.Errorf("Complete() error = %v", err)
			}
		})
	}
}

func TestComplete_Misconfigured(t *testing.T) {
	c := NewClient(Config{Endpoint: "http://localhost", Model: "m"})
	if _, err := c.Complete(context.Background(), Request{}); !errors.Is(err, ErrMisconfigured) {
		t.Errorf("Complete() without key error = %v, want ErrMisconfigured", err)
	}
}

type fakeCompleter struct {
	reply string
	err   error
	last  Request
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (string, error) {
	f.last = req
	return f.reply, f.err
}

func TestCategorize(t *testing.T) {
	f := &fakeCompleter{reply: "CATEGORY: Databases\nDESCRIPTION: Builds an index.\n"}
	got, err := Categorize(context.Background(), f, Paper{Title: "Fast Indexes"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Category != "Databases" || got.Description != "Builds an index." {
		t.Errorf("Categorize() = %+v", got)
	}
	if !strings.Contains(f.last.User, "Title: Fast Indexes") || !strings.Contains(f.last.User, "Abstract: "+NoAbstract) {
		t.Errorf("prompt missing fields:\n%s", f.last.User)
	}
	if f.last.MaxTokens != 200 {
		t.Errorf("MaxTokens = %d, want 200", f.last.MaxTokens)
	}
}

func TestParseCategorization(t *testing.T) {
	tests := []struct {
		reply string
		want  Categorization
	}{
		{"CATEGORY: ML\nDESCRIPTION: Trains a model.", Categorization{"ML", "Trains a model."}},
		{"  CATEGORY:Networks  ", Categorization{"Networks", NoDescription}},
		{"I cannot tell.", Categorization{UnknownCategory, NoDescription}},
	}
	for _, tt := range tests {
		if got := ParseCategorization(tt.reply); got != tt.want {
			t.Errorf("ParseCategorization(%q) = %+v, want %+v", tt.reply, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	f := &fakeCompleter{reply: " Operating Systems "}
	got, err := Classify(context.Background(), f, Paper{Title: "Schedulers", Abstract: "We schedule."})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Operating Systems" {
		t.Errorf("Classify() = %q", got)
	}
	if f.last.MaxTokens != 50 || !strings.HasSuffix(f.last.User, "Course Subject:") {
		t.Errorf("classify request = %+v", f.last)
	}

	f.err = errors.New("boom")
	if _, err := Classify(context.Background(), f, Paper{}); err == nil {
		t.Error("Classify() expected error")
	}
}

func TestDistribution(t *testing.T) {
	got := Distribution([]string{"B", "A", "B", "C", "A", "B"})
	want := []LabelCount{{"B", 3, 50}, {"A", 2, 100.0 * 2 / 6}, {"C", 1, 100.0 / 6}}
	if len(got) != len(want) {
		t.Fatalf("Distribution() = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Distribution()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if len(Distribution(nil)) != 0 {
		t.Error("Distribution(nil) should be empty")
	}
}

func TestShortTitle(t *testing.T) {
	p := Paper{Title: strings.Repeat("é", 40)}
	got := p.ShortTitle()
	if !strings.HasSuffix(got, "...") || len(got) > 53 {
		t.Errorf("ShortTitle() = %q", got)
	}
}
