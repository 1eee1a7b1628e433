// Package batch runs one fallible call per item and keeps going when an
// item fails. Every item yields a Result holding either a value or a typed
// Failure, so callers aggregate by inspecting results instead of errors.
package batch

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/stream"
)

// FailureKind classifies why an item failed.
type FailureKind string

const (
	FailureHTTP            FailureKind = "http"
	FailureNetwork         FailureKind = "network"
	FailureNotFound        FailureKind = "not_found"
	FailureInvalidResponse FailureKind = "invalid_response"
	FailureOther           FailureKind = "error"
)

// Failure is the recorded reason an item did not succeed.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result is the outcome for one submitted item.
type Result[I, T any] struct {
	Index   int
	Item    I
	Value   T
	Failure *Failure
}

// OK reports whether the item succeeded.
func (r Result[I, T]) OK() bool {
	return r.Failure == nil
}

// Classifier turns an item error into a Failure.
type Classifier func(error) *Failure

// DefaultClassifier records the error text under FailureOther.
func DefaultClassifier(err error) *Failure {
	return &Failure{Kind: FailureOther, Message: "Error: " + err.Error(), Err: err}
}

// Options controls how Run schedules calls.
type Options struct {
	// Concurrency above 1 runs that many calls at once.
	Concurrency int
	// Delay separates consecutive calls when running sequentially.
	Delay time.Duration
	// Classify maps errors to failures; DefaultClassifier when nil.
	Classify Classifier
	// OnDone is called once per item, in submission order, after the item
	// finishes. failure is nil on success.
	OnDone func(index int, failure *Failure)
}

// Run calls fn for every item and returns the results in submission order.
// Failed items never stop the batch and are not retried.
func Run[I, T any](ctx context.Context, items []I, opts Options, fn func(context.Context, I) (T, error)) []Result[I, T] {
	classify := opts.Classify
	if classify == nil {
		classify = DefaultClassifier
	}

	call := func(i int, item I) Result[I, T] {
		r := Result[I, T]{Index: i, Item: item}
		v, err := fn(ctx, item)
		if err != nil {
			r.Failure = classify(err)
		} else {
			r.Value = v
		}
		return r
	}

	results := make([]Result[I, T], 0, len(items))
	collect := func(r Result[I, T]) {
		results = append(results, r)
		if opts.OnDone != nil {
			opts.OnDone(r.Index, r.Failure)
		}
	}

	if opts.Concurrency > 1 {
		s := stream.New().WithMaxGoroutines(opts.Concurrency)
		for i, item := range items {
			s.Go(func() stream.Callback {
				r := call(i, item)
				return func() { collect(r) }
			})
		}
		s.Wait()
		return results
	}

	for i, item := range items {
		if i > 0 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				break
			}
		}
		collect(call(i, item))
	}
	return results
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Summary aggregates a finished batch.
type Summary struct {
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	ByKind    map[FailureKind]int `json:"failures_by_kind,omitempty"`
}

// Summarize counts successes and failures.
func Summarize[I, T any](results []Result[I, T]) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.OK() {
			s.Succeeded++
			continue
		}
		s.Failed++
		if s.ByKind == nil {
			s.ByKind = make(map[FailureKind]int)
		}
		s.ByKind[r.Failure.Kind]++
	}
	return s
}

// SucceededPercent is the share of successful items, 0 for an empty batch.
func (s Summary) SucceededPercent() float64 {
	return percent(s.Succeeded, s.Total)
}

// FailedPercent is the share of failed items, 0 for an empty batch.
func (s Summary) FailedPercent() float64 {
	return percent(s.Failed, s.Total)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}
