package vectorstore

import (
	"context"

	"github.com/HalfBloodPrince07/Vantage-sub000/internal/hookutil"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Hooks provides optional callbacks around Add/Search/Delete. All fields
// are optional; nil hooks are skipped.
type Hooks struct {
	// BeforeAdd runs before Add with the documents to be stored. A non-nil
	// error aborts the call.
	BeforeAdd func(ctx context.Context, docs []schema.Document) error

	// AfterSearch runs once Search returns, with its result and error.
	AfterSearch func(ctx context.Context, results []schema.Document, err error)
}

// ComposeHooks merges multiple Hooks into one. BeforeAdd short-circuits on
// the first error; AfterSearch always runs every hook, in order.
func ComposeHooks(hooks ...Hooks) Hooks {
	h := append([]Hooks{}, hooks...)
	return Hooks{
		BeforeAdd: hookutil.ComposeError1(h, func(hk Hooks) func(context.Context, []schema.Document) error {
			return hk.BeforeAdd
		}),
		AfterSearch: hookutil.ComposeVoid2(h, func(hk Hooks) func(context.Context, []schema.Document, error) {
			return hk.AfterSearch
		}),
	}
}
