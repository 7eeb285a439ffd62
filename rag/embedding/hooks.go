package embedding

import (
	"context"

	"github.com/HalfBloodPrince07/Vantage-sub000/internal/hookutil"
)

// Hooks provides optional callbacks around Embed calls. All fields are
// optional; nil hooks are skipped.
type Hooks struct {
	// BeforeEmbed runs before Embed with the input texts. A non-nil error
	// aborts the call.
	BeforeEmbed func(ctx context.Context, texts []string) error

	// AfterEmbed runs once Embed returns, with its result and error.
	AfterEmbed func(ctx context.Context, embeddings [][]float32, err error)
}

// ComposeHooks merges multiple Hooks into one. BeforeEmbed short-circuits
// on the first error; AfterEmbed always runs every hook, in order.
func ComposeHooks(hooks ...Hooks) Hooks {
	h := append([]Hooks{}, hooks...)
	return Hooks{
		BeforeEmbed: hookutil.ComposeError1(h, func(hk Hooks) func(context.Context, []string) error {
			return hk.BeforeEmbed
		}),
		AfterEmbed: hookutil.ComposeVoid2(h, func(hk Hooks) func(context.Context, [][]float32, error) {
			return hk.AfterEmbed
		}),
	}
}
