// Package retry provides bounded exponential backoff for calls that cross into
// collaborator code.
//
// # Usage
//
//	p := retry.DefaultPolicy()
//	p.Retryable = errors.IsTransient
//	err := retry.Do(ctx, p, func(ctx context.Context) error {
//	    return saver.Save(ctx, snapshot)
//	})
//
// Every attempt gets its own context bounded by AttemptTimeout. A slow attempt
// is abandoned when its deadline passes and counts against the budget. Once the
// budget is spent the returned error wraps both ErrBudgetExhausted and the last
// attempt's error.
package retry
