package domain

import "fmt"

// Sentinel errors for the domain layer. LLM adapter HTTP failures are
// mapped onto these so callers can classify without string matching.
var (
	ErrRateLimit       = fmt.Errorf("rate limit exceeded")
	ErrAuthInvalid     = fmt.Errorf("authentication failed")
	ErrContextOverflow = fmt.Errorf("context window exceeded")
	ErrProviderError   = fmt.Errorf("provider error")
)
