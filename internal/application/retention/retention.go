package retention

import (
	"context"
	"time"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
)

// RunExpireStaleCodes clears verification codes older than maxAge and reports
// how many were cleared. Call periodically; maxAge 0 disables the sweep.
func RunExpireStaleCodes(ctx context.Context, people ports.PersonStore, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	return people.ExpireCodesIssuedBefore(ctx, time.Now().Add(-maxAge))
}
