package scraper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy bounds how often an empty extraction is repeated.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff is the fixed pause between attempts.
	Backoff time.Duration
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     2 * time.Second,
	}
}

// Acquisition is the outcome of Acquire.
type Acquisition struct {
	Records  []RawRecord
	Attempts int
	// LastErr is the error of the final attempt, if it failed.
	LastErr error
}

// Acquire calls the extractor until it yields at least one record or the attempts run out.
// Attempts are strictly sequential with a fixed pause in between. An empty final result is a
// normal outcome: it is returned, not reported as an error.
func Acquire(ctx context.Context, ex Extractor, p RetryPolicy) Acquisition {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var acq Acquisition
	for i := 1; i <= attempts; i++ {
		records, err := ex.Extract(ctx)
		acq = Acquisition{Records: records, Attempts: i, LastErr: err}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"attempt": i,
				"records": len(records),
			}).WithError(err).Warn("Extraction attempt failed")
		}
		if len(records) > 0 || i == attempts || ctx.Err() != nil {
			break
		}
		sleep(p.Backoff)
	}
	return acq
}
