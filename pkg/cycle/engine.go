// Package cycle runs one price-monitoring pass: acquire listings from every source, pick the
// cheapest offer per tier, compare it with the trailing month, alert, then append to history.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/geniass/airpods-dealz/pkg/deals"
	"github.com/geniass/airpods-dealz/pkg/history"
	"github.com/geniass/airpods-dealz/pkg/metrics"
	"github.com/geniass/airpods-dealz/pkg/normalize"
	"github.com/geniass/airpods-dealz/pkg/notify"
	"github.com/geniass/airpods-dealz/pkg/product"
	"github.com/geniass/airpods-dealz/pkg/scraper"
	"github.com/geniass/airpods-dealz/pkg/tracing"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrSourceEmpty is logged when a source still yields nothing after every attempt.
var ErrSourceEmpty = errors.New("source returned no products after all attempts")

// Source is one retailer: where its records come from and how they are validated.
type Source struct {
	ID         string
	Extractor  scraper.Extractor
	Normalizer normalize.Normalizer
}

type Engine struct {
	// Sources are acquired in order. Among equally cheap products the earlier source wins.
	Sources []Source
	Store   history.Store
	// Locker is optional; without it concurrent cycles are the caller's problem.
	Locker    history.Locker
	Notifier  notify.Notifier
	Recipient string
	Family    product.Family
	Retry     scraper.RetryPolicy
	// Now defaults to time.Now.
	Now     func() time.Time
	Metrics *metrics.Recorder
}

// Outcome describes a finished cycle.
type Outcome struct {
	ID        string
	Accepted  []product.Product
	Summaries []deals.Summary
	Offers    []deals.Offer
	// Persisted is false when there was nothing to write.
	Persisted bool
	LedgerLen int
}

// Run executes one cycle. Only lock, history and persistence failures are returned; everything
// smaller is logged and the cycle carries on.
func (e *Engine) Run(ctx context.Context) error {
	_, err := e.Cycle(ctx)
	return err
}

// Cycle is Run with the outcome exposed.
func (e *Engine) Cycle(ctx context.Context) (Outcome, error) {
	out := Outcome{ID: uuid.NewString()}
	log := logrus.WithField("cycle", out.ID)

	ctx, span := tracing.Tracer().Start(ctx, "cycle", trace.WithAttributes(attribute.String("cycle.id", out.ID)))
	defer span.End()

	start := e.now()
	today := product.Today(start)

	if e.Locker != nil {
		unlock, err := e.Locker.Lock(ctx)
		if err != nil {
			tracing.RecordError(ctx, err)
			return out, fmt.Errorf("lock history: %w", err)
		}
		defer unlock()
	}

	ledger, err := e.Store.Read(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return out, fmt.Errorf("read history: %w", err)
	}
	startedEmpty := len(ledger) == 0
	log.WithField("entries", len(ledger)).Info("Loaded history")

	for _, src := range e.Sources {
		out.Accepted = append(out.Accepted, e.collect(ctx, log, src, today)...)
	}

	avg := deals.RollingAverages(e.Family, ledger, today)
	out.Summaries = deals.WithAverages(deals.Cheapest(e.Family, out.Accepted), avg)
	for _, s := range out.Summaries {
		e.Metrics.Average(s.Tier, s.Average)
		if s.Cheapest != nil {
			e.Metrics.Cheapest(s.Tier, s.Cheapest.Price)
		}
	}

	out.Offers = deals.Offers(out.Summaries)
	for _, o := range out.Offers {
		e.alert(ctx, log, o)
	}

	if len(out.Accepted) == 0 && startedEmpty {
		log.Error("No products found today")
		out.LedgerLen = len(ledger)
		e.Metrics.LedgerSize(len(ledger))
		e.Metrics.CycleDone(e.now().Sub(start), e.now())
		return out, nil
	}

	ledger = append(ledger, out.Accepted...)
	if err := e.Store.Write(ctx, ledger); err != nil {
		tracing.RecordError(ctx, err)
		return out, fmt.Errorf("persist history: %w", err)
	}
	out.Persisted = true
	out.LedgerLen = len(ledger)

	e.Metrics.LedgerSize(len(ledger))
	e.Metrics.CycleDone(e.now().Sub(start), e.now())
	log.WithFields(logrus.Fields{
		"new":     len(out.Accepted),
		"entries": len(ledger),
		"offers":  len(out.Offers),
	}).Info("Cycle complete")
	return out, nil
}

// collect acquires and normalizes one source. A source that stays empty contributes nothing.
func (e *Engine) collect(ctx context.Context, log *logrus.Entry, src Source, today civil.Date) []product.Product {
	ctx, span := tracing.Tracer().Start(ctx, "acquire", trace.WithAttributes(attribute.String("source", src.ID)))
	defer span.End()
	log = log.WithField("source", src.ID)

	acq := scraper.Acquire(ctx, src.Extractor, e.Retry)
	e.Metrics.Attempts(src.ID, acq.Attempts)
	span.SetAttributes(attribute.Int("attempts", acq.Attempts), attribute.Int("records", len(acq.Records)))

	if len(acq.Records) == 0 {
		err := fmt.Errorf("%w: %s after %d attempts", ErrSourceEmpty, src.ID, acq.Attempts)
		if acq.LastErr != nil {
			err = fmt.Errorf("%w: last error: %v", err, acq.LastErr)
		}
		tracing.RecordError(ctx, err)
		log.WithError(err).Error("Still no products from source")
		return nil
	}

	var accepted []product.Product
	for _, r := range acq.Records {
		p, err := src.Normalizer.Normalize(r, today)
		if err != nil {
			reason := reasonOf(err)
			e.Metrics.Rejected(src.ID, reason)
			entry := log.WithFields(logrus.Fields{"name": r.Name, "reason": reason}).WithError(err)
			if errors.Is(err, normalize.ErrNotInFamily) {
				entry.Debug("Skipping record")
			} else {
				entry.Error("Rejected record")
			}
			continue
		}
		e.Metrics.Accepted(src.ID)
		accepted = append(accepted, p)
	}

	log.WithFields(logrus.Fields{
		"records":  len(acq.Records),
		"accepted": len(accepted),
		"attempts": acq.Attempts,
	}).Info("Acquired source")
	return accepted
}

// alert renders and dispatches one offer. Delivery failures never leave this function.
func (e *Engine) alert(ctx context.Context, log *logrus.Entry, o deals.Offer) {
	log = log.WithFields(logrus.Fields{
		"tier":     o.Tier.String(),
		"name":     o.Product.Name,
		"price":    o.Product.Price,
		"average":  o.Average,
		"discount": fmt.Sprintf("%.2f", o.DiscountPct),
	})

	subject, body, err := notify.Compose(o)
	if err != nil {
		log.WithError(err).Error("Failed to render offer")
		return
	}
	e.Metrics.Alerted(o.Tier)
	log.Info("Found offer")

	if e.Notifier == nil {
		return
	}
	if err := e.Notifier.Send(ctx, e.Recipient, subject, body); err != nil {
		tracing.RecordError(ctx, err)
		log.WithError(err).Error("Failed to send offer")
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, normalize.ErrPriceMissing):
		return "price_missing"
	case errors.Is(err, normalize.ErrAvailabilityMissing):
		return "availability_missing"
	case errors.Is(err, normalize.ErrNotInFamily):
		return "not_in_family"
	case errors.Is(err, normalize.ErrBadLink):
		return "bad_link"
	}
	return "other"
}
