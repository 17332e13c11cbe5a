package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FileLock is a cross-process lock file next to a file-backed ledger. A lock older than TTL
// is considered abandoned and taken over; the holder refreshes its mtime while it runs.
type FileLock struct {
	Path string
	TTL  time.Duration
}

func (l FileLock) Lock(ctx context.Context) (func(), error) {
	for i := 0; i < 2; i++ {
		f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, _ = fmt.Fprintf(f, `{"pid":%d,"time":%d}`+"\n", os.Getpid(), time.Now().Unix())
			_ = f.Close()
			return l.hold(), nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}

		fi, err := os.Stat(l.Path)
		if err != nil {
			// released between our open and stat
			continue
		}
		if age := time.Since(fi.ModTime()); l.TTL > 0 && age >= l.TTL {
			logrus.WithFields(logrus.Fields{"lock": l.Path, "age": age}).Warn("Removing stale history lock")
			_ = os.Remove(l.Path)
			continue
		}
		return nil, fmt.Errorf("%w: %s held since %s", ErrLocked, l.Path, fi.ModTime().Format(time.RFC3339))
	}
	return nil, fmt.Errorf("%w: %s", ErrLocked, l.Path)
}

// hold starts the heartbeat and returns the release func.
func (l FileLock) hold() func() {
	done := make(chan struct{})
	if l.TTL > 0 {
		go func() {
			t := time.NewTicker(l.TTL / 3)
			defer t.Stop()
			for {
				select {
				case <-done:
					return
				case <-t.C:
					now := time.Now()
					_ = os.Chtimes(l.Path, now, now)
				}
			}
		}()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = os.Remove(l.Path)
		})
	}
}
