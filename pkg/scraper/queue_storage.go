package scraper

import (
	"errors"
	"sync"
)

var errQueueEmpty = errors.New("queue is empty")

// FIFOQueueStorage is a very simple first-in first-out storage backend for the colly queue.
// Search pages are visited in the order they were configured, which keeps the yield order of
// an extractor stable.
type FIFOQueueStorage struct {
	lock     *sync.Mutex
	requests [][]byte
}

func (s *FIFOQueueStorage) Init() error {
	s.lock = &sync.Mutex{}
	return nil
}

func (s *FIFOQueueStorage) AddRequest(r []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.requests = append(s.requests, r)

	return nil
}

func (s *FIFOQueueStorage) GetRequest() ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.requests) == 0 {
		return nil, errQueueEmpty
	}
	r := s.requests[0]
	s.requests = s.requests[1:]

	return r, nil
}

func (s *FIFOQueueStorage) QueueSize() (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.requests), nil
}
