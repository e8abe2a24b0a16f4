package pool

import (
	"errors"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrSearchExhausted is returned by Search when every attempt was used up
// before enough successes were found.
var ErrSearchExhausted = errors.New("pool: search budget exhausted")

// searchAlone runs f, which may return nil, until count elements are found,
// or maxAttempts calls have been made.
func searchAlone(f func() interface{}, count, maxAttempts int) ([]interface{}, error) {
	results := make([]interface{}, 0, count)
	for attempt := 0; attempt < maxAttempts && len(results) < count; attempt++ {
		if res := f(); res != nil {
			results = append(results, res)
		}
	}
	if len(results) < count {
		return nil, ErrSearchExhausted
	}
	return results, nil
}

// search is a single Search call, shared by all the workers taking part in it.
type search struct {
	f func() interface{}
	// remaining is the number of results that still need to be produced.
	remaining int64
	// attempts is the number of calls to f that may still be made.
	attempts int64
	results  []interface{}
	wg       sync.WaitGroup
}

// run keeps querying f while results are missing and the budget is not spent.
func (s *search) run() {
	defer s.wg.Done()
	for atomic.LoadInt64(&s.remaining) > 0 {
		if atomic.AddInt64(&s.attempts, -1) < 0 {
			return
		}
		res := s.f()
		if res == nil {
			continue
		}
		i := atomic.AddInt64(&s.remaining, -1)
		if i < 0 {
			return
		}
		s.results[i] = res
	}
}

// worker starts up a new worker, listening for searches to take part in.
func worker(commands <-chan *search) {
	for s := range commands {
		s.run()
	}
}

// Pool represents a pool of workers, used for racing probabilistic searches.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current goroutine instead.
//
// By creating a pool, you avoid the overhead of spinning up goroutines for
// each new operation.
type Pool struct {
	// The common channel used to send searches to the workers.
	//
	// This effectively makes a work stealing pool.
	commands chan *search
	// This holds the number of workers we've created
	workerCount int
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	var p Pool

	if count <= 0 {
		count = runtime.NumCPU()
	}

	p.commands = make(chan *search)
	p.workerCount = count

	for i := 0; i < count; i++ {
		go worker(p.commands)
	}

	return &p
}

// Workers returns the number of goroutines serving this pool, 1 for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workerCount
}

// TearDown cleanly tears down a pool, closing channels, etc.
func (p *Pool) TearDown() {
	close(p.commands)
}

// Search queries the function f, until count successes are found.
//
// f is supposed to try a single candidate, returning nil if that candidate isn't
// successful. At most maxAttempts calls to f are made across all workers;
// if they are all spent first, ErrSearchExhausted is returned.
//
// The result will be a slice containing the first count successes, in no particular order.
func (p *Pool) Search(count, maxAttempts int, f func() interface{}) ([]interface{}, error) {
	if p == nil {
		return searchAlone(f, count, maxAttempts)
	}

	s := &search{
		f:         f,
		remaining: int64(count),
		attempts:  int64(maxAttempts),
		results:   make([]interface{}, count),
	}
	s.wg.Add(p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.commands <- s
	}
	s.wg.Wait()

	if atomic.LoadInt64(&s.remaining) > 0 {
		return nil, ErrSearchExhausted
	}
	return s.results, nil
}

// LockedReader wraps an io.Reader to be safe for concurrent reads.
//
// This type implements io.Reader, returning the same output.
//
// This means acquiring a lock whenever a read happens, so be aware of that
// for performance or concurrency reasons.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader creates a LockedReader by wrapping an underlying value.
func NewLockedReader(r io.Reader) *LockedReader {
	// Intentionally not initializing m, since the zero value is ok
	return &LockedReader{reader: r}
}

// Read implements io.Reader for LockedReader
//
// Naturally, when calling this function concurrently, what value ends up getting
// read is raced, but you won't end up reading the same value twice, or otherwise
// messing up the state of the reader.
func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
