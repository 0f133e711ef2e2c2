package turntable

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"spinner-editor/internal/utils"
)

// Task is one pending frame decode.
type Task struct {
	Index int

	done chan struct{}
	img  image.Image
	err  error
}

// Poll reports the decode result without blocking.
func (t *Task) Poll() (image.Image, error, bool) {
	select {
	case <-t.done:
		return t.img, t.err, true
	default:
		return nil, nil, false
	}
}

// Wait blocks until the decode finished.
func (t *Task) Wait() (image.Image, error) {
	<-t.done
	return t.img, t.err
}

// Loader decodes frames of a Source on a bounded number of goroutines.
type Loader struct {
	source Source
	sem    chan struct{}
	wg     sync.WaitGroup
}

// NewLoader allows at most workers concurrent decodes. Zero means one per CPU.
func NewLoader(source Source, workers int) *Loader {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Loader{source: source, sem: make(chan struct{}, workers)}
}

func (l *Loader) Source() Source { return l.source }

// Request starts decoding frame index and returns immediately.
func (l *Loader) Request(index int) *Task {
	t := &Task{Index: index, done: make(chan struct{})}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer close(t.done)

		l.sem <- struct{}{}
		defer func() { <-l.sem }()

		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("turntable: frame %d: decoder panic: %v", index, r)
			}
		}()

		t.img, t.err = l.source.Frame(index)
		if t.err != nil {
			utils.Warn("Turntable: Frame %d - %v", index, t.err)
		}
	}()
	return t
}

// Wait blocks until every requested decode has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}
