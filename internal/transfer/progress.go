package transfer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

type Phase string

const (
	PhaseUpload Phase = "upload"
	PhaseDelete Phase = "delete"
)

// Progress is a snapshot of one transfer phase.
type Progress struct {
	Phase          Phase
	FilesDone      int
	FilesTotal     int
	BytesDone      int64
	BytesTotal     int64
	Elapsed        time.Duration
	BytesPerSecond float64
}

// Observer receives progress from a single goroutine, never concurrently.
type Observer interface {
	OnProgress(Progress)
	OnPhaseDone(Progress)
}

type NopObserver struct{}

func (NopObserver) OnProgress(Progress)  {}
func (NopObserver) OnPhaseDone(Progress) {}

// LogObserver writes progress lines through slog, at most one per Interval.
type LogObserver struct {
	Logger   *slog.Logger
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func NewLogObserver(logger *slog.Logger, interval time.Duration) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{Logger: logger, Interval: interval}
}

func (o *LogObserver) OnProgress(p Progress) {
	o.mu.Lock()
	now := time.Now()
	skip := p.FilesDone < p.FilesTotal && now.Sub(o.last) < o.Interval
	if !skip {
		o.last = now
	}
	o.mu.Unlock()
	if skip {
		return
	}

	o.Logger.Info(string(p.Phase),
		"files", humanize.Comma(int64(p.FilesDone))+"/"+humanize.Comma(int64(p.FilesTotal)),
		"bytes", humanize.IBytes(uint64(p.BytesDone))+"/"+humanize.IBytes(uint64(p.BytesTotal)),
		"rate", humanize.IBytes(uint64(p.BytesPerSecond))+"/s",
	)
}

func (o *LogObserver) OnPhaseDone(p Progress) {
	o.Logger.Info(string(p.Phase)+" done",
		"files", p.FilesDone,
		"size", humanize.IBytes(uint64(p.BytesDone)),
		"took", p.Elapsed.Round(time.Millisecond),
	)
}

// aggregator owns a Progress. Workers report completed files on one channel
// and the observer is called from the aggregator goroutine only.
type aggregator struct {
	updates  chan int64
	done     chan struct{}
	progress Progress
	observer Observer
	start    time.Time
	now      func() time.Time
}

func startAggregator(observer Observer, phase Phase, files int, bytes int64, buffer int, now func() time.Time) *aggregator {
	a := &aggregator{
		updates:  make(chan int64, buffer),
		done:     make(chan struct{}),
		progress: Progress{Phase: phase, FilesTotal: files, BytesTotal: bytes},
		observer: observer,
		start:    now(),
		now:      now,
	}
	go a.run()
	return a
}

func (a *aggregator) run() {
	defer close(a.done)
	for n := range a.updates {
		a.progress.FilesDone++
		a.progress.BytesDone += n
		a.stamp()
		a.observer.OnProgress(a.progress)
	}
}

func (a *aggregator) stamp() {
	a.progress.Elapsed = a.now().Sub(a.start)
	if secs := a.progress.Elapsed.Seconds(); secs > 0 {
		a.progress.BytesPerSecond = float64(a.progress.BytesDone) / secs
	}
}

// fileDone must not be called after finish.
func (a *aggregator) fileDone(size int64) {
	a.updates <- size
}

// finish drains pending updates and returns the final snapshot.
func (a *aggregator) finish() Progress {
	close(a.updates)
	<-a.done
	a.stamp()
	return a.progress
}
