package ingestcmder

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("relevant", func() {
	It("accepts content changes", func() {
		Expect(relevant(fsnotify.Event{Name: "raw/text/notes.txt", Op: fsnotify.Create})).To(BeTrue())
		Expect(relevant(fsnotify.Event{Name: "raw/images/scan.png", Op: fsnotify.Write})).To(BeTrue())
		Expect(relevant(fsnotify.Event{Name: "raw/audio/visit.mp3", Op: fsnotify.Remove})).To(BeTrue())
	})

	It("ignores chmod, hidden and swap files", func() {
		Expect(relevant(fsnotify.Event{Name: "raw/text/notes.txt", Op: fsnotify.Chmod})).To(BeFalse())
		Expect(relevant(fsnotify.Event{Name: "raw/text/.DS_Store", Op: fsnotify.Create})).To(BeFalse())
		Expect(relevant(fsnotify.Event{Name: "raw/text/notes.txt~", Op: fsnotify.Write})).To(BeFalse())
		Expect(relevant(fsnotify.Event{Name: "raw/text/.notes.txt.swp", Op: fsnotify.Write})).To(BeFalse())
	})
})

var _ = Describe("watchDirs", func() {
	It("lists the modality subdirectories", func() {
		Expect(watchDirs("raw")).To(Equal([]string{
			filepath.Join("raw", "text"),
			filepath.Join("raw", "images"),
			filepath.Join("raw", "audio"),
		}))
	})
})

var _ = Describe("debounceLoop", func() {
	var (
		events chan fsnotify.Event
		errs   chan error
		runs   atomic.Int32
		ctx    context.Context
		cancel context.CancelFunc
		done   chan error
	)

	start := func(debounce time.Duration) {
		go func() {
			done <- debounceLoop(ctx, events, errs, debounce, func(fsnotify.Event) {}, func() {
				runs.Add(1)
			})
		}()
	}

	BeforeEach(func() {
		events = make(chan fsnotify.Event)
		errs = make(chan error)
		done = make(chan error, 1)
		runs.Store(0)
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
	})

	It("coalesces a burst of changes into one run", func() {
		start(50 * time.Millisecond)
		for range 5 {
			events <- fsnotify.Event{Name: "raw/text/a.txt", Op: fsnotify.Write}
		}

		Eventually(runs.Load).Should(Equal(int32(1)))
		Consistently(runs.Load, 200*time.Millisecond).Should(Equal(int32(1)))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("runs again for changes after a run", func() {
		start(20 * time.Millisecond)
		events <- fsnotify.Event{Name: "raw/text/a.txt", Op: fsnotify.Create}
		Eventually(runs.Load).Should(Equal(int32(1)))

		events <- fsnotify.Event{Name: "raw/text/b.txt", Op: fsnotify.Create}
		Eventually(runs.Load).Should(Equal(int32(2)))
	})

	It("does not run for irrelevant events", func() {
		start(10 * time.Millisecond)
		events <- fsnotify.Event{Name: "raw/text/a.txt", Op: fsnotify.Chmod}
		Consistently(runs.Load, 100*time.Millisecond).Should(BeZero())
	})

	It("returns watcher errors", func() {
		start(time.Second)
		errs <- errors.New("inotify overflow")
		Eventually(done).Should(Receive(MatchError(ContainSubstring("inotify overflow"))))
	})

	It("stops when the event channel closes", func() {
		start(time.Second)
		close(events)
		Eventually(done).Should(Receive(BeNil()))
	})
})
