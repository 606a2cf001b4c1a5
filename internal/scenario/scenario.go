// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scenario drives a gpucache.Context through frame sequences that
// stress its budget, and reports the resulting cache churn.
//
// Each frame draws a list of images: every image is acquired from the cache
// and stays locked until the frame ends, as a texture referenced by pending
// draw commands would. The frame then ends with a flush.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/gogpu/gpucache"
)

// Defaults used by the flip-flop and shuffle scenarios.
const (
	DefaultImageSize = 64
	DefaultCellSize  = 8
)

// ErrInvalidScenario is returned for scenarios with impossible parameters.
var ErrInvalidScenario = errors.New("scenario: invalid parameters")

// Report summarizes a scenario run.
type Report struct {
	Name   string
	Budget int

	// Misses holds the cache misses of each frame.
	Misses []int

	// Resident holds the budgeted resource count at the end of each frame,
	// before its flush.
	Resident []int

	// AfterFlush holds the budgeted resource count after each flush.
	AfterFlush []int

	// Final is the cache state after the last flush.
	Final gpucache.Stats
}

// Frames returns the number of frames run.
func (r Report) Frames() int { return len(r.Misses) }

// TotalMisses returns the sum of misses over all frames.
func (r Report) TotalMisses() int {
	var n int
	for _, m := range r.Misses {
		n += m
	}
	return n
}

// MaxResident returns the largest resident count seen during a frame.
func (r Report) MaxResident() int {
	var n int
	for _, c := range r.Resident {
		n = max(n, c)
	}
	return n
}

// MaxAfterFlush returns the largest resident count seen after a flush.
func (r Report) MaxAfterFlush() int {
	var n int
	for _, c := range r.AfterFlush {
		n = max(n, c)
	}
	return n
}

// SteadyMisses returns the misses per period in the last window frames,
// and whether every period in the window had the same count.
func (r Report) SteadyMisses(period, window int) (int, bool) {
	if period <= 0 || window < period || window > len(r.Misses) {
		return 0, false
	}
	tail := r.Misses[len(r.Misses)-window:]
	sum := func(s []int) int {
		var n int
		for _, v := range s {
			n += v
		}
		return n
	}
	want := sum(tail[:period])
	for i := period; i+period <= len(tail); i += period {
		if sum(tail[i:i+period]) != want {
			return want, false
		}
	}
	return want, true
}

// String returns a one-line summary.
func (r Report) String() string {
	return fmt.Sprintf("%s: budget=%d frames=%d misses=%d maxResident=%d maxAfterFlush=%d",
		r.Name, r.Budget, r.Frames(), r.TotalMisses(), r.MaxResident(), r.MaxAfterFlush())
}

// frameRunner draws frames and collects the report.
type frameRunner struct {
	ctx    *gpucache.Context
	src    ImageSource
	report Report
}

func (fr *frameRunner) frame(images []Image) error {
	cache := fr.ctx.Cache()
	before := cache.Stats().Misses

	handles := make([]*gpucache.Handle, 0, len(images))
	defer func() {
		for _, h := range handles {
			h.Release()
		}
	}()
	for _, img := range images {
		h, err := fr.ctx.Acquire(img.Key(), fr.src.ImageBytes(img), fr.src.ImageFactory(img))
		if err != nil {
			return fmt.Errorf("scenario: draw image %d: %w", img.ID, err)
		}
		handles = append(handles, h)
	}

	count, _ := fr.ctx.ResourceCacheUsage()
	fr.report.Resident = append(fr.report.Resident, count)

	for _, h := range handles {
		h.Release()
	}
	handles = handles[:0]

	info := fr.ctx.Flush()
	fr.report.Misses = append(fr.report.Misses, int(info.Stats.Misses-before))
	fr.report.AfterFlush = append(fr.report.AfterFlush, info.Stats.BudgetedCount)
	fr.report.Final = info.Stats
	return nil
}

func makeImages(n int, size uint32) []Image {
	images := make([]Image, n)
	for i := range images {
		images[i] = Image{ID: uint32(i), Size: size, CellSize: DefaultCellSize}
	}
	return images
}

// ReserveHeadroom sizes the budget of ctx so that it can hold about n more
// resources besides the ones the pipeline keeps resident anyway.
//
// It flushes and purges everything unlocked, draws probe once to measure
// the baseline resource count, and sets the count budget to baseline + n
// with unlimited bytes. It returns the new count budget.
func ReserveHeadroom(ctx *gpucache.Context, n int, probe Image, src ImageSource) (int, error) {
	ctx.Flush()
	ctx.PurgeUnlockedResources(gpucache.PurgeAll)

	h, err := ctx.Acquire(probe.Key(), src.ImageBytes(probe), src.ImageFactory(probe))
	if err != nil {
		return 0, fmt.Errorf("scenario: probe: %w", err)
	}
	h.Release()
	ctx.Flush()

	count, _ := ctx.ResourceCacheUsage()
	baseline := max(count-1, 0) // the probe itself
	budget := baseline + n
	ctx.SetResourceCacheLimits(budget, math.MaxUint64)
	return budget, nil
}

// FlipFlop alternates between drawing Min and Max images per frame with a
// budget of Budget images. Images are drawn in id order; the Min images
// are a prefix of the Max images.
type FlipFlop struct {
	Budget    int
	Min       int
	Max       int
	Frames    int
	ImageSize uint32
}

// DefaultFlipFlop is the oscillating working set of 15 and 35 images
// around a budget of 25.
func DefaultFlipFlop() FlipFlop {
	return FlipFlop{Budget: 25, Min: 15, Max: 35, Frames: 80, ImageSize: DefaultImageSize}
}

// Run executes the scenario on ctx, starting with a Min frame.
func (f FlipFlop) Run(ctx *gpucache.Context, src ImageSource) (Report, error) {
	if f.Min < 0 || f.Max < f.Min || f.Max == 0 || f.Frames <= 0 || f.Budget < 0 || f.ImageSize == 0 {
		return Report{}, fmt.Errorf("%w: %+v", ErrInvalidScenario, f)
	}
	images := makeImages(f.Max, f.ImageSize)

	budget, err := ReserveHeadroom(ctx, f.Budget, images[0], src)
	if err != nil {
		return Report{}, err
	}
	// Start the measured run from an empty cache.
	ctx.PurgeUnlockedResources(gpucache.PurgeAll)

	fr := &frameRunner{ctx: ctx, src: src, report: Report{Name: "flipflop", Budget: budget}}
	for i := range f.Frames {
		n := f.Min
		if i%2 == 1 {
			n = f.Max
		}
		if err := fr.frame(images[:n]); err != nil {
			return fr.report, err
		}
	}
	return fr.report, nil
}

// Shuffle draws the same Images images every frame with a budget of
// Budget images. With Shuffled set the draw order of each frame is a
// permutation drawn from a generator seeded with Seed.
type Shuffle struct {
	Images    int
	Frames    int
	Budget    int
	Seed      int64
	Shuffled  bool
	ImageSize uint32
}

// DefaultShuffle draws 100 images per frame with room for 50.
func DefaultShuffle() Shuffle {
	return Shuffle{Images: 100, Frames: 20, Budget: 50, Seed: 1, Shuffled: true, ImageSize: DefaultImageSize}
}

// Run executes the scenario on ctx.
func (s Shuffle) Run(ctx *gpucache.Context, src ImageSource) (Report, error) {
	if s.Images <= 0 || s.Frames <= 0 || s.Budget < 0 || s.ImageSize == 0 {
		return Report{}, fmt.Errorf("%w: %+v", ErrInvalidScenario, s)
	}
	images := makeImages(s.Images, s.ImageSize)

	budget, err := ReserveHeadroom(ctx, s.Budget, images[0], src)
	if err != nil {
		return Report{}, err
	}
	ctx.PurgeUnlockedResources(gpucache.PurgeAll)

	name := "ordered"
	if s.Shuffled {
		name = "shuffled"
	}
	fr := &frameRunner{ctx: ctx, src: src, report: Report{Name: name, Budget: budget}}
	rng := rand.New(rand.NewSource(s.Seed))
	order := make([]Image, len(images))
	for range s.Frames {
		copy(order, images)
		if s.Shuffled {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		if err := fr.frame(order); err != nil {
			return fr.report, err
		}
	}
	return fr.report, nil
}
