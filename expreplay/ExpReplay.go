// Package expreplay implements experience replay buffers. Storing past
// transitions and sampling them uniformly, rather than learning only
// from the most recent transition, decorrelates the updates made to a
// learner.
package expreplay

import (
	"fmt"
	"math/rand"

	"github.com/gammazero/deque"

	"github.com/adrlab/adplace/timestep"
)

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add stores a transition in the buffer, evicting the oldest
	// stored transition if the buffer is full
	Add(timestep.Transition)

	// Sample draws a batch of stored transitions uniformly at random
	// without replacement
	Sample() ([]timestep.Transition, error)

	// Capacity returns the current number of transitions in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable transitions in the
	// buffer
	MaxCapacity() int

	// MinCapacity returns the number of transitions required in the
	// buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of transitions returned by Sample
	BatchSize() int
}

// Config is a configuration of an experience replay buffer
type Config struct {
	BatchSize   int
	MinCapacity int
	MaxCapacity int
}

// Create creates the ExperienceReplayer described by the Config
func (c Config) Create(seed int64) (ExperienceReplayer, error) {
	return New(c.MinCapacity, c.MaxCapacity, c.BatchSize, seed)
}

// fifoBuffer is an ExperienceReplayer with first-in-first-out eviction
// and uniform sampling. Transitions are held in a ring deque in
// insertion order, so the buffer always contains the most recent
// MaxCapacity transitions.
type fifoBuffer struct {
	buffer *deque.Deque[timestep.Transition]

	rng *rand.Rand

	minCapacity int
	maxCapacity int
	batchSize   int
}

// New creates and returns a new ExperienceReplayer with FiFo eviction
// and uniform sampling. Sampling is disallowed until minCapacity
// transitions are buffered; minCapacity may not be smaller than the
// batch size.
func New(minCapacity, maxCapacity, batchSize int,
	seed int64) (ExperienceReplayer, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("new: batch size must be > 0 \n\thave(%v)",
			batchSize)
	}
	if minCapacity < batchSize {
		return nil, fmt.Errorf("new: cannot have minCapacity(%v) < batch "+
			"size (%v)", minCapacity, batchSize)
	}
	if maxCapacity < minCapacity {
		return nil, fmt.Errorf("new: cannot have maxCapacity(%v) < "+
			"minCapacity (%v)", maxCapacity, minCapacity)
	}

	return &fifoBuffer{
		buffer:      deque.New[timestep.Transition](maxCapacity),
		rng:         rand.New(rand.NewSource(seed)),
		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		batchSize:   batchSize,
	}, nil
}

// Add stores a transition, evicting the oldest stored transition once
// the buffer is full
func (f *fifoBuffer) Add(t timestep.Transition) {
	if f.buffer.Len() >= f.maxCapacity {
		f.buffer.PopFront()
	}
	f.buffer.PushBack(t)
}

// Sample draws BatchSize transitions uniformly at random without
// replacement
func (f *fifoBuffer) Sample() ([]timestep.Transition, error) {
	if f.buffer.Len() == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyBuffer}
	}
	if f.buffer.Len() < f.minCapacity {
		return nil, &ExpReplayError{Op: "sample",
			Err: errInsufficientSamples}
	}

	batch := make([]timestep.Transition, f.batchSize)
	for i, index := range f.rng.Perm(f.buffer.Len())[:f.batchSize] {
		batch[i] = f.buffer.At(index)
	}
	return batch, nil
}

// Capacity returns the current number of transitions in the buffer
func (f *fifoBuffer) Capacity() int {
	return f.buffer.Len()
}

// MaxCapacity returns the maximum number of transitions that are
// allowed in the buffer
func (f *fifoBuffer) MaxCapacity() int {
	return f.maxCapacity
}

// MinCapacity returns the minimum number of transitions required in
// the buffer before sampling is allowed
func (f *fifoBuffer) MinCapacity() int {
	return f.minCapacity
}

// BatchSize returns the number of transitions sampled using Sample
func (f *fifoBuffer) BatchSize() int {
	return f.batchSize
}
