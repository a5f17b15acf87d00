package video

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Frame is an extracted still and the time it was taken at.
type Frame struct {
	Index int
	At    float64
	Path  string
}

// ExtractFrames extracts one frame per timestamp with at most concurrency
// extractions in flight. If concurrency is 0 or negative, it defaults to 4.
// The first failure stops scheduling and is returned; frames are ordered by
// index.
func ExtractFrames(
	ctx context.Context,
	r Renderer,
	videoPath string,
	times []float64,
	concurrency int,
) ([]Frame, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	var (
		mu       sync.Mutex
		frames   []Frame
		firstErr error
		wg       sync.WaitGroup
	)

	sem := make(chan struct{}, concurrency)

	for i, at := range times {
		if ctx.Err() != nil {
			break
		}

		mu.Lock()
		hasErr := firstErr != nil
		mu.Unlock()
		if hasErr {
			break
		}

		wg.Add(1)
		go func(index int, at float64) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			path, err := r.ExtractFrame(ctx, videoPath, at)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to extract frame %d: %w", index, err)
				}
				return
			}
			frames = append(frames, Frame{Index: index, At: at, Path: path})
		}(i, at)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].Index < frames[j].Index
	})

	return frames, nil
}

// MidpointTimes returns the frame time of every cue.
func MidpointTimes(cues []Cue) []float64 {
	times := make([]float64, len(cues))
	for i, c := range cues {
		times[i] = Midpoint(c.StartTime, c.EndTime)
	}
	return times
}
