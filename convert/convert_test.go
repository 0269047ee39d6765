package convert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jsphweid/midicompare/audio"
	"github.com/jsphweid/midicompare/midi"
	"github.com/jsphweid/midicompare/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConverter(t *testing.T, size int) *Converter {
	t.Helper()
	cache, err := NewLRUCache(size)
	require.NoError(t, err)
	rnd := util.NewLockedRand(3)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewConverter(cache, midi.NewEncoder(rnd), rnd, logger)
}

func loud(n int) audio.Samples {
	data := make([]float64, n)
	for i := range data {
		data[i] = 0.5
	}
	return audio.Samples{Data: data, SampleRate: 8000}
}

func request(name string) Request {
	return Request{Fingerprint: Fingerprint{Name: name, Size: 10, ModTime: time.UnixMilli(1000)}}
}

func TestConvertDecodedAudio(t *testing.T) {
	c := newConverter(t, 4)
	c.decode = func([]byte) (audio.Samples, error) { return loud(8000 * 2), nil }

	var seen []Stage
	req := request("song.wav")
	req.OnProgress = func(p Progress) { seen = append(seen, p.Stage) }
	res, err := c.Convert(context.Background(), req)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("song_converted.mid", res.Filename)
	assert.False(res.Fallback)
	assert.False(res.Cached)
	assert.Equal(8, res.Document.NumNotes())
	// eight phrase notes outlast the two seconds of audio
	assert.Equal(7.5, res.Document.Duration)
	assert.Equal([]Stage{Uploading, Processing, Transcribing, Generating, Complete}, seen)
	assert.GreaterOrEqual(res.Confidence, 0.85)
	assert.Less(res.Confidence, 0.95)
	for _, n := range res.Document.Flatten() {
		assert.Equal(66, n.Pitch)
	}
}

func TestConvertFallsBackOnDecodeFailure(t *testing.T) {
	c := newConverter(t, 4)
	res, err := c.Convert(context.Background(), Request{
		Fingerprint: Fingerprint{Name: "broken.wav", Size: 3},
		Data:        []byte{1, 2, 3},
	})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.True(res.Fallback)
	assert.Equal("broken_fallback.mid", res.Filename)
	assert.Equal(8, res.Document.NumNotes())
	assert.Equal(7.5, res.Document.Duration)
	assert.Equal(60, res.Document.Flatten()[0].Pitch)
	assert.Equal([]byte("MThd"), res.Midi[:4])
}

func TestFallbackIsReproducibleWithSeed(t *testing.T) {
	a, err := newConverter(t, 4).Convert(context.Background(), request("x.wav"))
	require.NoError(t, err)
	b, err := newConverter(t, 4).Convert(context.Background(), request("x.wav"))
	require.NoError(t, err)
	assert.Equal(t, a.Midi, b.Midi)
	assert.Equal(t, a.Confidence, b.Confidence)
}

func TestConvertUsesCache(t *testing.T) {
	c := newConverter(t, 4)
	var calls int32
	c.decode = func([]byte) (audio.Samples, error) {
		atomic.AddInt32(&calls, 1)
		return loud(4096), nil
	}

	first, err := c.Convert(context.Background(), request("a.wav"))
	require.NoError(t, err)
	second, err := c.Convert(context.Background(), request("a.wav"))
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(int32(1), calls)
	assert.True(second.Cached)
	assert.Equal(first.Midi, second.Midi)

	// a different modification time is a different file
	other := request("a.wav")
	other.Fingerprint.ModTime = time.UnixMilli(2000)
	_, err = c.Convert(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(int32(2), calls)
}

func TestCachedResultIsNotSharedWithCallers(t *testing.T) {
	c := newConverter(t, 4)
	c.decode = func([]byte) (audio.Samples, error) { return loud(4096), nil }

	first, err := c.Convert(context.Background(), request("a.wav"))
	require.NoError(t, err)
	want := append([]byte(nil), first.Midi...)
	pitch := first.Document.Tracks[0].Notes[0].Pitch

	first.Midi[0] = 'X'
	first.Document.Tracks[0].Notes[0].Pitch = 0

	second, err := c.Convert(context.Background(), request("a.wav"))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, want, second.Midi)
	assert.Equal(t, pitch, second.Document.Tracks[0].Notes[0].Pitch)
}

func TestConcurrentRequestsShareOneConversion(t *testing.T) {
	c := newConverter(t, 4)
	var calls int32
	release := make(chan struct{})
	c.decode = func([]byte) (audio.Samples, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return loud(4096), nil
	}

	var wg sync.WaitGroup
	results := make([]Result, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Convert(context.Background(), request("same.wav"))
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Midi, results[i].Midi)
	}
}

func TestCancelledBeforeStart(t *testing.T) {
	c := newConverter(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Convert(ctx, request("a.wav"))
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, c.cache.Len())
}

func TestCancelledMidwayIsNotCached(t *testing.T) {
	c := newConverter(t, 4)
	var calls int32
	c.decode = func([]byte) (audio.Samples, error) {
		atomic.AddInt32(&calls, 1)
		return loud(4096), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := request("a.wav")
	req.OnProgress = func(p Progress) {
		if p.Stage == Transcribing {
			cancel()
		}
	}
	_, err := c.Convert(ctx, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.Equal(t, 0, c.cache.Len())

	res, err := c.Convert(context.Background(), request("a.wav"))
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, int32(2), calls)
}

func TestFollowerSurvivesCancelledLeader(t *testing.T) {
	c := newConverter(t, 4)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	c.decode = func([]byte) (audio.Samples, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
		}
		return loud(4096), nil
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Convert(leaderCtx, request("a.wav"))
		leaderErr <- err
	}()
	<-started

	followerRes := make(chan Result, 1)
	go func() {
		res, err := c.Convert(context.Background(), request("a.wav"))
		assert.NoError(t, err)
		followerRes <- res
	}()
	time.Sleep(20 * time.Millisecond)
	cancelLeader()
	close(release)

	assert.ErrorIs(t, <-leaderErr, ErrCancelled)
	res := <-followerRes
	assert.Equal(t, []byte("MThd"), res.Midi[:4])
	assert.False(t, res.Cached)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, c.cache.Len())
}

func TestLRUEvictsOldest(t *testing.T) {
	c := newConverter(t, 1)
	var calls int32
	c.decode = func([]byte) (audio.Samples, error) {
		atomic.AddInt32(&calls, 1)
		return loud(4096), nil
	}
	for _, name := range []string{"a.wav", "b.wav", "a.wav"} {
		_, err := c.Convert(context.Background(), request(name))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls)
	assert.Equal(t, 1, c.cache.Len())
}

func TestNewLRUCacheRejectsZeroSize(t *testing.T) {
	_, err := NewLRUCache(0)
	assert.Error(t, err)
}
