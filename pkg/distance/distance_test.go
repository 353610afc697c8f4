package distance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_EmptyUntilFirstStore(t *testing.T) {
	c := NewCell()
	_, ok := c.Load()
	assert.False(t, ok)
}

func TestCell_OverwriteKeepsLatest(t *testing.T) {
	c := NewCell()
	t0 := time.Unix(1000, 0)

	c.Store(10, t0)
	c.Store(20, t0.Add(time.Millisecond))

	s, ok := c.Load()
	require.True(t, ok)
	assert.Equal(t, 20.0, s.Value)
	assert.Equal(t, t0.Add(time.Millisecond), s.At)
}

func TestCell_ConcurrentReadersSeeSomeValidValue(t *testing.T) {
	c := NewCell()
	c.Store(1, time.Now())

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				c.Store(float64(i), time.Now())
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s, ok := c.Load()
				if !ok || s.Value < 0 {
					t.Error("reader saw an invalid sample")
					return
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	close(stop)
	wg.Wait()
}

func TestSample_Sentinels(t *testing.T) {
	assert.True(t, Sample{Value: 42}.Valid())
	assert.True(t, Sample{Value: 0}.Valid())
	assert.False(t, Sample{Value: NoEcho}.Valid())
	assert.False(t, Sample{Value: TooClose}.Valid())
}

func TestPoller_PublishesReadingsAndSentinels(t *testing.T) {
	cell := NewCell()
	ranger := NewSimRanger(55)
	ranger.Fail(ErrNoEcho, ErrTooClose)
	p := NewPoller(ranger, cell, time.Millisecond)

	// First poll: no echo -> NoEcho sentinel.
	require.NoError(t, p.poll(context.Background()))
	s, ok := cell.Load()
	require.True(t, ok)
	assert.Equal(t, NoEcho, s.Value)

	// Second poll: too close -> TooClose sentinel.
	require.NoError(t, p.poll(context.Background()))
	s, _ = cell.Load()
	assert.Equal(t, TooClose, s.Value)

	// Third poll: real reading.
	require.NoError(t, p.poll(context.Background()))
	s, _ = cell.Load()
	assert.Equal(t, 55.0, s.Value)
}

func TestPoller_FailsFastOnStructuralFault(t *testing.T) {
	cell := NewCell()
	ranger := NewSimRanger(55)
	boom := errors.New("adc returned garbage")
	ranger.Fail(boom)
	p := NewPoller(ranger, cell, time.Millisecond)

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, boom)

	// Nothing was published for the failed read.
	_, ok := cell.Load()
	assert.False(t, ok)
}

func TestPoller_StopsOnCancel(t *testing.T) {
	cell := NewCell()
	p := NewPoller(NewSimRanger(10), cell, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean exit")
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}

	s, ok := cell.Load()
	require.True(t, ok)
	assert.Equal(t, 10.0, s.Value)
}
