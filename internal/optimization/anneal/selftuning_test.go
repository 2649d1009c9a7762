package anneal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfTuningLamSampleSize(t *testing.T) {
	s := NewSelfTuningLam()

	s.Init(100)
	assert.Equal(t, 10, s.sampleSize, "floor of 10 for short runs")

	s.Init(5000)
	assert.Equal(t, 50, s.sampleSize, "1% of the planned run")
}

func TestSelfTuningLamAcceptsEverythingWhileTuning(t *testing.T) {
	s := NewSelfTuningLam()
	s.Init(100)

	require.True(t, s.Tuning())
	for i := 0; i < 9; i++ {
		assert.True(t, s.Decide(1e9, 0), "worsening move %d during tuning", i)
		assert.True(t, s.Tuning())
	}
	assert.True(t, s.Decide(math.Inf(1), 0), "even infinite cost is accepted while tuning")
	assert.False(t, s.Tuning(), "tuning ends after the sample is full")
}

func TestSelfTuningLamEstimatesTemperature(t *testing.T) {
	s := NewSelfTuningLam()
	s.Init(100)

	// Two improving and eight worsening samples with mean worsening delta 2.
	for i := 0; i < 2; i++ {
		s.Decide(-1, 0)
	}
	for i := 0; i < 8; i++ {
		s.Decide(2, 0)
	}
	require.False(t, s.Tuning())

	// Solve q + (1-q)*exp(-mean/T) = target with q = 0.2, mean = 2.
	target := lamTarget(10, 100, 15, 65)
	share := (target - 0.2) / 0.8
	want := -2.0 / math.Log(share)

	assert.InDelta(t, want, s.Temperature(), 1e-12)
	assert.InDelta(t, target, s.TargetRate(), 1e-12)
	assert.InDelta(t, target, s.AcceptRate(), 1e-12,
		"controller starts in equilibrium with the target")
}

func TestSelfTuningLamAllImprovingFallsBack(t *testing.T) {
	s := NewSelfTuningLam()
	s.Init(100)

	for i := 0; i < 10; i++ {
		s.Decide(-1, 0)
	}
	require.False(t, s.Tuning())
	assert.Equal(t, MinTemperature, s.Temperature(),
		"no worsening samples give no uphill scale; stay at the floor")
}

func TestSelfTuningLamTargetAlreadyMet(t *testing.T) {
	s := NewSelfTuningLam()
	s.Init(10000)

	// sampleSize is 100, so tuning ends deep enough into phase 1 that the
	// target is below the improving share of 90%.
	for i := 0; i < 90; i++ {
		s.Decide(-1, 0)
	}
	for i := 0; i < 10; i++ {
		s.Decide(5, 0)
	}
	require.False(t, s.Tuning())
	assert.Equal(t, MinTemperature, s.Temperature(),
		"improving moves alone already exceed the target rate")
}

func TestSelfTuningLamBehavesLikeControllerAfterTuning(t *testing.T) {
	s := NewSelfTuningLam()
	s.Init(1000)

	for i := 0; i < 10; i++ {
		s.Decide(2, 0)
	}
	require.False(t, s.Tuning())

	temp := s.Temperature()
	reject(s, 200)
	assert.Greater(t, s.Temperature(), temp,
		"sustained rejection must heat the controller up")
}

func TestSelfTuningLamInitRestartsTuning(t *testing.T) {
	s := NewSelfTuningLam()
	s.Init(100)
	for i := 0; i < 10; i++ {
		s.Decide(2, 0)
	}
	require.False(t, s.Tuning())

	s.Init(100)
	assert.True(t, s.Tuning())
	assert.Equal(t, lamInitialTemperature, s.Temperature())
}

func TestSelfTuningLamSplitIsFresh(t *testing.T) {
	s := NewSelfTuningLam()
	s.Init(100)
	for i := 0; i < 10; i++ {
		s.Decide(2, 0)
	}

	split, ok := s.Split().(*SelfTuningLam)
	require.True(t, ok)
	assert.True(t, split.Tuning())
	assert.Equal(t, 100, split.runLength)
}
