package ga_test

import (
	"context"
	"errors"
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/signalopt/engine"
	"github.com/tsinghua-fib-lab/signalopt/entity/road"
	"github.com/tsinghua-fib-lab/signalopt/entity/signal"
	"github.com/tsinghua-fib-lab/signalopt/entity/vehicle"
	"github.com/tsinghua-fib-lab/signalopt/ga"
)

// lineFactory 单信控直线道路场景，足以产生合法的适应度信号
func lineFactory(rate float64) ga.Factory {
	return func(config []int, render bool) (*engine.Engine, error) {
		eng := engine.New(0, 42)
		eng.AddRoads([]road.Def{
			{Start: geometry.Point{X: -100, Y: 0}, End: geometry.Point{X: 0, Y: 0}},
			{Start: geometry.Point{X: 0, Y: 0}, End: geometry.Point{X: 100, Y: 0}},
		})
		durations := make([]float64, 0, len(config))
		for _, d := range config {
			durations = append(durations, float64(d))
		}
		if err := eng.AddTrafficSignal([][]int{{0}, {1}}, signal.Cycle{
			Durations: durations,
		}, 120, 0.4, 20); err != nil {
			return nil, err
		}
		if err := eng.AddGenerator(rate, []vehicle.RouteSpec{
			{Weight: 1, Path: []int{0, 1}},
		}); err != nil {
			return nil, err
		}
		return eng, nil
	}
}

func TestCrossoverAt(t *testing.T) {
	p1 := []int{10, 20, 30, 40, 50}
	p2 := []int{11, 22, 33, 44, 55}

	assert.Equal(t, []int{10, 20, 33, 44, 55}, ga.CrossoverAt(p1, p2, 2))
	assert.Equal(t, []int{10, 22, 33, 44, 55}, ga.CrossoverAt(p1, p2, 1))
	assert.Equal(t, []int{10, 20, 30, 40, 55}, ga.CrossoverAt(p1, p2, 4))

	// 长度不一致时复制第一个父代
	child := ga.CrossoverAt(p1, []int{1, 2}, 2)
	assert.Equal(t, p1, child)
	// 返回副本而非别名
	child[0] = 99
	assert.Equal(t, 10, p1[0])

	// 过短的父代同样复制
	assert.Equal(t, []int{7}, ga.CrossoverAt([]int{7}, []int{8}, 0))
}

func TestMutateRateZero(t *testing.T) {
	o := ga.NewOptimizer(4, 2, 5, 42)
	original := []int{10, 20, 30, 40, 50}
	child := o.Mutate(original, 0)
	assert.Equal(t, original, child)
	// 返回副本
	child[0] = 99
	assert.Equal(t, 10, original[0])
}

func TestMutateRateOne(t *testing.T) {
	o := ga.NewOptimizer(4, 2, 5, 42)
	original := []int{5, 50, 90, 5, 90}
	child := o.Mutate(original, 1)
	require.Len(t, child, 5)
	for i, gene := range child {
		// 变异后仍在基因范围内且扰动不超过抖动幅度
		assert.GreaterOrEqual(t, gene, ga.GeneMin)
		assert.LessOrEqual(t, gene, ga.GeneMax)
		assert.LessOrEqual(t, abs(gene-original[i]), 10)
	}
}

func TestEvaluateFitnessFactoryError(t *testing.T) {
	o := ga.NewOptimizer(4, 2, 2, 42)
	factory := func(config []int, render bool) (*engine.Engine, error) {
		return nil, errors.New("bad scenario")
	}
	assert.Equal(t, ga.ErrorFitness, o.EvaluateFitness([]int{10, 10}, factory, 10))
}

func TestEvaluateFitnessPanicRecovered(t *testing.T) {
	o := ga.NewOptimizer(4, 2, 2, 42)
	factory := func(config []int, render bool) (*engine.Engine, error) {
		panic("broken builder")
	}
	assert.Equal(t, ga.ErrorFitness, o.EvaluateFitness([]int{10, 10}, factory, 10))
}

func TestEvaluateFitnessLowTraffic(t *testing.T) {
	o := ga.NewOptimizer(4, 2, 2, 42)
	// 到达率为0，全程不足3辆
	assert.Equal(t, ga.LowTrafficFitness, o.EvaluateFitness([]int{10, 10}, lineFactory(0), 5))
}

func TestEvaluateFitnessDeterministic(t *testing.T) {
	o := ga.NewOptimizer(4, 2, 2, 42)
	candidate := []int{10, 10}
	f1 := o.EvaluateFitness(candidate, lineFactory(60), 30)
	f2 := o.EvaluateFitness(candidate, lineFactory(60), 30)
	assert.Equal(t, f1, f2)
	assert.Greater(t, f1, ga.LowTrafficFitness)
	assert.NotEqual(t, ga.ErrorFitness, f1)
}

func TestRunReturnsValidBest(t *testing.T) {
	o := ga.NewOptimizer(4, 3, 2, 42)
	best, fitness, err := o.Run(context.Background(), lineFactory(60), 20)
	require.NoError(t, err)
	require.Len(t, best, 2)
	for _, gene := range best {
		assert.GreaterOrEqual(t, gene, ga.GeneMin)
		assert.LessOrEqual(t, gene, ga.GeneMax)
	}
	assert.Greater(t, fitness, ga.LowTrafficFitness)

	gotBest, gotFitness := o.Best()
	assert.Equal(t, best, gotBest)
	assert.Equal(t, fitness, gotFitness)
}

func TestRunDeterministic(t *testing.T) {
	run := func() ([]int, float64) {
		o := ga.NewOptimizer(6, 3, 2, 7)
		best, fitness, err := o.Run(context.Background(), lineFactory(60), 20)
		require.NoError(t, err)
		return best, fitness
	}
	b1, f1 := run()
	b2, f2 := run()
	assert.Equal(t, b1, b2)
	assert.Equal(t, f1, f2)
}

func TestRunContextCancel(t *testing.T) {
	o := ga.NewOptimizer(4, 100, 2, 42)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := o.Run(ctx, lineFactory(60), 20)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunProgressCallback(t *testing.T) {
	o := ga.NewOptimizer(4, 3, 2, 42)
	calls := 0
	o.ProgressFunc = func(generation, total int, bestFitness float64) {
		calls++
		assert.Equal(t, 3, total)
		// 回调中的panic不得中断搜索
		panic("listener gone")
	}
	_, _, err := o.Run(context.Background(), lineFactory(60), 20)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
