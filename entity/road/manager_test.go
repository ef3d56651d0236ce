package road_test

import (
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/signalopt/entity"
	"github.com/tsinghua-fib-lab/signalopt/entity/road"
	"github.com/tsinghua-fib-lab/signalopt/entity/vehicle"
)

// newTestManager 三条道路：0(西进)、1(北进)、2(东出)，0与1在原点交汇
func newTestManager(t *testing.T) *road.Manager {
	m := road.NewManager()
	m.AddRoads([]road.Def{
		{Start: geometry.Point{X: -100, Y: 0}, End: geometry.Point{X: 0, Y: 0}},
		{Start: geometry.Point{X: 0, Y: -100}, End: geometry.Point{X: 0, Y: 0}},
		{Start: geometry.Point{X: 0, Y: 0}, End: geometry.Point{X: 100, Y: 0}},
	})
	require.Equal(t, 3, m.Count())
	return m
}

func TestAddRoads(t *testing.T) {
	m := newTestManager(t)
	r := m.Get(0)
	assert.Equal(t, 0, r.ID())
	assert.Equal(t, 100.0, r.Length())
	assert.True(t, r.IsEmpty())

	_, err := m.GetOrError(3)
	assert.Error(t, err)
	_, err = m.GetOrError(-1)
	assert.Error(t, err)
}

func TestAddIntersectionsValidation(t *testing.T) {
	m := newTestManager(t)
	assert.Error(t, m.AddIntersections(map[int][]int{0: {99}}))
	assert.Error(t, m.AddIntersections(map[int][]int{99: {0}}))
	assert.NoError(t, m.AddIntersections(map[int][]int{0: {1}}))
}

func TestIntersectionsSymmetrized(t *testing.T) {
	m := newTestManager(t)
	// 只登记0→1的单向冲突
	require.NoError(t, m.AddIntersections(map[int][]int{0: {1}}))

	m.Get(0).Enter(vehicle.New(0, []int{0}))
	m.MarkNonEmpty(0)
	m.Get(1).Enter(vehicle.New(1, []int{1}))
	m.MarkNonEmpty(1)

	active := m.ActiveConflicts()
	assert.Equal(t, map[int][]int{0: {1}, 1: {0}}, active)
}

func TestActiveConflictsOnlyNonEmpty(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AddIntersections(map[int][]int{0: {1}, 1: {0}}))

	assert.Empty(t, m.ActiveConflicts())

	// 只有一侧非空时没有活跃冲突对
	m.Get(0).Enter(vehicle.New(0, []int{0}))
	m.MarkNonEmpty(0)
	assert.Empty(t, m.ActiveConflicts())

	m.Get(1).Enter(vehicle.New(1, []int{1}))
	m.MarkNonEmpty(1)
	assert.Len(t, m.ActiveConflicts(), 2)
}

func TestDetectCollisions(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AddIntersections(map[int][]int{0: {1}}))

	// 两辆车都接近各自道路末端（即交汇点）
	v0 := vehicle.New(0, []int{0})
	m.Get(0).Enter(v0)
	m.MarkNonEmpty(0)
	v1 := vehicle.New(1, []int{1})
	m.Get(1).Enter(v1)
	m.MarkNonEmpty(1)

	// 起点相距过远，不判碰撞
	m.DetectCollisions()
	assert.False(t, m.CollisionDetected())

	v0.SetXY(geometry.Point{X: -1, Y: 0})
	v1.SetXY(geometry.Point{X: 0, Y: -1})
	m.DetectCollisions()
	assert.True(t, m.CollisionDetected())

	// 标志不可逆
	v0.SetXY(geometry.Point{X: -100, Y: 0})
	m.DetectCollisions()
	assert.True(t, m.CollisionDetected())
}

func TestCollisionRadiusBoundary(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AddIntersections(map[int][]int{0: {1}}))

	v0 := vehicle.New(0, []int{0})
	m.Get(0).Enter(v0)
	m.MarkNonEmpty(0)
	v1 := vehicle.New(1, []int{1})
	m.Get(1).Enter(v1)
	m.MarkNonEmpty(1)

	// 恰好等于碰撞半径时不判碰撞（严格小于）
	v0.SetXY(geometry.Point{X: 0, Y: 0})
	v1.SetXY(geometry.Point{X: road.CollisionRadius, Y: 0})
	m.DetectCollisions()
	assert.False(t, m.CollisionDetected())

	v1.SetXY(geometry.Point{X: road.CollisionRadius - 1e-9, Y: 0})
	m.DetectCollisions()
	assert.True(t, m.CollisionDetected())
}

func TestSameRoadNoCollision(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AddIntersections(map[int][]int{0: {1}}))

	// 同一道路上的重叠车辆不触发碰撞检测
	v0 := vehicle.New(0, []int{0})
	v1 := vehicle.New(1, []int{0})
	m.Get(0).Enter(v0)
	m.Get(0).Enter(v1)
	m.MarkNonEmpty(0)
	m.DetectCollisions()
	assert.False(t, m.CollisionDetected())
}

func TestProcessTransfers(t *testing.T) {
	m := newTestManager(t)

	// 车辆沿0→2行驶，抵达0末端后转移到2
	v := vehicle.New(0, []int{0, 2})
	m.Get(0).Enter(v)
	m.MarkNonEmpty(0)

	completed, _ := m.ProcessTransfers(1)
	assert.Equal(t, 0, completed)
	assert.Equal(t, []int{0}, m.NonEmptyIDs())

	v.SetS(100)
	completed, _ = m.ProcessTransfers(2)
	assert.Equal(t, 0, completed)
	assert.Equal(t, []int{2}, m.NonEmptyIDs())
	assert.Equal(t, 1, v.CurrentRoadIndex())
	assert.Equal(t, .0, v.S())
	assert.True(t, m.Get(0).IsEmpty())
	assert.Equal(t, 1, m.Get(2).VehicleCount())

	// 抵达路径末端后完成行程
	v.SetS(100)
	completed, _ = m.ProcessTransfers(3)
	assert.Equal(t, 1, completed)
	assert.Empty(t, m.NonEmptyIDs())
	assert.True(t, m.Get(2).IsEmpty())
}

func TestProcessTransfersOneFrontPerTick(t *testing.T) {
	m := newTestManager(t)

	v0 := vehicle.New(0, []int{0, 2})
	v1 := vehicle.New(1, []int{0, 2})
	m.Get(0).Enter(v0)
	m.Get(0).Enter(v1)
	m.MarkNonEmpty(0)
	v0.SetS(100)
	v1.SetS(100)

	// 每条道路每步只转移一辆头车
	completed, _ := m.ProcessTransfers(1)
	assert.Equal(t, 0, completed)
	assert.Equal(t, 1, m.Get(0).VehicleCount())
	assert.Equal(t, 1, m.Get(2).VehicleCount())

	m.ProcessTransfers(2)
	assert.Equal(t, 0, m.Get(0).VehicleCount())
	assert.Equal(t, 2, m.Get(2).VehicleCount())
}

func TestSumWaitTimes(t *testing.T) {
	m := newTestManager(t)
	v := vehicle.New(0, []int{0})
	m.Get(0).Enter(v)
	m.MarkNonEmpty(0)

	// 生成即停驶，等待时间从首次Drive开始累计
	blocked := entity.DriveInput{TargetV: v.MaxV(), AheadV: 0, AheadGap: 0}
	v.Drive(1, .0, blocked)
	v.Drive(1, 1.0, blocked)
	assert.InDelta(t, 5.0, m.SumWaitTimes(5), 1e-12)
}
