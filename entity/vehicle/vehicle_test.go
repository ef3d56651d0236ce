package vehicle_test

import (
	"math"
	"testing"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/signalopt/entity"
	"github.com/tsinghua-fib-lab/signalopt/entity/vehicle"
)

func freeDrive(v *vehicle.Vehicle) entity.DriveInput {
	return entity.DriveInput{TargetV: v.MaxV(), AheadV: 0, AheadGap: mathutil.INF}
}

func TestNewVehicle(t *testing.T) {
	v := vehicle.New(7, []int{1, 2, 3})
	assert.Equal(t, 7, v.ID())
	assert.Equal(t, []int{1, 2, 3}, v.Path())
	assert.Equal(t, 0, v.CurrentRoadIndex())
	assert.Equal(t, .0, v.S())
	assert.Equal(t, .0, v.V())
}

func TestNewVehicleEmptyPathPanics(t *testing.T) {
	assert.Panics(t, func() {
		vehicle.New(0, nil)
	})
}

func TestPathImmutable(t *testing.T) {
	path := []int{1, 2, 3}
	v := vehicle.New(0, path)
	path[0] = 99
	assert.Equal(t, []int{1, 2, 3}, v.Path())
}

func TestRoadCursor(t *testing.T) {
	v := vehicle.New(0, []int{5, 8, 2})

	next, ok := v.NextRoadID()
	assert.True(t, ok)
	assert.Equal(t, 8, next)

	v.AdvanceRoad()
	v.AdvanceRoad()
	assert.Equal(t, 2, v.CurrentRoadIndex())
	_, ok = v.NextRoadID()
	assert.False(t, ok)
	assert.Panics(t, func() { v.AdvanceRoad() })
}

func TestDriveAccelerates(t *testing.T) {
	v := vehicle.New(0, []int{0})

	// 空旷道路上从静止加速，速度趋向最大速度
	for i := 0; i < 60*60; i++ {
		v.Drive(1.0/60, float64(i)/60, freeDrive(v))
	}
	assert.Greater(t, v.V(), 0.9*v.MaxV())
	assert.Less(t, v.V(), v.MaxV()+1e-9)
	assert.Greater(t, v.S(), .0)
}

func TestDriveBrakesOnZeroGap(t *testing.T) {
	v := vehicle.New(0, []int{0})
	// 先加速
	for i := 0; i < 60*10; i++ {
		v.Drive(1.0/60, float64(i)/60, freeDrive(v))
	}
	sBefore := v.S()

	// 净距耗尽后紧急制动直至停驶
	in := entity.DriveInput{TargetV: v.MaxV(), AheadV: 0, AheadGap: 0}
	for i := 0; i < 60*10; i++ {
		v.Drive(1.0/60, 10+float64(i)/60, in)
	}
	assert.Equal(t, .0, v.V())
	// 制动期间继续前滑但不倒车
	assert.GreaterOrEqual(t, v.S(), sBefore)
}

func TestDriveNeverReverses(t *testing.T) {
	v := vehicle.New(0, []int{0})
	in := entity.DriveInput{TargetV: v.MaxV(), AheadV: 0, AheadGap: 0}
	v.Drive(1.0/60, 0, in)
	assert.Equal(t, .0, v.V())
	assert.Equal(t, .0, v.S())
}

func TestWaitTimeTracksStandstill(t *testing.T) {
	v := vehicle.New(0, []int{0})
	blocked := entity.DriveInput{TargetV: v.MaxV(), AheadV: 0, AheadGap: 0}

	// 0~2秒停驶
	v.Drive(1, 0, blocked)
	v.Drive(1, 1, blocked)
	v.Drive(1, 2, blocked)
	// 进行中的停驶区间计入查询结果
	assert.InDelta(t, 4.0, v.WaitTime(4), 1e-12)

	// 恢复行驶后结算停驶区间
	for i := 0; i < 60; i++ {
		v.Drive(1.0/60, 3+float64(i)/60, freeDrive(v))
	}
	wait := v.WaitTime(10)
	assert.Greater(t, wait, 3.0)
	// 行驶中不再累计
	assert.Equal(t, wait, v.WaitTime(100))
}

func TestDriveApproachEquilibriumGap(t *testing.T) {
	v := vehicle.New(0, []int{0})

	// 前车静止，跟驰收敛后净距严格为正
	for i := 0; i < 60*120; i++ {
		gap := 50 - v.S()
		v.Drive(1.0/60, float64(i)/60, entity.DriveInput{TargetV: v.MaxV(), AheadV: 0, AheadGap: gap})
	}
	assert.Less(t, v.S(), 50.0)
	assert.Less(t, v.V(), 0.1)
	assert.False(t, math.IsNaN(v.S()))
}
