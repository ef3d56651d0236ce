package road

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalopt/entity"
	"github.com/tsinghua-fib-lab/signalopt/utils/container"
)

// Road 道路实体
// 功能：表示路网中的一条有向道路，持有按行驶距离排序的车辆队列
// 说明：队尾（Last）为最接近出口的车辆，只有它可以驶出道路；
// 几何为起点到终点的直线段，长度由端点距离导出
type Road struct {
	id     int
	start  geometry.Point
	end    geometry.Point
	length float64

	vehicles container.List[entity.IVehicle] // 车辆队列，按行驶距离升序

	signal      entity.ISignalController // 所属信号控制器，无信控道路为nil
	signalGroup int                      // 在信号控制器中的组索引
}

// newRoad 创建并初始化一个新的Road实例
// 功能：根据端点坐标创建Road对象，计算道路长度
// 参数：id-道路ID，start-起点坐标，end-终点坐标
// 返回：初始化完成的Road实例
func newRoad(id int, start, end geometry.Point) *Road {
	r := &Road{
		id:     id,
		start:  start,
		end:    end,
		length: math.Hypot(end.X-start.X, end.Y-start.Y),
	}
	r.vehicles.ID = fmt.Sprintf("road %d", id)
	return r
}

// ID 获取Road的唯一标识符
func (r *Road) ID() int {
	return r.id
}

// String 获取Road的字符串表示
func (r *Road) String() string {
	return fmt.Sprintf("Road %d", r.id)
}

// Length 获取道路长度
func (r *Road) Length() float64 {
	return r.length
}

// Start 获取道路起点坐标
func (r *Road) Start() geometry.Point {
	return r.start
}

// End 获取道路终点坐标
func (r *Road) End() geometry.Point {
	return r.end
}

// IsEmpty 判断道路上是否没有车辆
func (r *Road) IsEmpty() bool {
	return r.vehicles.Len() == 0
}

// VehicleCount 获取道路上的车辆数量
func (r *Road) VehicleCount() int {
	return r.vehicles.Len()
}

// Vehicles 获取道路上的所有车辆
// 返回：车辆数组，从队首（最新驶入）到队尾（最接近出口）
func (r *Road) Vehicles() []entity.IVehicle {
	return r.vehicles.Values()
}

// Front 获取最接近道路出口的车辆
// 返回：队尾车辆，道路为空时返回nil
func (r *Road) Front() entity.IVehicle {
	if node := r.vehicles.Last(); node != nil {
		return node.Value
	}
	return nil
}

// Back 获取最新驶入道路的车辆
// 返回：队首车辆，道路为空时返回nil
func (r *Road) Back() entity.IVehicle {
	if node := r.vehicles.First(); node != nil {
		return node.Value
	}
	return nil
}

// PopFront 移除并返回最接近道路出口的车辆
// 功能：将队尾车辆从队列中移除（驶出道路或完成行程）
// 返回：被移除的车辆，道路为空时返回nil
func (r *Road) PopFront() entity.IVehicle {
	node := r.vehicles.Last()
	if node == nil {
		return nil
	}
	r.vehicles.Remove(node)
	return node.Value
}

// Enter 车辆驶入道路
// 功能：将车辆置于道路起点并加入队首
// 参数：v-驶入的车辆
// 说明：行驶距离归零，位置设为道路起点
func (r *Road) Enter(v entity.IVehicle) {
	v.SetS(0)
	v.SetXY(r.start)
	r.vehicles.PushFront(&container.ListNode[entity.IVehicle]{S: 0, Value: v})
}

// SetSignal 绑定信号控制器
// 功能：记录道路所属的信号控制器及其组索引
// 参数：sig-信号控制器，group-道路在控制器中的信号组索引
func (r *Road) SetSignal(sig entity.ISignalController, group int) {
	r.signal = sig
	r.signalGroup = group
}

// green 当前信号是否放行本道路
// 说明：无信控道路恒为放行
func (r *Road) green() bool {
	if r.signal == nil {
		return true
	}
	return r.signal.CurrentMask()[r.signalGroup]
}

// Update 委托车辆运动模型更新道路上的所有车辆
// 功能：从队尾（最接近出口）向队首依次计算每辆车的行驶约束并推进运动
// 参数：dt-时间步长（秒），t-当前仿真时间（秒）
// 算法说明：
// 1. 头车：绿灯时自由行驶；红灯且进入停车区时以道路末端为停车线制动，
//    进入减速区时按折减系数降低期望速度
// 2. 跟随车：以前车为障碍执行跟驰，减速区折减同样生效
// 3. 运动积分后按行驶距离插值更新车辆的二维位置
// 说明：队内车辆间的安全距离由跟驰模型保证，碰撞检测只关心跨道路冲突
func (r *Road) Update(dt, t float64) {
	green := r.green()
	for node := r.vehicles.Last(); node != nil; node = node.Prev() {
		v := node.Value
		in := entity.DriveInput{
			TargetV:  v.MaxV(),
			AheadV:   0,
			AheadGap: mathutil.INF,
		}
		distToEnd := r.length - v.S()
		if !green && r.signal != nil {
			if distToEnd <= r.signal.SlowDistance() {
				in.TargetV = v.MaxV() * r.signal.SlowFactor()
			}
			if node.Next() == nil && distToEnd <= r.signal.StopDistance() {
				// 头车以道路末端为停车线
				in.AheadV = 0
				in.AheadGap = distToEnd
			}
		}
		if ahead := node.Next(); ahead != nil {
			in.AheadV = ahead.V()
			in.AheadGap = ahead.S - ahead.L() - v.S()
		}
		v.Drive(dt, t, in)
		node.S = v.S()
		k := lo.Clamp(v.S()/r.length, 0, 1)
		v.SetXY(geometry.Blend(r.start, r.end, k))
	}
}

// SumWaitTime 道路上所有车辆的等待时间之和
// 参数：t-当前仿真时间（秒）
// 返回：等待时间之和（秒）
func (r *Road) SumWaitTime(t float64) float64 {
	sum := .0
	for node := r.vehicles.First(); node != nil; node = node.Next() {
		sum += node.Value.WaitTime(t)
	}
	return sum
}
