package entity

import (
	"git.fiblab.net/general/common/v2/geometry"
)

// DriveInput 单步驾驶环境输入
// 功能：描述一辆车在当前时间步感知到的行驶约束
// 说明：由道路根据信号灯状态与前车位置计算，车辆据此执行跟驰模型
type DriveInput struct {
	TargetV  float64 // 期望巡航速度（米/秒），信号灯减速区内被折减
	AheadV   float64 // 前方障碍（前车或停车线）的速度（米/秒）
	AheadGap float64 // 与前方障碍的净距（米），无障碍时为mathutil.INF
}

// entity/vehicle/vehicle.go的依赖倒置
type IVehicle interface {
	ID() int             // 获取车辆ID
	S() float64          // 获取车辆沿当前道路的行驶距离
	SetS(s float64)      // 设置车辆沿当前道路的行驶距离
	V() float64          // 获取速度
	Length() float64     // 获取车长
	MaxV() float64       // 获取车辆最大速度
	Path() []int         // 获取车辆路径（道路ID序列，不可变）
	CurrentRoadIndex() int   // 获取路径游标（当前道路在路径中的下标）
	NextRoadID() (int, bool) // 获取路径中的下一条道路ID，路径末尾时返回false
	AdvanceRoad()            // 路径游标前进一位

	XY() geometry.Point      // 获取车辆的二维位置坐标
	SetXY(xy geometry.Point) // 设置车辆的二维位置坐标

	Drive(dt, t float64, in DriveInput) // 执行一步跟驰模型
	WaitTime(t float64) float64         // 查询累计等待时间（秒）
}

// entity/signal/signal.go的依赖倒置
type ISignalController interface {
	Update(dt float64)   // 按时间步长推进相位状态机
	AdvanceNow()         // 立即强制切换相位（离散决策接口）
	CurrentMask() []bool // 获取当前相位掩码（每组一位，true为放行）
	GroupCount() int     // 获取信号组数量
	PhaseCount() int     // 获取相位数量
	PhaseIndex() int     // 获取当前相位索引

	SlowDistance() float64 // 减速区长度（米），透传给车辆运动模型
	SlowFactor() float64   // 减速区速度折减系数，透传给车辆运动模型
	StopDistance() float64 // 停车区长度（米），透传给车辆运动模型
}

// entity/road/road.go的依赖倒置
type IRoad interface {
	ID() int                // 获取道路ID
	Length() float64        // 获取道路长度
	Start() geometry.Point  // 获取道路起点坐标
	End() geometry.Point    // 获取道路终点坐标
	IsEmpty() bool          // 判断道路上是否没有车辆
	VehicleCount() int      // 获取道路上的车辆数量
	Vehicles() []IVehicle   // 获取道路上的所有车辆（从队首到队尾）
	Front() IVehicle        // 获取最接近道路出口的车辆，道路为空时返回nil
	Back() IVehicle         // 获取最新驶入道路的车辆，道路为空时返回nil
	PopFront() IVehicle     // 移除并返回最接近道路出口的车辆
	Enter(v IVehicle)       // 车辆驶入道路（行驶距离归零）

	Update(dt, t float64)         // 委托车辆运动模型更新道路上的所有车辆
	SumWaitTime(t float64) float64 // 道路上所有车辆的等待时间之和

	SetSignal(sig ISignalController, group int) // 绑定信号控制器及所属信号组
}

// entity/road/manager.go的依赖倒置
type IRoadManager interface {
	Get(id int) IRoad                  // 根据ID获取道路，不存在则panic
	GetOrError(id int) (IRoad, error)  // 根据ID获取道路（带错误处理）
	Count() int                        // 获取道路总数
	NonEmptyIDs() []int                // 获取非空道路ID（升序）
	MarkNonEmpty(id int)               // 将道路标记为非空
	ActiveConflicts() map[int][]int    // 获取限制在非空道路上的冲突关系

	UpdateVehicles(dt, t float64)                           // 更新所有非空道路上的车辆
	ProcessTransfers(t float64) (completed int, waitSum float64) // 处理道路间转移与行程完成
	DetectCollisions()                                      // 碰撞检测
	CollisionDetected() bool                                // 是否已检测到碰撞
	SumWaitTimes(t float64) float64                         // 所有在途车辆的等待时间之和
}

// entity/vehicle/generator.go的依赖倒置
type IVehicleGenerator interface {
	// Update 推进生成器，若本次调用产生了新车辆则返回其驶入的道路ID
	Update(t float64, generated int) (roadID int, ok bool)
	InboundRoads() []int  // 获取入口道路ID集合（每条路径的首条道路）
	OutboundRoads() []int // 获取出口道路ID集合（多段路径的末条道路）
}

// 显示协作方接口，无界面运行时为空实现
type IDisplay interface {
	Update()      // 每个时间步结束时收到一次通知
	Closed() bool // 是否已被外部关闭（请求提前终止模拟）
}
