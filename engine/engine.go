package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/tsinghua-fib-lab/signalopt/clock"
	"github.com/tsinghua-fib-lab/signalopt/entity"
	"github.com/tsinghua-fib-lab/signalopt/entity/road"
	"github.com/tsinghua-fib-lab/signalopt/entity/signal"
	"github.com/tsinghua-fib-lab/signalopt/entity/vehicle"
	"github.com/tsinghua-fib-lab/signalopt/utils/randengine"
)

// Engine 仿真引擎
// 功能：编排路网、信控、车辆生成器与运动模型，按固定步序推进仿真，
// 维护全局计数、等待时间统计与终止条件
// 说明：一个Engine实例独占其全部可变状态，不与其他实例共享；
// 适应度评估时每个候选解各持有一个独立实例
type Engine struct {
	clock      *clock.Clock
	roads      entity.IRoadManager
	signals    []entity.ISignalController
	generators []entity.IVehicleGenerator
	display    entity.IDisplay // 显示协作方，无界面运行时为nil

	maxGen int // 车辆生成上限，0表示无上限

	nGenerated      int     // 已生成车辆数
	nOnMap          int     // 在途车辆数
	nCompleted      int     // 已完成行程车辆数
	waitingTimesSum float64 // 已完成行程车辆的等待时间总和（秒）

	generator *randengine.Engine // 路径选择随机源，与GA自身的随机源相互独立

	// 外部停止指令
	stopped atomic.Bool
}

// New 创建仿真引擎实例
// 功能：初始化时钟、路网管理器与随机数引擎
// 参数：maxGen-车辆生成上限（0表示无上限），seed-路径选择的随机数种子
// 返回：初始化完成的引擎实例
// 说明：相同的场景、候选解与种子下，引擎的演化完全确定，
// 保证优化过程中适应度比较的公平性
func New(maxGen int, seed uint64) *Engine {
	return &Engine{
		clock:     clock.New(clock.DefaultDT),
		roads:     road.NewManager(),
		generator: randengine.New(seed),
		maxGen:    maxGen,
	}
}

// AddRoads 批量注册道路
// 参数：defs-道路定义列表，按注册顺序分配连续ID
func (e *Engine) AddRoads(defs []road.Def) {
	e.roads.(*road.Manager).AddRoads(defs)
}

// AddIntersections 注册路口冲突关系
// 参数：intersections-道路ID到冲突道路ID集合的映射
// 返回：错误信息，引用越界道路ID时返回错误
func (e *Engine) AddIntersections(intersections map[int][]int) error {
	return e.roads.(*road.Manager).AddIntersections(intersections)
}

// AddTrafficSignal 注册信号控制器
// 功能：校验信号组中的道路ID，创建控制器并绑定到各组道路
// 参数：groups-信号组（每组为共享相位的道路ID列表），cycle-相位周期配置，
// slowDistance/slowFactor/stopDistance-透传给车辆运动模型的参数
// 返回：错误信息，引用越界道路ID时返回错误
func (e *Engine) AddTrafficSignal(groups [][]int, cycle signal.Cycle, slowDistance, slowFactor, stopDistance float64) error {
	for _, group := range groups {
		for _, id := range group {
			if _, err := e.roads.GetOrError(id); err != nil {
				return fmt.Errorf("traffic signal group: %w", err)
			}
		}
	}
	c := signal.NewController(groups, cycle, slowDistance, slowFactor, stopDistance)
	for gi, group := range groups {
		for _, id := range group {
			e.roads.Get(id).SetSignal(c, gi)
		}
	}
	e.signals = append(e.signals, c)
	return nil
}

// AddGenerator 注册车辆生成器
// 功能：创建车辆生成器，路径选择共用引擎的随机数引擎
// 参数：rate-到达率（辆/分钟），specs-路径权重配置
// 返回：错误信息，路径引用越界道路ID时返回错误
func (e *Engine) AddGenerator(rate float64, specs []vehicle.RouteSpec) error {
	g, err := vehicle.NewGenerator(rate, specs, e.roads, e.generator)
	if err != nil {
		return err
	}
	e.generators = append(e.generators, g)
	return nil
}

// SetDisplay 设置显示协作方
// 参数：d-显示协作方，每步结束时收到一次通知
func (e *Engine) SetDisplay(d entity.IDisplay) {
	e.display = d
}

// Step 推进一个仿真步
// 功能：按固定步序执行一次完整的仿真更新，正确性依赖于该顺序
// 算法说明（严格顺序）：
// 1. 推进所有信号控制器
// 2. 委托运动模型更新所有非空道路上的车辆
// 3. 轮询车辆生成器，达到生成上限后停止本步的后续轮询；
//    生成成功时递增已生成/在途计数并标记道路非空
// 4. 处理道路间转移与行程完成，完成车辆的等待时间计入历史总和
// 5. 碰撞检测
// 6. 推进仿真时钟
// 7. 通知显示协作方（如有）
func (e *Engine) Step() {
	dt, t := e.clock.DT, e.clock.T

	// 1. 信控
	for _, s := range e.signals {
		s.Update(dt)
	}

	// 2. 车辆运动
	e.roads.UpdateVehicles(dt, t)

	// 3. 车辆生成
	for _, g := range e.generators {
		if e.maxGen > 0 && e.nGenerated == e.maxGen {
			break
		}
		if roadID, ok := g.Update(t, e.nGenerated); ok {
			e.nGenerated++
			e.nOnMap++
			e.roads.MarkNonEmpty(roadID)
		}
	}

	// 4. 道路间转移
	completed, waitSum := e.roads.ProcessTransfers(t)
	e.nCompleted += completed
	e.nOnMap -= completed
	e.waitingTimesSum += waitSum

	// 5. 碰撞检测
	e.roads.DetectCollisions()

	// 6. 时钟
	e.clock.Tick()

	// 7. 显示
	if e.display != nil {
		e.display.Update()
	}
}

// RunFor 按时间预算推进仿真
// 功能：反复执行仿真步，直到仿真时间达到预算、到达终止状态或收到外部停止指令
// 参数：budget-仿真时间预算（秒）
// 说明：每步都检查外部停止指令，收到后立即停止且不回滚当前步
func (e *Engine) RunFor(budget float64) {
	for e.clock.T < budget && !e.Completed() && !e.Stopped() {
		e.Step()
	}
}

// AdvancePhases 立即强制切换所有信号控制器的相位
// 说明：供外部离散决策控制器使用的"立即切换"接口
func (e *Engine) AdvancePhases() {
	for _, s := range e.signals {
		s.AdvanceNow()
	}
}

// RequestStop 请求提前终止
// 功能：置位外部停止指令，运行循环将在当前步结束后停止
func (e *Engine) RequestStop() {
	e.stopped.Store(true)
}

// Stopped 是否收到外部停止指令
// 返回：收到显式停止请求或显示协作方已关闭时为true
func (e *Engine) Stopped() bool {
	if e.stopped.Load() {
		return true
	}
	return e.display != nil && e.display.Closed()
}

// Completed 是否到达终止状态
// 功能：判断仿真是否到达一等终止状态
// 返回：已检测到碰撞，或设置了生成上限且已达到上限且路网上没有车辆时为true
// 说明：无上限且无碰撞时仿真可无限运行，由调用方自行施加时间预算
func (e *Engine) Completed() bool {
	if e.roads.CollisionDetected() {
		return true
	}
	return e.maxGen > 0 && e.nGenerated == e.maxGen && e.nOnMap == 0
}

// AverageWaitTime 当前平均等待时间指标
// 功能：计算已完成行程车辆与在途车辆的平均等待时间之和
// 返回：completed_mean + on_map_mean（秒）
// 算法说明：
// 1. completed_mean = 历史等待总和 / 已完成车辆数（无完成车辆时为0）
// 2. on_map_mean = 在途车辆等待查询之和 / 在途车辆数（无在途车辆时为0）
// 说明：该指标定义为两个独立均值之和，不是合并后的加权均值
func (e *Engine) AverageWaitTime() float64 {
	completedMean := .0
	if e.nCompleted > 0 {
		completedMean = e.waitingTimesSum / float64(e.nCompleted)
	}
	onMapMean := .0
	if e.nOnMap > 0 {
		onMapMean = e.roads.SumWaitTimes(e.clock.T) / float64(e.nOnMap)
	}
	return completedMean + onMapMean
}

// T 获取当前仿真时间（秒）
func (e *Engine) T() float64 {
	return e.clock.T
}

// DT 获取仿真步长（秒）
func (e *Engine) DT() float64 {
	return e.clock.DT
}

// Roads 获取路网管理器
func (e *Engine) Roads() entity.IRoadManager {
	return e.roads
}

// Signals 获取所有信号控制器
func (e *Engine) Signals() []entity.ISignalController {
	return e.signals
}

// CollisionDetected 是否已检测到碰撞
func (e *Engine) CollisionDetected() bool {
	return e.roads.CollisionDetected()
}

// VehiclesGenerated 获取已生成车辆数
func (e *Engine) VehiclesGenerated() int {
	return e.nGenerated
}

// VehiclesOnMap 获取在途车辆数
func (e *Engine) VehiclesOnMap() int {
	return e.nOnMap
}

// VehiclesCompleted 获取已完成行程车辆数
func (e *Engine) VehiclesCompleted() int {
	return e.nCompleted
}
