package road

import (
	"fmt"
	"math"
	"sort"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/signalopt/entity"
)

// CollisionRadius 碰撞判定半径（米）
// 说明：冲突道路上两辆车的欧氏距离小于该值即判定为碰撞
const CollisionRadius = 3.0

// Def 道路定义
// 功能：描述一条道路的几何端点，用于批量注册道路
type Def struct {
	Start geometry.Point // 起点坐标
	End   geometry.Point // 终点坐标
}

// Manager 路网管理器
// 功能：持有某个Engine实例的全部道路、静态冲突图与非空道路集合，
// 提供车辆更新、道路间转移与碰撞检测
// 说明：所有可变状态都由单个Engine实例独占，不与其他实例共享
type Manager struct {
	roads []*Road

	conflicts map[int]map[int]struct{} // 道路ID->冲突道路ID集合（加载时已对称化）
	nonEmpty  map[int]struct{}         // 非空道路ID集合，限定每步的工作范围
	collision bool                     // 碰撞标志，一经置位不可逆
}

// NewManager 创建路网管理器实例
// 功能：初始化路网管理器，创建内部数据结构
// 返回：新创建的路网管理器实例
func NewManager() *Manager {
	return &Manager{
		roads:     make([]*Road, 0),
		conflicts: make(map[int]map[int]struct{}),
		nonEmpty:  make(map[int]struct{}),
	}
}

// AddRoads 批量注册道路
// 功能：按注册顺序为道路分配连续ID
// 参数：defs-道路定义列表
func (m *Manager) AddRoads(defs []Def) {
	for _, def := range defs {
		m.roads = append(m.roads, newRoad(len(m.roads), def.Start, def.End))
	}
}

// AddIntersections 注册路口冲突关系
// 功能：校验并登记冲突图，加载时对称化存储
// 参数：intersections-道路ID到冲突道路ID集合的映射
// 返回：错误信息，引用越界道路ID时返回错误
// 算法说明：
// 1. 校验所有道路ID在范围内，越界立即失败（拓扑错误是致命的）
// 2. 对称化：登记正向边的同时登记反向边（冲突关系的并集）
// 说明：场景数据中的冲突表可能是手工编写且不对称的，这里统一对称化存储
// 而不做进一步修正
func (m *Manager) AddIntersections(intersections map[int][]int) error {
	for id, others := range intersections {
		if err := m.checkID(id); err != nil {
			return err
		}
		for _, other := range others {
			if err := m.checkID(other); err != nil {
				return fmt.Errorf("intersections of road %d: %w", id, err)
			}
		}
	}
	for id, others := range intersections {
		for _, other := range others {
			m.addConflict(id, other)
			m.addConflict(other, id)
		}
	}
	return nil
}

// addConflict 登记一条有向冲突边
func (m *Manager) addConflict(from, to int) {
	set, ok := m.conflicts[from]
	if !ok {
		set = make(map[int]struct{})
		m.conflicts[from] = set
	}
	set[to] = struct{}{}
}

// checkID 校验道路ID是否在范围内
func (m *Manager) checkID(id int) error {
	if id < 0 || id >= len(m.roads) {
		return fmt.Errorf("road id %d out of range [0, %d)", id, len(m.roads))
	}
	return nil
}

// Get 根据ID获取道路实例
// 功能：通过道路ID查找对应的道路对象，如果不存在则panic
// 参数：id-道路的唯一标识符
// 返回：对应的道路实例
func (m *Manager) Get(id int) entity.IRoad {
	if id < 0 || id >= len(m.roads) {
		log.Panicf("no id %d in road data", id)
		return nil
	}
	return m.roads[id]
}

// GetOrError 根据ID获取道路实例（带错误处理）
// 功能：通过道路ID查找对应的道路对象，如果不存在则返回错误
// 参数：id-道路的唯一标识符
// 返回：道路实例和错误信息
func (m *Manager) GetOrError(id int) (entity.IRoad, error) {
	if err := m.checkID(id); err != nil {
		return nil, err
	}
	return m.roads[id], nil
}

// Count 获取道路总数
func (m *Manager) Count() int {
	return len(m.roads)
}

// MarkNonEmpty 将道路标记为非空
// 参数：id-道路ID
func (m *Manager) MarkNonEmpty(id int) {
	m.nonEmpty[id] = struct{}{}
}

// NonEmptyIDs 获取非空道路ID
// 功能：返回当前非空道路的ID列表
// 返回：升序排列的道路ID，保证遍历顺序确定
func (m *Manager) NonEmptyIDs() []int {
	ids := make([]int, 0, len(m.nonEmpty))
	for id := range m.nonEmpty {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ActiveConflicts 获取活跃冲突关系
// 功能：将静态冲突图限制到当前非空道路上
// 返回：非空道路ID到非空冲突道路ID列表（升序）的映射
// 说明：避免每步扫描空闲道路，只对确有车辆的冲突对做碰撞检测
func (m *Manager) ActiveConflicts() map[int][]int {
	output := make(map[int][]int)
	for id := range m.nonEmpty {
		set, ok := m.conflicts[id]
		if !ok {
			continue
		}
		others := make([]int, 0, len(set))
		for other := range set {
			if _, ok := m.nonEmpty[other]; ok {
				others = append(others, other)
			}
		}
		if len(others) > 0 {
			sort.Ints(others)
			output[id] = others
		}
	}
	return output
}

// UpdateVehicles 更新所有非空道路上的车辆
// 功能：对每条非空道路委托车辆运动模型更新
// 参数：dt-时间步长（秒），t-当前仿真时间（秒）
func (m *Manager) UpdateVehicles(dt, t float64) {
	for _, id := range m.NonEmptyIDs() {
		m.roads[id].Update(dt, t)
	}
}

// ProcessTransfers 处理道路间转移与行程完成
// 功能：检查每条非空道路的头车是否越过道路末端，执行转移或完成行程
// 参数：t-当前仿真时间（秒）
// 返回：本步完成行程的车辆数与它们的等待时间之和
// 算法说明：
// 1. 头车行驶距离达到道路长度且路径中存在下一条道路时：出队、行驶距离归零、
//    路径游标前进、进入下一条道路队首，并维护非空集合
// 2. 路径末尾：出队并统计行程完成，等待时间计入历史总和
// 3. 队列为空的道路从非空集合中移除
// 说明：每条道路每步最多转移一辆头车
func (m *Manager) ProcessTransfers(t float64) (completed int, waitSum float64) {
	newNonEmpty := make([]int, 0)
	newEmpty := make([]int, 0)
	for _, id := range m.NonEmptyIDs() {
		r := m.roads[id]
		if r.IsEmpty() {
			newEmpty = append(newEmpty, id)
			continue
		}
		front := r.Front()
		if front.S() < r.Length() {
			continue
		}
		if next, ok := front.NextRoadID(); ok {
			// 转移到路径中的下一条道路
			r.PopFront()
			front.AdvanceRoad()
			m.roads[next].Enter(front)
			newNonEmpty = append(newNonEmpty, next)
			if r.IsEmpty() {
				newEmpty = append(newEmpty, id)
			}
		} else {
			// 行程完成
			r.PopFront()
			completed++
			waitSum += front.WaitTime(t)
			if r.IsEmpty() {
				newEmpty = append(newEmpty, id)
			}
		}
	}
	for _, id := range newEmpty {
		delete(m.nonEmpty, id)
	}
	for _, id := range newNonEmpty {
		m.nonEmpty[id] = struct{}{}
	}
	return completed, waitSum
}

// DetectCollisions 碰撞检测
// 功能：对活跃冲突对中的车辆做两两距离检测，发现碰撞立即终止扫描
// 算法说明：
// 1. 已检测到碰撞时直接返回（标志不可逆）
// 2. 按升序遍历非空道路及其非空冲突道路
// 3. 任意一对车辆的欧氏距离小于碰撞半径即置位标志并停止
// 说明：同一道路内车辆间的跟驰安全由运动模型负责，此处不检测
func (m *Manager) DetectCollisions() {
	if m.collision {
		return
	}
	active := m.ActiveConflicts()
	mainIDs := make([]int, 0, len(active))
	for id := range active {
		mainIDs = append(mainIDs, id)
	}
	sort.Ints(mainIDs)
	for _, id := range mainIDs {
		for _, v := range m.roads[id].Vehicles() {
			for _, other := range active[id] {
				for _, w := range m.roads[other].Vehicles() {
					p, q := v.XY(), w.XY()
					if math.Hypot(p.X-q.X, p.Y-q.Y) < CollisionRadius {
						m.collision = true
						return
					}
				}
			}
		}
	}
}

// CollisionDetected 是否已检测到碰撞
// 返回：碰撞标志，一经置位不再复位
func (m *Manager) CollisionDetected() bool {
	return m.collision
}

// SumWaitTimes 所有在途车辆的等待时间之和
// 参数：t-当前仿真时间（秒）
// 返回：非空道路上所有车辆的等待时间之和（秒）
func (m *Manager) SumWaitTimes(t float64) float64 {
	sum := .0
	for _, id := range m.NonEmptyIDs() {
		sum += m.roads[id].SumWaitTime(t)
	}
	return sum
}
