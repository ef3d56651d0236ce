package vehicle

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalopt/entity"
)

// 车辆默认物理参数
const (
	defaultLength = 4.0   // 车长（米）
	defaultMaxV   = 16.6  // 最大速度（米/秒）
	defaultMaxA   = 1.44  // 最大加速度（米/秒²）
	defaultUsualB = 4.61  // 常规制动减速度（米/秒²，取正值）
	defaultMinGap = 4.0   // 最小车距（米）
	defaultHeadway = 1.0  // 安全车头时距（秒）
	idmTheta      = 4.0   // IDM速度项指数
	standstillV   = 0.1   // 判定为停驶的速度阈值（米/秒）
)

// Vehicle 车辆实体（运动模型协作方）
// 功能：实现基于智能驾驶模型(IDM)的跟驰运动，维护路径游标与等待时间统计
// 说明：车辆在整个生命周期内恰好占据一条道路；路径为不可变的道路ID序列；
// Engine的正确性不依赖此处的跟驰细节，更换运动模型无需改动Engine
type Vehicle struct {
	id   int
	path []int // 路径（道路ID序列），构造后不可变

	currentRoadIndex int     // 路径游标
	s                float64 // 沿当前道路的行驶距离（米）
	v                float64 // 速度（米/秒）
	xy               geometry.Point

	length  float64 // 车长（米）
	maxV    float64 // 最大速度（米/秒）
	maxA    float64 // 最大加速度（米/秒²）
	usualB  float64 // 常规制动减速度（米/秒²，正值）
	minGap  float64 // 最小车距（米）
	headway float64 // 安全车头时距（秒）

	waitSum       float64 // 已结算的累计等待时间（秒）
	standing      bool    // 当前是否处于停驶状态
	standingSince float64 // 本次停驶的开始时间（秒）
}

// New 创建车辆实例
// 功能：使用默认物理参数初始化一辆沿给定路径行驶的车辆
// 参数：id-车辆ID，path-道路ID序列（至少一条）
// 返回：初始化完成的车辆实例
func New(id int, path []int) *Vehicle {
	if len(path) == 0 {
		log.Panicf("vehicle %d: empty path", id)
	}
	return &Vehicle{
		id:      id,
		path:    append([]int(nil), path...),
		length:  defaultLength,
		maxV:    defaultMaxV,
		maxA:    defaultMaxA,
		usualB:  defaultUsualB,
		minGap:  defaultMinGap,
		headway: defaultHeadway,
	}
}

// ID 获取车辆ID
func (v *Vehicle) ID() int {
	return v.id
}

// String 获取车辆的字符串表示
func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle %d", v.id)
}

// S 获取车辆沿当前道路的行驶距离
func (v *Vehicle) S() float64 {
	return v.s
}

// SetS 设置车辆沿当前道路的行驶距离
func (v *Vehicle) SetS(s float64) {
	v.s = s
}

// V 获取速度
func (v *Vehicle) V() float64 {
	return v.v
}

// Length 获取车长
func (v *Vehicle) Length() float64 {
	return v.length
}

// MaxV 获取车辆最大速度
func (v *Vehicle) MaxV() float64 {
	return v.maxV
}

// Path 获取车辆路径
// 返回：道路ID序列，调用方不得修改
func (v *Vehicle) Path() []int {
	return v.path
}

// CurrentRoadIndex 获取路径游标
func (v *Vehicle) CurrentRoadIndex() int {
	return v.currentRoadIndex
}

// NextRoadID 获取路径中的下一条道路ID
// 返回：下一条道路ID；车辆已在路径末条道路时返回false
func (v *Vehicle) NextRoadID() (int, bool) {
	if v.currentRoadIndex+1 < len(v.path) {
		return v.path[v.currentRoadIndex+1], true
	}
	return 0, false
}

// AdvanceRoad 路径游标前进一位
// 说明：行驶距离的归零由目标道路的Enter处理
func (v *Vehicle) AdvanceRoad() {
	if v.currentRoadIndex+1 >= len(v.path) {
		log.Panicf("vehicle %d: advance beyond path end", v.id)
	}
	v.currentRoadIndex++
}

// XY 获取车辆的二维位置坐标
func (v *Vehicle) XY() geometry.Point {
	return v.xy
}

// SetXY 设置车辆的二维位置坐标
func (v *Vehicle) SetXY(xy geometry.Point) {
	v.xy = xy
}

// Drive 执行一步跟驰模型
// 功能：根据行驶约束计算加速度并积分更新速度与行驶距离，维护等待时间统计
// 参数：dt-时间步长（秒），t-当前仿真时间（秒），in-驾驶环境输入
// 算法说明：
// 1. IDM加速度：净距非正时紧急制动；否则
//    s_star = minGap + max(0, v*headway + v*(v-v_ahead)/(2*sqrt(a*b)))，
//    a = maxA * (1 - (v/targetV)^4 - (s_star/gap)^2)，钳制到[-b, maxA]
// 2. 速度积分：速度降为负时按匀减速运动精确求出剩余位移并停车
// 3. 等待统计：速度低于停驶阈值时记录停驶区间，恢复行驶时结算
func (v *Vehicle) Drive(dt, t float64, in entity.DriveInput) {
	acc := v.idm(in)
	v1 := v.v + acc*dt
	if v1 < 0 {
		if acc < 0 {
			v.s += -v.v * v.v / (2 * acc)
		}
		v1 = 0
	} else {
		v.s += (v.v + v1) / 2 * dt
	}
	v.v = v1

	if v.v < standstillV {
		if !v.standing {
			v.standing = true
			v.standingSince = t
		}
	} else if v.standing {
		v.waitSum += t - v.standingSince
		v.standing = false
	}
}

// idm 计算IDM加速度
// 参数：in-驾驶环境输入
// 返回：加速度（米/秒²）
func (v *Vehicle) idm(in entity.DriveInput) float64 {
	targetV := math.Min(v.maxV, in.TargetV)
	var acc float64
	if in.AheadGap <= 0 {
		// 净距已耗尽，紧急制动
		acc = math.Inf(-1)
	} else {
		// https://en.wikipedia.org/wiki/Intelligent_driver_model
		sStar := v.minGap + math.Max(
			0,
			v.v*v.headway+v.v*(v.v-in.AheadV)/(2*math.Sqrt(v.usualB*v.maxA)),
		)
		acc = v.maxA * (1 - math.Pow(v.v/targetV, idmTheta) - math.Pow(sStar/in.AheadGap, 2))
	}
	return lo.Clamp(acc, -v.usualB, v.maxA)
}

// WaitTime 查询累计等待时间
// 功能：返回车辆自生成以来处于停驶状态的总时长
// 参数：t-当前仿真时间（秒）
// 返回：累计等待时间（秒），包含正在进行中的停驶区间
func (v *Vehicle) WaitTime(t float64) float64 {
	if v.standing {
		return v.waitSum + t - v.standingSince
	}
	return v.waitSum
}
