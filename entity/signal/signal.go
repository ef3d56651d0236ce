package signal

import (
	"math"

	"github.com/samber/lo"
)

const (
	// MinPhaseDuration 相位时长下界（秒）
	MinPhaseDuration = 5.0
	// MaxPhaseDuration 相位时长上界（秒）
	MaxPhaseDuration = 90.0
	// fallbackDuration 配置非法时回退方案的每相位时长（秒）
	fallbackDuration = 1.0
)

// Cycle 相位周期配置
// 功能：描述一个信号控制器的相位推进方式
// 说明：二选一：Durations为每组一个时长（时长模式，每组一个相位依次放行）；
// Masks为每相位一个布尔掩码（掩码模式，无计时，每次显式请求前进一个相位）
type Cycle struct {
	Durations []float64 // 每组时长（秒）
	Masks     [][]bool  // 每相位掩码（每组一位）
}

// Controller 信号控制器
// 功能：实现单个路口的相位状态机，按时长或显式请求切换相位
// 说明：配置非法时确定性回退为每组1秒的轮询方案，构造过程不会失败
type Controller struct {
	groups    [][]int   // 每个信号组包含的道路ID
	masks     [][]bool  // 每相位的放行掩码
	durations []float64 // 每相位时长，掩码模式下为nil

	phaseIndex  int     // 当前相位索引
	timeInPhase float64 // 当前相位内累计时间（秒）

	slowDistance float64 // 减速区长度（米）
	slowFactor   float64 // 减速区速度折减系数
	stopDistance float64 // 停车区长度（米）
}

// NewController 创建信号控制器
// 功能：根据信号组与周期配置初始化相位状态机
// 参数：groups-信号组（每组为共享相位的道路ID列表），cycle-相位周期配置，
// slowDistance/slowFactor/stopDistance-透传给车辆运动模型的参数
// 返回：初始化完成的信号控制器实例
// 算法说明：
// 1. 掩码模式：所有掩码宽度等于组数时生效，无计时
// 2. 时长模式：所有时长为有限正数时生效，逐项钳制到[5,90]并补齐/截断到组数，
//    相位掩码为按组顺序的one-hot向量
// 3. 其余情况（空周期、非法时长、掩码宽度不符）回退为每组1秒的轮询方案
// 说明：回退路径只记录警告日志，绝不panic
func NewController(groups [][]int, cycle Cycle, slowDistance, slowFactor, stopDistance float64) *Controller {
	c := &Controller{
		groups:       groups,
		slowDistance: slowDistance,
		slowFactor:   slowFactor,
		stopDistance: stopDistance,
	}
	c.parseCycle(cycle)
	return c
}

// parseCycle 解析相位周期配置
// 功能：校验配置并选择时长模式、掩码模式或回退方案
func (c *Controller) parseCycle(cycle Cycle) {
	n := len(c.groups)
	if n == 0 {
		// 无信号组的控制器只有一个空相位
		log.Warn("signal controller has no groups, using a single empty phase")
		c.masks = [][]bool{{}}
		return
	}

	// 掩码模式
	if len(cycle.Masks) > 0 {
		widthOK := lo.EveryBy(cycle.Masks, func(m []bool) bool { return len(m) == n })
		if widthOK {
			c.masks = lo.Map(cycle.Masks, func(m []bool, _ int) []bool {
				return append([]bool(nil), m...)
			})
			c.durations = nil
			return
		}
		log.Warnf("signal mask width does not match group count %d, falling back to round-robin", n)
		c.fallback()
		return
	}

	// 时长模式
	if len(cycle.Durations) > 0 {
		valid := lo.EveryBy(cycle.Durations, func(d float64) bool {
			return !math.IsNaN(d) && !math.IsInf(d, 0) && d > 0
		})
		if !valid {
			log.Warn("signal cycle contains non-finite or non-positive durations, falling back to round-robin")
			c.fallback()
			return
		}
		durations := lo.Map(cycle.Durations, func(d float64, _ int) float64 {
			return lo.Clamp(d, MinPhaseDuration, MaxPhaseDuration)
		})
		// 补齐/截断到组数
		if len(durations) >= n {
			durations = durations[:n]
		} else {
			last := durations[len(durations)-1]
			for len(durations) < n {
				durations = append(durations, last)
			}
		}
		c.durations = durations
		c.masks = oneHotMasks(n)
		return
	}

	// 空周期
	c.fallback()
}

// fallback 回退为轮询方案
// 功能：每组一个相位，每相位1秒，依次放行
func (c *Controller) fallback() {
	n := len(c.groups)
	c.durations = make([]float64, n)
	for i := range c.durations {
		c.durations[i] = fallbackDuration
	}
	c.masks = oneHotMasks(n)
}

// oneHotMasks 构造按组顺序的one-hot相位掩码
func oneHotMasks(n int) [][]bool {
	masks := make([][]bool, n)
	for i := range masks {
		masks[i] = make([]bool, n)
		masks[i][i] = true
	}
	return masks
}

// Update 按时间步长推进相位状态机
// 功能：时长模式下累计相位内时间并按时切换；掩码模式下每次调用前进一个相位
// 参数：dt-时间步长（秒），非正值不产生任何变化
// 算法说明：
// 1. 掩码模式：无计时，直接切换到下一相位
// 2. 时长模式：累计时间达到当前相位时长时，减去该时长（保留余量，绝不丢弃）
//    并将相位索引前进一位（模相位数）
func (c *Controller) Update(dt float64) {
	if dt <= 0 {
		return
	}
	if c.durations == nil {
		c.advancePhase()
		c.timeInPhase = 0
		return
	}
	c.timeInPhase += dt
	if d := c.durations[c.phaseIndex]; c.timeInPhase >= d {
		c.timeInPhase -= d
		c.advancePhase()
	}
}

// AdvanceNow 立即强制切换相位
// 功能：不提供时间步长的切换请求，两种模式下都立即前进一个相位
// 说明：供外部离散决策控制器使用，切换时清零相位内累计时间
func (c *Controller) AdvanceNow() {
	c.advancePhase()
	c.timeInPhase = 0
}

// advancePhase 相位索引前进一位（模相位数）
func (c *Controller) advancePhase() {
	c.phaseIndex = (c.phaseIndex + 1) % len(c.masks)
}

// CurrentMask 获取当前相位掩码
// 功能：返回当前相位的布尔向量，每个信号组一位，true表示放行
// 返回：掩码副本，宽度恒等于信号组数量
func (c *Controller) CurrentMask() []bool {
	return append([]bool(nil), c.masks[c.phaseIndex]...)
}

// GroupCount 获取信号组数量
func (c *Controller) GroupCount() int {
	return len(c.groups)
}

// PhaseCount 获取相位数量
func (c *Controller) PhaseCount() int {
	return len(c.masks)
}

// PhaseIndex 获取当前相位索引
func (c *Controller) PhaseIndex() int {
	return c.phaseIndex
}

// TimeInPhase 获取当前相位内累计时间
// 返回：当前相位内累计时间（秒）
func (c *Controller) TimeInPhase() float64 {
	return c.timeInPhase
}

// Groups 获取信号组配置
// 返回：每个信号组包含的道路ID列表
func (c *Controller) Groups() [][]int {
	return c.groups
}

// CycleDuration 获取完整周期时长
// 功能：返回时长模式下所有相位时长之和
// 返回：周期时长（秒），掩码模式下返回0
func (c *Controller) CycleDuration() float64 {
	return lo.Sum(c.durations)
}

// SlowDistance 减速区长度（米）
func (c *Controller) SlowDistance() float64 {
	return c.slowDistance
}

// SlowFactor 减速区速度折减系数
func (c *Controller) SlowFactor() float64 {
	return c.slowFactor
}

// StopDistance 停车区长度（米）
func (c *Controller) StopDistance() float64 {
	return c.stopDistance
}
