package clock

import "fmt"

// DefaultDT 默认模拟步长（秒）
// 说明：与渲染帧率对齐的1/60秒，保证信控与车辆运动的数值精度
const DefaultDT = 1.0 / 60

// Clock 仿真时钟管理器
// 功能：管理仿真系统的时间推进
// 说明：维护当前仿真时间与步数信息，每个Engine实例独占一个时钟
type Clock struct {
	DT float64 // 每个模拟步时间间隔（秒）

	T            float64 // 当前时间（秒）
	InternalStep int32   // 当前内部步数
}

// New 创建新的时钟实例
// 功能：根据步长初始化时钟信息
// 参数：dt-每步时间间隔（秒），非正值时采用DefaultDT
// 返回：初始化完成的时钟实例
func New(dt float64) *Clock {
	if dt <= 0 {
		dt = DefaultDT
	}
	c := &Clock{DT: dt}
	c.Init()
	return c
}

// Init 初始化时钟状态
// 功能：重置时钟状态
// 说明：重置内部步数为0，重新计算当前时间
func (c *Clock) Init() {
	c.InternalStep = 0
	c.T = 0
}

// Tick 时钟步进
// 功能：将时钟推进一个步长
// 说明：内部步数加一，按步数重新计算当前时间以避免浮点累积误差
func (c *Clock) Tick() {
	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
}

// String 获取时钟的字符串表示
// 功能：将当前时间格式化为可读的字符串
// 返回：格式化的时间字符串（HH:MM:SS）
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
