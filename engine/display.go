package engine

// LogDisplay 日志显示协作方
// 功能：无界面环境下的显示实现，按固定步数间隔输出仿真状态日志
// 说明：替代图形界面用于回放观察，永不请求提前终止
type LogDisplay struct {
	engine   *Engine
	interval int32 // 日志输出间隔（步）
	step     int32
}

// NewLogDisplay 创建日志显示协作方
// 参数：e-被观察的引擎，interval-日志输出间隔（步），非正值时取60
// 返回：初始化完成的日志显示实例
func NewLogDisplay(e *Engine, interval int32) *LogDisplay {
	if interval <= 0 {
		interval = 60
	}
	return &LogDisplay{engine: e, interval: interval}
}

// Update 接收每步通知
// 功能：按间隔输出当前仿真时间与车辆计数
func (d *LogDisplay) Update() {
	d.step++
	if d.step%d.interval != 0 {
		return
	}
	e := d.engine
	log.Infof(
		"t=%s generated=%d on_map=%d completed=%d avg_wait=%.2f",
		e.clock, e.nGenerated, e.nOnMap, e.nCompleted, e.AverageWaitTime(),
	)
}

// Closed 是否已被外部关闭
// 返回：日志显示永不关闭，恒为false
func (d *LogDisplay) Closed() bool {
	return false
}
