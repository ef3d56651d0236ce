// Package scenario 内置场景库
// 功能：维护可按编号检索的路网场景注册表，每个场景给出道路几何、
// 冲突关系、信号组、默认配时切片规则与车辆生成路径
package scenario

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalopt/engine"
	"github.com/tsinghua-fib-lab/signalopt/ga"
)

// simSeed 场景内车辆生成的固定随机数种子
// 说明：所有适应度评估使用同一种子，保证候选解之间的比较只反映配时差异
const simSeed = 42

// defaultPhase 切片缺省时使用的相位时长（秒）
const defaultPhase = 10

// Builder 场景构建函数
// 参数：config-相位时长候选解（可为nil），render-是否附加日志回放显示
// 返回：全新的仿真引擎实例和错误信息
type Builder func(config []int, render bool) (*engine.Engine, error)

// Scenario 场景描述
type Scenario struct {
	ID              int    // 场景编号
	Name            string // 场景名
	PhasesPerSignal []int  // 每个信号控制器的相位数，顺序与注册顺序一致
	Build           Builder
}

// SolutionLength 候选解长度
// 返回：场景内所有信号控制器的相位数之和
func (s *Scenario) SolutionLength() int {
	return lo.Sum(s.PhasesPerSignal)
}

// Factory 构造遗传算法使用的场景工厂
func (s *Scenario) Factory() ga.Factory {
	return ga.Factory(s.Build)
}

var registry = map[int]*Scenario{}

func register(s *Scenario) {
	if _, ok := registry[s.ID]; ok {
		log.Panicf("duplicate scenario id %d", s.ID)
	}
	registry[s.ID] = s
}

// Get 按编号检索场景
// 参数：id-场景编号
// 返回：场景描述和错误信息，编号未注册时返回错误
func Get(id int) (*Scenario, error) {
	s, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown scenario id %d, use one of %v", id, IDs())
	}
	return s, nil
}

// IDs 获取所有已注册的场景编号（升序）
func IDs() []int {
	ids := lo.Keys(registry)
	sort.Ints(ids)
	return ids
}

// slicePhases 从候选解中切出一个信号控制器的配时
// 功能：config长度足够时取[from,to)片段，否则返回to-from个默认时长
// 说明：切片不足时整段回退默认值，不做部分填充
func slicePhases(config []int, from, to int) []float64 {
	n := to - from
	phases := make([]float64, n)
	if len(config) >= to {
		for i, v := range config[from:to] {
			phases[i] = float64(v)
		}
		return phases
	}
	for i := range phases {
		phases[i] = defaultPhase
	}
	return phases
}
