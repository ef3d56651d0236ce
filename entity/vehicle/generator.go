package vehicle

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalopt/entity"
	"github.com/tsinghua-fib-lab/signalopt/utils/randengine"
)

// spawnGap 生成新车辆所需的入口道路净空（米）
// 说明：入口道路队首车辆驶过该距离前不再放入新车，避免生成即追尾
const spawnGap = defaultMinGap + defaultLength

// RouteSpec 路径权重配置
// 功能：描述一组带权重的候选路径
// 说明：Path为单条路径；Paths为同权重的多条备选路径，注册时展平，
// 两者只应设置其一，Paths优先
type RouteSpec struct {
	Weight float64 // 权重
	Path   []int   // 单条路径（道路ID序列）
	Paths  [][]int // 多条备选路径
}

// route 归一化后的单条带权路径
type route struct {
	weight float64
	path   []int
}

// Generator 车辆生成器
// 功能：按到达率随机生成车辆并放入路径首条道路
// 说明：到达率单位为辆/分钟；路径选择使用离散加权分布；
// 全局的已生成/在途计数由Engine持有，生成器只报告本次生成的道路ID
type Generator struct {
	rate   float64
	routes []route

	inbound     map[int]entity.IRoad // 入口道路ID->道路对象
	inboundIDs  []int                // 入口道路ID（升序）
	outboundIDs []int                // 出口道路ID（升序）

	weights   []float64 // 路径权重缓存，供离散分布使用
	lastAdded float64   // 上一次成功生成车辆的时间（秒）

	generator *randengine.Engine
}

// NewGenerator 创建车辆生成器
// 功能：归一化路径配置，校验道路ID并推导入口/出口道路集合
// 参数：rate-到达率（辆/分钟），specs-路径权重配置，roads-路网管理器，
// generator-随机数引擎（由Engine持有以保证确定性）
// 返回：生成器实例和错误信息
// 算法说明：
// 1. 归一化：展平嵌套备选路径为(权重, 路径)对的平铺列表
// 2. 校验：路径中所有道路ID必须在范围内，空路径非法
// 3. 推导：入口道路为每条路径的首条道路；出口道路为多段路径的末条道路
func NewGenerator(rate float64, specs []RouteSpec, roads entity.IRoadManager, generator *randengine.Engine) (*Generator, error) {
	g := &Generator{
		rate:      rate,
		inbound:   make(map[int]entity.IRoad),
		generator: generator,
	}
	for _, spec := range specs {
		if len(spec.Paths) > 0 {
			for _, p := range spec.Paths {
				g.routes = append(g.routes, route{weight: spec.Weight, path: append([]int(nil), p...)})
			}
		} else {
			g.routes = append(g.routes, route{weight: spec.Weight, path: append([]int(nil), spec.Path...)})
		}
	}
	if len(g.routes) == 0 {
		return nil, fmt.Errorf("generator has no routes")
	}

	outbound := make(map[int]struct{})
	for _, r := range g.routes {
		if len(r.path) == 0 {
			return nil, fmt.Errorf("generator route has empty path")
		}
		for _, id := range r.path {
			if _, err := roads.GetOrError(id); err != nil {
				return nil, fmt.Errorf("generator route: %w", err)
			}
		}
		first := r.path[0]
		if _, ok := g.inbound[first]; !ok {
			g.inbound[first] = roads.Get(first)
			g.inboundIDs = append(g.inboundIDs, first)
		}
		if len(r.path) > 1 {
			outbound[r.path[len(r.path)-1]] = struct{}{}
		}
	}
	sort.Ints(g.inboundIDs)
	g.outboundIDs = lo.Keys(outbound)
	sort.Ints(g.outboundIDs)
	g.weights = lo.Map(g.routes, func(r route, _ int) float64 { return r.weight })
	return g, nil
}

// Update 推进生成器
// 功能：到达间隔已满时按权重抽取路径并尝试在其首条道路生成车辆
// 参数：t-当前仿真时间（秒），generated-全局已生成车辆数（用作新车辆的ID）
// 返回：本次生成车辆驶入的道路ID；未生成时ok为false
// 算法说明：
// 1. 到达间隔 = 60/rate 秒，自上次成功生成起计
// 2. 按权重离散分布抽取一条路径
// 3. 入口道路净空不足时放弃本次生成且不推进到达时钟（下一步重试）
// 说明：已生成/在途计数由Engine维护，此处不做任何全局状态修改
func (g *Generator) Update(t float64, generated int) (int, bool) {
	if g.rate <= 0 {
		return 0, false
	}
	if t-g.lastAdded < 60/g.rate {
		return 0, false
	}
	idx := g.generator.DiscreteDistribution(g.weights)
	path := g.routes[idx].path
	roadID := path[0]
	r := g.inbound[roadID]
	if back := r.Back(); back != nil && back.S() <= spawnGap {
		return 0, false
	}
	r.Enter(New(generated, path))
	g.lastAdded = t
	return roadID, true
}

// InboundRoads 获取入口道路ID集合
// 返回：升序排列的入口道路ID（每条路径的首条道路）
func (g *Generator) InboundRoads() []int {
	return g.inboundIDs
}

// OutboundRoads 获取出口道路ID集合
// 返回：升序排列的出口道路ID（多段路径的末条道路）
func (g *Generator) OutboundRoads() []int {
	return g.outboundIDs
}
