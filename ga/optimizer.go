package ga

import (
	"context"
	"math"
	"sort"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalopt/engine"
	"github.com/tsinghua-fib-lab/signalopt/utils/randengine"
)

const (
	// GeneMin 基因（相位时长）下界（秒）
	GeneMin = 5
	// GeneMax 基因（相位时长）上界（秒）
	GeneMax = 90
	// mutationJitter 变异扰动幅度（秒），扰动量均匀取自[-jitter, jitter]
	mutationJitter = 10
	// DefaultMutationRate 默认逐基因变异概率
	DefaultMutationRate = 0.1

	// ErrorFitness 引擎构建或推进失败时的适应度哨兵值
	ErrorFitness = -1.0
	// LowTrafficFitness 全程生成车辆不足3辆时的适应度哨兵值
	LowTrafficFitness = -10000.0
	// collisionPenalty 碰撞惩罚系数
	collisionPenalty = 1000.0
	// waitPenalty 平均等待时间惩罚系数
	waitPenalty = 2.0
)

// Factory 场景工厂
// 功能：根据候选解构建一个全新的仿真引擎
// 参数：config-相位时长候选解（可为nil，此时使用场景默认配时），render-是否附加显示协作方
// 说明：每次调用必须返回独立的引擎实例，实例间不共享任何可变状态
type Factory func(config []int, render bool) (*engine.Engine, error)

// Candidate 候选解
// 说明：整数相位时长向量，长度等于场景内所有信号控制器的相位数之和，
// 由场景工厂按约定顺序切片分配给各控制器
type Candidate = []int

// scored 候选解及其适应度
type scored struct {
	config  Candidate
	fitness float64
}

// Optimizer 遗传算法优化器
// 功能：以仿真引擎为适应度预言机的种群搜索，优化信号配时以最大化通行量、
// 约束等待时间并杜绝碰撞
// 说明：遗传操作使用优化器私有的随机数引擎；相同的种子、种群规模、
// 代数与场景下两次运行的结果完全一致
type Optimizer struct {
	PopulationSize int     // 种群规模
	Generations    int     // 代数
	SolutionLength int     // 候选解长度
	MutationRate   float64 // 逐基因变异概率

	// ProgressFunc 进度通知回调（可选）
	// 说明：尽力而为的通知，回调中的panic会被捕获并忽略，绝不中断搜索
	ProgressFunc func(generation, total int, bestFitness float64)

	bestConfig  Candidate // 历代最优候选解
	bestFitness float64   // 历代最优适应度

	generator *randengine.Engine
}

// NewOptimizer 创建遗传算法优化器
// 功能：初始化优化器参数与随机数引擎
// 参数：populationSize-种群规模，generations-代数，
// solutionLength-候选解长度（场景所有信控的相位数之和），seed-随机数种子
// 返回：初始化完成的优化器实例
func NewOptimizer(populationSize, generations, solutionLength int, seed uint64) *Optimizer {
	return &Optimizer{
		PopulationSize: populationSize,
		Generations:    generations,
		SolutionLength: solutionLength,
		MutationRate:   DefaultMutationRate,
		bestFitness:    math.Inf(-1),
		generator:      randengine.New(seed),
	}
}

// initPopulation 初始化种群
// 功能：生成populationSize个候选解，基因在[GeneMin, GeneMax]内均匀取值
// 返回：初始种群
func (o *Optimizer) initPopulation() []Candidate {
	population := make([]Candidate, o.PopulationSize)
	for i := range population {
		individual := make([]int, o.SolutionLength)
		for j := range individual {
			individual[j] = o.generator.IntBetween(GeneMin, GeneMax)
		}
		population[i] = individual
	}
	return population
}

// CrossoverAt 单点交叉
// 功能：在指定交叉点拼接两个父代
// 参数：parent1/parent2-父代，cp-交叉点（基因下标，前cp个基因取自parent1）
// 返回：子代候选解
// 说明：父代长度不一致或长度小于2时返回parent1的副本
func CrossoverAt(parent1, parent2 Candidate, cp int) Candidate {
	if len(parent1) != len(parent2) || len(parent1) < 2 {
		return append(Candidate(nil), parent1...)
	}
	child := make(Candidate, 0, len(parent1))
	child = append(child, parent1[:cp]...)
	child = append(child, parent2[cp:]...)
	return child
}

// crossover 单点交叉（随机交叉点）
// 功能：交叉点在[1, 长度-1]内均匀抽取
// 说明：父代长度不一致或过短时不消耗随机数，直接复制parent1
func (o *Optimizer) crossover(parent1, parent2 Candidate) Candidate {
	if len(parent1) != len(parent2) || len(parent1) < 2 {
		return append(Candidate(nil), parent1...)
	}
	cp := o.generator.IntBetween(1, len(parent1)-1)
	return CrossoverAt(parent1, parent2, cp)
}

// Mutate 逐基因变异
// 功能：每个基因以给定概率独立变异，扰动量为[-10,10]内的均匀整数，
// 变异后钳制到[GeneMin, GeneMax]
// 参数：individual-候选解，rate-逐基因变异概率
// 返回：变异后的候选解副本
func (o *Optimizer) Mutate(individual Candidate, rate float64) Candidate {
	child := append(Candidate(nil), individual...)
	for i := range child {
		if o.generator.PTrue(rate) {
			delta := o.generator.IntBetween(-mutationJitter, mutationJitter)
			child[i] = lo.Clamp(child[i]+delta, GeneMin, GeneMax)
		}
	}
	return child
}

// EvaluateFitness 评估单个候选解的适应度
// 功能：通过场景工厂构建全新引擎，按固定步长推进至时间预算、碰撞或外部停止，
// 从最终指标计算适应度
// 参数：individual-候选解，factory-场景工厂，simTime-仿真时间预算（秒）
// 返回：适应度
// 算法说明：
// 1. flow = 完成行程车辆数 / 时间预算
// 2. fitness = flow - 2*平均等待时间 - 1000*碰撞
// 3. 保护：全程生成车辆不足3辆时强制返回-10000
// 4. 构建或推进中的任何失败（含panic）转换为-1哨兵值，绝不向外传播
func (o *Optimizer) EvaluateFitness(individual Candidate, factory Factory, simTime float64) (fitness float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("error in simulation: %v", r)
			fitness = ErrorFitness
		}
	}()

	eng, err := factory(append(Candidate(nil), individual...), false)
	if err != nil {
		log.Errorf("error in simulation: %v", err)
		return ErrorFitness
	}

	for eng.T() < simTime && !eng.Stopped() && !eng.CollisionDetected() {
		eng.Step()
	}

	avgWait := eng.AverageWaitTime()
	done := float64(eng.VehiclesCompleted())
	collided := .0
	if eng.CollisionDetected() {
		collided = 1
	}
	flow := done / math.Max(simTime, 1)
	fitness = flow - waitPenalty*avgWait - collisionPenalty*collided

	if eng.VehiclesGenerated() < 3 {
		return LowTrafficFitness
	}
	return fitness
}

// Run 执行遗传算法搜索
// 功能：运行generations轮代际循环，返回历代最优候选解
// 参数：ctx-取消上下文（每代开始时检查），factory-场景工厂，simTime-每次评估的仿真时间预算（秒）
// 返回：历代最优候选解、其适应度和错误信息
// 算法说明：
// 1. 评估：对每个候选解独立构建引擎并评估适应度（候选解间相互独立，并行执行，
//    结果与串行逐一评估完全一致）
// 2. 排序：按适应度降序稳定排序，更新历代最优（严格更优才替换）
// 3. 精英保留：前一半（至少2个）原样进入下一代父代池
// 4. 繁殖：均匀有放回地抽取两个父代，单点交叉后逐基因变异，填满剩余名额
// 说明：输出是跨所有代的历代最优，而非末代种群
func (o *Optimizer) Run(ctx context.Context, factory Factory, simTime float64) (Candidate, float64, error) {
	log.Infof("starting GA optimization with %d population, %d generations", o.PopulationSize, o.Generations)

	population := o.initPopulation()

	for gen := 0; gen < o.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return o.bestConfig, o.bestFitness, err
		}
		log.Infof("generation %d/%d", gen+1, o.Generations)

		fitnesses := parallel.GoMap(population, func(individual Candidate) float64 {
			return o.EvaluateFitness(individual, factory, simTime)
		})
		generation := lo.Map(population, func(individual Candidate, i int) scored {
			return scored{config: individual, fitness: fitnesses[i]}
		})
		sort.SliceStable(generation, func(i, j int) bool {
			return generation[i].fitness > generation[j].fitness
		})

		// 历代最优
		if generation[0].fitness > o.bestFitness {
			o.bestFitness = generation[0].fitness
			o.bestConfig = append(Candidate(nil), generation[0].config...)
		}
		log.Infof("best fitness in generation %d: %v", gen+1, generation[0].fitness)

		o.notifyProgress(gen+1, o.Generations, generation[0].fitness)

		// 下一代
		if gen < o.Generations-1 {
			parents := lo.Map(generation[:max(2, o.PopulationSize/2)], func(s scored, _ int) Candidate {
				return s.config
			})
			newPop := append([]Candidate(nil), parents...)
			for len(newPop) < o.PopulationSize {
				p1 := parents[o.generator.Intn(len(parents))]
				p2 := parents[o.generator.Intn(len(parents))]
				child := o.crossover(p1, p2)
				child = o.Mutate(child, o.MutationRate)
				newPop = append(newPop, child)
			}
			population = newPop
		}
	}

	return o.bestConfig, o.bestFitness, nil
}

// notifyProgress 发送进度通知
// 功能：调用进度回调并捕获其中的panic
// 说明：通知失败绝不中断代际循环
func (o *Optimizer) notifyProgress(generation, total int, bestFitness float64) {
	if o.ProgressFunc == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("progress callback panicked: %v", r)
		}
	}()
	o.ProgressFunc(generation, total, bestFitness)
}

// Best 获取历代最优候选解及其适应度
// 返回：历代最优候选解（尚无评估时为nil）和适应度
func (o *Optimizer) Best() (Candidate, float64) {
	return o.bestConfig, o.bestFitness
}
