package main

import (
	"context"
	"flag"
	"time"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/signalopt/ga"
	"github.com/tsinghua-fib-lab/signalopt/scenario"
	"github.com/tsinghua-fib-lab/signalopt/utils/config"
)

var (
	// 场景编号
	scenarioID = flag.Int("scenario", 1, "scenario id (1..5)")
	// 种群规模
	pop = flag.Int("pop", 20, "population size")
	// 代数
	gens = flag.Int("gens", 50, "number of generations")
	// 每次评估的仿真时间预算（秒）
	simTime = flag.Float64("sim-time", 60, "simulation time budget per evaluation in seconds")
	// 随机数种子
	seed = flag.Uint64("seed", 42, "random seed")
	// 结果JSON文件路径
	outPath = flag.String("out", "best_config.json", "output path for the best config")
	// 优化结束后回放最优配时
	render = flag.Bool("render", false, "replay the best config after optimizing")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path (flags take precedence)")
	// MongoDB连接串，为空则不写库
	mongoURI = flag.String("mongo.uri", "", "MongoDB URI for result persistence (empty means disabled)")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "signalopt")
)

// loadConfig 合并配置文件与命令行标志
// 功能：以默认配置为底，配置文件覆盖默认值，显式给出的标志覆盖配置文件
// 返回：最终生效的运行配置
func loadConfig() config.Config {
	c := config.Default()
	if *configPath != "" {
		var err error
		if c, err = config.Load(*configPath); err != nil {
			log.Panicf("config load err: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scenario":
			c.Scenario = *scenarioID
		case "pop":
			c.GA.Population = *pop
		case "gens":
			c.GA.Generations = *gens
		case "sim-time":
			c.GA.SimTime = *simTime
		case "seed":
			c.GA.Seed = *seed
		case "out":
			c.Output.Path = *outPath
		case "mongo.uri":
			c.Output.MongoURI = *mongoURI
		}
	})
	return c
}

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}

	c := loadConfig()

	s, err := scenario.Get(c.Scenario)
	if err != nil {
		log.Panicf("scenario err: %v", err)
	}
	log.Infof("scenario %d (%s): %d signals, solution length %d",
		s.ID, s.Name, len(s.PhasesPerSignal), s.SolutionLength())

	optimizer := ga.NewOptimizer(c.GA.Population, c.GA.Generations, s.SolutionLength(), c.GA.Seed)
	if c.GA.MutationRate > 0 {
		optimizer.MutationRate = c.GA.MutationRate
	}

	bestConfig, bestFitness, err := optimizer.Run(context.Background(), s.Factory(), c.GA.SimTime)
	if err != nil {
		log.Panicf("optimization err: %v", err)
	}
	log.Infof("best config: %v", bestConfig)
	log.Infof("best fitness: %v", bestFitness)

	if err := ga.SaveResult(c.Output.Path, optimizer.Result()); err != nil {
		log.Errorf("result save err: %v", err)
	} else {
		log.Infof("result saved to %s", c.Output.Path)
	}

	if c.Output.MongoURI != "" {
		saveToMongo(c, s.Name, optimizer.Result())
	}

	if *render {
		replayBest(s, bestConfig, c.GA.SimTime)
	}
}

// saveToMongo 将优化结果写入MongoDB
// 说明：写库是尽力而为的附加输出，失败只告警不中断
func saveToMongo(c config.Config, scenarioName string, result ga.Result) {
	client, err := ga.ConnectMongo(c.Output.MongoURI)
	if err != nil {
		log.Warnf("mongo connect err: %v", err)
		return
	}
	defer client.Disconnect(context.Background())
	coll := &ga.MongoResultCollection{
		Collection: client.Database("signalopt").Collection("results"),
	}
	doc := ga.ResultDoc{
		Scenario:    scenarioName,
		BestConfig:  result.BestConfig,
		BestFitness: result.BestFitness,
		Params:      result.Params,
		CreatedAt:   time.Now(),
	}
	if err := coll.InsertResult(context.Background(), doc); err != nil {
		log.Warnf("mongo insert err: %v", err)
		return
	}
	log.Info("result saved to MongoDB")
}

// replayBest 用最优配时回放仿真
// 功能：构建附带日志显示的新引擎并推进一个时间预算
func replayBest(s *scenario.Scenario, bestConfig []int, simTime float64) {
	eng, err := s.Build(bestConfig, true)
	if err != nil {
		log.Errorf("replay build err: %v", err)
		return
	}
	log.Infof("replaying best config on scenario %s", s.Name)
	eng.RunFor(simTime)
	log.Infof("replay done: t=%v, generated=%d, completed=%d, collision=%v, avg wait=%v",
		eng.T(), eng.VehiclesGenerated(), eng.VehiclesCompleted(),
		eng.CollisionDetected(), eng.AverageWaitTime())
}
