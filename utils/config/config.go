// Package config 运行配置
// 功能：定义优化运行的YAML配置结构并提供加载入口
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// GA 遗传算法配置
type GA struct {
	Population   int     `yaml:"population"`              // 种群规模
	Generations  int     `yaml:"generations"`             // 代数
	SimTime      float64 `yaml:"sim_time"`                // 每次评估的仿真时间预算（秒）
	Seed         uint64  `yaml:"seed"`                    // 随机数种子
	MutationRate float64 `yaml:"mutation_rate,omitempty"` // 逐基因变异概率，0表示使用默认值
}

// Output 结果输出配置
type Output struct {
	Path     string `yaml:"path"`                // 结果JSON文件路径
	MongoURI string `yaml:"mongo_uri,omitempty"` // MongoDB连接串，为空则不写库
}

// Config 运行配置
// 说明：与命令行标志一一对应，显式给出的标志优先于配置文件
type Config struct {
	Scenario int    `yaml:"scenario"` // 场景编号
	GA       GA     `yaml:"ga"`
	Output   Output `yaml:"output"`
}

// Default 默认运行配置
func Default() Config {
	return Config{
		Scenario: 1,
		GA: GA{
			Population:  20,
			Generations: 50,
			SimTime:     60,
			Seed:        42,
		},
		Output: Output{
			Path: "best_config.json",
		},
	}
}

// Load 从YAML文件加载运行配置
// 功能：在默认配置的基础上用文件内容覆盖
// 参数：path-配置文件路径
// 返回：加载后的配置和错误信息，未知字段视为错误
func Load(path string) (Config, error) {
	c := Default()
	file, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config file load err: %w", err)
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		return c, fmt.Errorf("config file parse err: %w", err)
	}
	return c, nil
}
