package ga

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Params 一次优化运行的参数快照
type Params struct {
	PopulationSize int `json:"population_size"`
	Generations    int `json:"generations"`
	SolutionLength int `json:"solution_length"`
}

// Result 优化结果
// 说明：best_config为历代最优候选解，best_fitness为其适应度
type Result struct {
	BestConfig  Candidate `json:"best_config"`
	BestFitness float64   `json:"best_fitness"`
	Params      Params    `json:"optimization_params"`
}

// Result 导出优化结果
// 功能：将历代最优与运行参数打包为可持久化的结果对象
func (o *Optimizer) Result() Result {
	return Result{
		BestConfig:  o.bestConfig,
		BestFitness: o.bestFitness,
		Params: Params{
			PopulationSize: o.PopulationSize,
			Generations:    o.Generations,
			SolutionLength: o.SolutionLength,
		},
	}
}

// SaveResult 保存优化结果到JSON文件
// 参数：path-输出文件路径（父目录不存在时自动创建），result-优化结果
// 返回：错误信息
func SaveResult(path string, result Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadBestConfig 从结果文件加载最优配时
// 参数：path-结果文件路径
// 返回：最优候选解，文件缺失或损坏时返回nil并记录警告
func LoadBestConfig(path string) Candidate {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("failed to read result file %s: %v", path, err)
		return nil
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		log.Warnf("failed to parse result file %s: %v", path, err)
		return nil
	}
	return result.BestConfig
}
