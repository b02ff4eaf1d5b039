package runner

import (
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
)

func weights(w config.Weights) scheduler.Weights {
	return scheduler.Weights{
		Base:            w.Base,
		TeacherConflict: w.TeacherConflict,
		SectionConflict: w.SectionConflict,
		LoadVariance:    w.LoadVariance,
		Suitability:     w.Suitability,
		Floor:           w.Floor,
	}
}

// ParametersFromConfig 把环境变量中的算法配置转换为排课参数
func ParametersFromConfig(cfg *config.Config) *scheduler.Parameters {
	opt := cfg.Optimizer

	return &scheduler.Parameters{
		Workers: opt.Workers,
		Seed:    opt.Seed,
		MOGA: scheduler.MOGAParameters{
			PopulationSize:         opt.MOGA.PopulationSize,
			MaxGenerations:         opt.MOGA.MaxGenerations,
			CrossoverRate:          opt.MOGA.CrossoverRate,
			MutationRate:           opt.MOGA.MutationRate,
			MinMutationRate:        opt.MOGA.MinMutationRate,
			ConflictMutationFactor: opt.MOGA.ConflictMutationFactor,
			EliteCount:             opt.MOGA.EliteCount,
			StagnationLimit:        opt.MOGA.StagnationLimit,
			TimeLimit:              time.Duration(opt.MOGA.TimeLimit) * time.Second,
			Weights:                weights(opt.MOGA.Weights),
		},
		Genetic: scheduler.GeneticParameters{
			PopulationSize: opt.Genetic.PopulationSize,
			MaxGenerations: opt.Genetic.MaxGenerations,
			CrossoverRate:  opt.Genetic.CrossoverRate,
			MutationRate:   opt.Genetic.MutationRate,
			Weights:        weights(opt.Genetic.Weights),
		},
		HillClimbing: scheduler.HillClimbingParameters{
			MaxIterations:      opt.HillClimbing.MaxIterations,
			Neighbors:          opt.HillClimbing.Neighbors,
			NoImprovementLimit: opt.HillClimbing.NoImprovementLimit,
			Weights:            weights(opt.HillClimbing.Weights),
		},
		AntColony: scheduler.AntColonyParameters{
			Ants:              opt.AntColony.Ants,
			MaxIterations:     opt.AntColony.MaxIterations,
			EvaporationRate:   opt.AntColony.EvaporationRate,
			Alpha:             opt.AntColony.Alpha,
			Beta:              opt.AntColony.Beta,
			Deposit:           opt.AntColony.Deposit,
			InitialPheromone:  opt.AntColony.InitialPheromone,
			ConflictHeuristic: opt.AntColony.ConflictHeuristic,
			Weights:           weights(opt.AntColony.Weights),
		},
	}
}
