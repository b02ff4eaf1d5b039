package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"360"` // 需要大于排课任务的运行时间
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"60"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"教务管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD,required"`
		} `envPrefix:"USER_"`
		RandomTeachers int `env:"RANDOM_TEACHERS" envDefault:"12"`
		RandomSections int `env:"RANDOM_SECTIONS" envDefault:"6"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain      string `env:"USER_DOMAIN" envDefault:"mail2.sysu.edu.cn"`
		ReportRecipient string `env:"REPORT_RECIPIENT"` // 为空时不发送排课报告
		SMTP            struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		LockExpiration      int    `env:"LOCK_EXPIRATION" envDefault:"600"`      // 排课锁的过期时间
		ResultExpiration    int    `env:"RESULT_EXPIRATION" envDefault:"604800"` // 7 天
	} `envPrefix:"REDIS_"`
	Optimizer struct {
		Workers    int   `env:"WORKERS" envDefault:"4"`
		Seed       int64 `env:"SEED" envDefault:"0"`
		RunTimeout int   `env:"RUN_TIMEOUT" envDefault:"300"`
		MOGA       struct {
			PopulationSize         int     `env:"POPULATION_SIZE" envDefault:"50"`
			MaxGenerations         int     `env:"MAX_GENERATIONS" envDefault:"100"`
			CrossoverRate          float64 `env:"CROSSOVER_RATE" envDefault:"0.8"`
			MutationRate           float64 `env:"MUTATION_RATE" envDefault:"0.1"`
			MinMutationRate        float64 `env:"MIN_MUTATION_RATE" envDefault:"0.02"`
			ConflictMutationFactor float64 `env:"CONFLICT_MUTATION_FACTOR" envDefault:"3"`
			EliteCount             int     `env:"ELITE_COUNT" envDefault:"2"`
			StagnationLimit        int     `env:"STAGNATION_LIMIT" envDefault:"30"`
			TimeLimit              int     `env:"TIME_LIMIT" envDefault:"60"`
			Weights                Weights `envPrefix:"WEIGHT_"`
		} `envPrefix:"MOGA_"`
		Genetic struct {
			PopulationSize int     `env:"POPULATION_SIZE" envDefault:"30"`
			MaxGenerations int     `env:"MAX_GENERATIONS" envDefault:"50"`
			CrossoverRate  float64 `env:"CROSSOVER_RATE" envDefault:"0.7"`
			MutationRate   float64 `env:"MUTATION_RATE" envDefault:"0.2"`
			Weights        Weights `envPrefix:"WEIGHT_"`
		} `envPrefix:"GENETIC_"`
		HillClimbing struct {
			MaxIterations      int     `env:"MAX_ITERATIONS" envDefault:"1000"`
			Neighbors          int     `env:"NEIGHBORS" envDefault:"100"`
			NoImprovementLimit int     `env:"NO_IMPROVEMENT_LIMIT" envDefault:"50"`
			Weights            Weights `envPrefix:"WEIGHT_"`
		} `envPrefix:"HILL_CLIMBING_"`
		AntColony struct {
			Ants              int     `env:"ANTS" envDefault:"20"`
			MaxIterations     int     `env:"MAX_ITERATIONS" envDefault:"50"`
			EvaporationRate   float64 `env:"EVAPORATION_RATE" envDefault:"0.5"`
			Alpha             float64 `env:"ALPHA" envDefault:"1"`
			Beta              float64 `env:"BETA" envDefault:"2"`
			Deposit           float64 `env:"DEPOSIT" envDefault:"1"`
			InitialPheromone  float64 `env:"INITIAL_PHEROMONE" envDefault:"1"`
			ConflictHeuristic float64 `env:"CONFLICT_HEURISTIC" envDefault:"0.01"`
			Weights           Weights `envPrefix:"WEIGHT_"`
		} `envPrefix:"ANT_COLONY_"`
	} `envPrefix:"OPTIMIZER_"`
	Telemetry struct {
		Enabled        bool `env:"ENABLED" envDefault:"true"`
		ExportInterval int  `env:"EXPORT_INTERVAL" envDefault:"60"`
	} `envPrefix:"TELEMETRY_"`
}

// Weights: 各算法的加权得分系数，没有设置的字段保留 defaultWeights 中的值
type Weights struct {
	Base            float64 `env:"BASE"`
	TeacherConflict float64 `env:"TEACHER_CONFLICT"`
	SectionConflict float64 `env:"SECTION_CONFLICT"`
	LoadVariance    float64 `env:"LOAD_VARIANCE"`
	Suitability     float64 `env:"SUITABILITY"`
	Floor           float64 `env:"FLOOR"`
}

// 各算法的权重不同，无法用 envDefault 表达，因此在解析之前预先填好
func defaultWeights(cfg *Config) {
	cfg.Optimizer.MOGA.Weights = Weights{TeacherConflict: 50, SectionConflict: 50, LoadVariance: 2, Suitability: 1}
	cfg.Optimizer.Genetic.Weights = Weights{Base: 1000, TeacherConflict: 15, SectionConflict: 15, Suitability: 2, Floor: 1}
	cfg.Optimizer.HillClimbing.Weights = Weights{TeacherConflict: 10, SectionConflict: 10, LoadVariance: 2, Suitability: 1}
	cfg.Optimizer.AntColony.Weights = Weights{Base: 100, TeacherConflict: 10, SectionConflict: 10, LoadVariance: 2, Suitability: 1, Floor: 0.1}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	defaultWeights(cfg)

	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}
