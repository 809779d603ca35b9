package start

import (
	"fmt"

	"sucaiku/pkg/core/config"
	"sucaiku/pkg/core/logger"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppName string             `yaml:"app-name"`
	Env     string             `yaml:"env"`
	Host    string             `yaml:"host"`
	Port    int                `yaml:"port"`
	Domain  string             `yaml:"domain"`
	Log     config.LogConfig   `yaml:"log"`
	Oss     config.OssConfig   `yaml:"oss"`
	Media   config.MediaConfig `yaml:"media"`
}

type Configures struct {
	Config Config
	Logger *logger.Log
}

func NewConfigures(file []byte, env string) *Configures {
	var cfg Config
	err := yaml.Unmarshal(file, &cfg)
	if err != nil {
		panic(fmt.Sprintf("读取文件信息失败，因为%v", err))
	}

	cfg.Env = env

	level := cfg.Log.Level
	if level == "" {
		level = "debug"
	}

	return &Configures{
		Config: cfg,
		Logger: logger.InitLogger(level),
	}
}
