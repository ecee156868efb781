// Package config: конфигурация quadctl (YAML).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config: конфигурация демона quadctl.
type Config struct {
	Airframe   AirframeConfig    `yaml:"airframe"`
	Control    ControlConfig     `yaml:"control"`
	Allocation AllocationConfig  `yaml:"allocation"`
	Actuator   ActuatorConfig    `yaml:"actuator"`
	Link       LinkConfig        `yaml:"link"`
	Feedback   FeedbackConfig    `yaml:"feedback"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`
	Companions []CompanionConfig `yaml:"companions"`
	Realtime   RealtimeConfig    `yaml:"realtime"`
}

// AirframeConfig: файл параметров аппарата и физические константы.
type AirframeConfig struct {
	ParamsFile     string  `yaml:"params_file"`     // пусто: встроенные параметры
	ArmLength      float64 `yaml:"arm_length"`      // м; 0: встроенное значение
	ReferenceSpeed float64 `yaml:"reference_speed"` // рад/с при полном диапазоне ШИМ
	Gravity        float64 `yaml:"gravity"`
}

// ControlConfig: период цикла и допустимый возраст входных данных.
type ControlConfig struct {
	Interval        string `yaml:"interval"`
	FeedbackTimeout string `yaml:"feedback_timeout"`
	PilotTimeout    string `yaml:"pilot_timeout"`
}

// AllocationConfig: политика недопустимых запросов и таблицы распределения.
type AllocationConfig struct {
	Infeasible  string      `yaml:"infeasible"` // clamp, reject
	ClampOutput bool        `yaml:"clamp_output"`
	Mixer       [][]float64 `yaml:"mixer"`
	MotorMap    []int       `yaml:"motor_map"`
}

// ActuatorConfig: драйвер выходов и диапазон команд.
type ActuatorConfig struct {
	Driver  string `yaml:"driver"` // link, pca9685, none
	PWMMin  int    `yaml:"pwm_min"`
	PWMMax  int    `yaml:"pwm_max"`
	Idle    *int   `yaml:"idle"` // nil: pwm_min
	I2CBus  string `yaml:"i2c_bus"`
	I2CAddr uint16 `yaml:"i2c_addr"`
	PWMFreq int    `yaml:"pwm_freq"` // Гц
}

// LinkConfig: последовательная линия к полётному стеку.
type LinkConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// FeedbackConfig: источники оценки ориентации (primary -> secondary).
type FeedbackConfig struct {
	Primary   []FeedbackSource `yaml:"primary"`
	Secondary []FeedbackSource `yaml:"secondary"`
}

// FeedbackSource: один источник (kind: link, replay).
type FeedbackSource struct {
	Kind    string `yaml:"kind"`
	Disable bool   `yaml:"disable"`
	// replay
	File string `yaml:"file"`
	Loop bool   `yaml:"loop"`
}

// TelemetryConfig: журнал полёта.
type TelemetryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Dir       string `yaml:"dir"`
	Prefix    string `yaml:"prefix"`
	Async     bool   `yaml:"async"`
	QueueSize int    `yaml:"queue_size"`
}

// CompanionConfig: внешний процесс, запускаемый вместе с демоном (AHRS, мост RC).
type CompanionConfig struct {
	Name string   `yaml:"name"`
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
}

// RealtimeConfig: настройка планировщика (linux).
type RealtimeConfig struct {
	LockMemory bool `yaml:"lock_memory"`
	Priority   int  `yaml:"priority"` // SCHED_FIFO 1..99, 0: не менять
	CPU        int  `yaml:"cpu"`      // -1: не привязывать
}

// Default возвращает конфиг по умолчанию
func Default() *Config {
	return &Config{
		Airframe: AirframeConfig{
			ReferenceSpeed: 1393.3,
			Gravity:        9.80665,
		},
		Control: ControlConfig{
			Interval:        "10ms",
			FeedbackTimeout: "50ms",
			PilotTimeout:    "500ms",
		},
		Allocation: AllocationConfig{
			Infeasible: "clamp",
			MotorMap:   []int{4, 2, 1, 3},
		},
		Actuator: ActuatorConfig{
			Driver:  "link",
			PWMMin:  1000,
			PWMMax:  2000,
			I2CBus:  "",
			I2CAddr: 0x40,
			PWMFreq: 400,
		},
		Link: LinkConfig{
			Port: "/dev/ttyAMA0",
			Baud: 115200,
		},
		Feedback: FeedbackConfig{
			Primary: []FeedbackSource{{Kind: "link"}},
		},
		Telemetry: TelemetryConfig{
			Enabled:   true,
			Dir:       ".",
			Prefix:    "IMS1",
			QueueSize: 256,
		},
		Realtime: RealtimeConfig{CPU: -1},
	}
}

// Load читает конфиг из YAML
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML и подставляет значения по умолчанию.
func Parse(data []byte) (*Config, error) {
	c := Default()
	// списки и указатели из YAML заменяют значения по умолчанию целиком
	c.Feedback = FeedbackConfig{}
	c.Allocation.MotorMap = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Airframe.ReferenceSpeed == 0 {
		c.Airframe.ReferenceSpeed = d.Airframe.ReferenceSpeed
	}
	if c.Airframe.Gravity == 0 {
		c.Airframe.Gravity = d.Airframe.Gravity
	}
	if c.Control.Interval == "" {
		c.Control.Interval = d.Control.Interval
	}
	if c.Control.FeedbackTimeout == "" {
		c.Control.FeedbackTimeout = d.Control.FeedbackTimeout
	}
	if c.Control.PilotTimeout == "" {
		c.Control.PilotTimeout = d.Control.PilotTimeout
	}
	if c.Allocation.Infeasible == "" {
		c.Allocation.Infeasible = d.Allocation.Infeasible
	}
	if len(c.Allocation.MotorMap) == 0 {
		c.Allocation.MotorMap = d.Allocation.MotorMap
	}
	if c.Actuator.Driver == "" {
		c.Actuator.Driver = d.Actuator.Driver
	}
	if c.Actuator.PWMMin == 0 && c.Actuator.PWMMax == 0 {
		c.Actuator.PWMMin, c.Actuator.PWMMax = d.Actuator.PWMMin, d.Actuator.PWMMax
	}
	if c.Actuator.I2CAddr == 0 {
		c.Actuator.I2CAddr = d.Actuator.I2CAddr
	}
	if c.Actuator.PWMFreq == 0 {
		c.Actuator.PWMFreq = d.Actuator.PWMFreq
	}
	if c.Link.Port == "" {
		c.Link.Port = d.Link.Port
	}
	if c.Link.Baud == 0 {
		c.Link.Baud = d.Link.Baud
	}
	if len(c.Feedback.Primary) == 0 && len(c.Feedback.Secondary) == 0 {
		c.Feedback = d.Feedback
	}
	if c.Telemetry.Prefix == "" {
		c.Telemetry.Prefix = d.Telemetry.Prefix
	}
	if c.Telemetry.Dir == "" {
		c.Telemetry.Dir = d.Telemetry.Dir
	}
	if c.Telemetry.QueueSize == 0 {
		c.Telemetry.QueueSize = d.Telemetry.QueueSize
	}
}

// Validate проверяет значения, которые нельзя исправить подстановкой по умолчанию.
func (c *Config) Validate() error {
	for name, s := range map[string]string{
		"control.interval":         c.Control.Interval,
		"control.feedback_timeout": c.Control.FeedbackTimeout,
		"control.pilot_timeout":    c.Control.PilotTimeout,
	} {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("config: %s must be > 0, got %v", name, d)
		}
	}
	if m := c.Allocation.Mixer; m != nil {
		if len(m) != 4 {
			return fmt.Errorf("config: allocation.mixer must have 4 rows, got %d", len(m))
		}
		for i, row := range m {
			if len(row) != 4 {
				return fmt.Errorf("config: allocation.mixer row %d must have 4 values, got %d", i+1, len(row))
			}
		}
	}
	if len(c.Allocation.MotorMap) != 4 {
		return fmt.Errorf("config: allocation.motor_map must have 4 entries, got %d", len(c.Allocation.MotorMap))
	}
	if c.Actuator.PWMMax < c.Actuator.PWMMin {
		return fmt.Errorf("config: actuator.pwm_max %d < pwm_min %d", c.Actuator.PWMMax, c.Actuator.PWMMin)
	}
	if c.Realtime.Priority < 0 || c.Realtime.Priority > 99 {
		return fmt.Errorf("config: realtime.priority must be in 0..99, got %d", c.Realtime.Priority)
	}
	return nil
}

// IntervalDuration возвращает период цикла управления.
func (c *ControlConfig) IntervalDuration() time.Duration {
	return parseDuration(c.Interval, 10*time.Millisecond)
}

// FeedbackTimeoutDuration возвращает допустимый возраст оценки ориентации.
func (c *ControlConfig) FeedbackTimeoutDuration() time.Duration {
	return parseDuration(c.FeedbackTimeout, 50*time.Millisecond)
}

// PilotTimeoutDuration возвращает допустимый возраст уставок пилота.
func (c *ControlConfig) PilotTimeoutDuration() time.Duration {
	return parseDuration(c.PilotTimeout, 500*time.Millisecond)
}

// IdleCommand возвращает команду холостого хода (по умолчанию pwm_min).
func (c *ActuatorConfig) IdleCommand() int {
	if c.Idle != nil {
		return *c.Idle
	}
	return c.PWMMin
}

// MixerMatrix возвращает матрицу смешивания из конфига или nil.
func (c *AllocationConfig) MixerMatrix() *[4][4]float64 {
	if len(c.Mixer) != 4 {
		return nil
	}
	var m [4][4]float64
	for i := range m {
		if len(c.Mixer[i]) != 4 {
			return nil
		}
		copy(m[i][:], c.Mixer[i])
	}
	return &m
}

// MotorTable возвращает таблицу "ротор -> выход".
func (c *AllocationConfig) MotorTable() [4]int {
	var t [4]int
	copy(t[:], c.MotorMap)
	return t
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
