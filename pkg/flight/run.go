package flight

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shiwa/quadctl/internal/actuator"
	"github.com/shiwa/quadctl/internal/allocator"
	"github.com/shiwa/quadctl/internal/companion"
	"github.com/shiwa/quadctl/internal/config"
	"github.com/shiwa/quadctl/internal/feedback"
	"github.com/shiwa/quadctl/internal/feedbackselect"
	"github.com/shiwa/quadctl/internal/link"
	"github.com/shiwa/quadctl/internal/logger"
	"github.com/shiwa/quadctl/internal/params"
	"github.com/shiwa/quadctl/internal/rtsched"
	"github.com/shiwa/quadctl/internal/telemetry"
)

// PilotReader: последний кадр PILOT (реализуется *link.Hub).
type PilotReader interface {
	Pilot() (link.Pilot, time.Time, bool)
}

// FeedbackReader: оценка ориентации для текущего цикла (реализуется *feedbackselect.Election).
type FeedbackReader interface {
	Read() (feedback.Attitude, bool)
}

// StatusWriter: отправка состояния режима полётному стеку (реализуется *link.Hub).
type StatusWriter interface {
	WriteStatus(link.Status) error
}

// Loop: один такт демона: чтение входов, вход в режим, цикл управления.
//
// Вход в режим (с проверкой PreflightOK) выполняется на каждом взведении по свежему кадру PILOT.
// Снятие взведения или потеря PILOT выводят контроллер из режима.
type Loop struct {
	Controller   *Controller
	Pilot        PilotReader
	Feedback     FeedbackReader
	Status       StatusWriter // nil: состояние не отправляется
	PilotTimeout time.Duration
	Mass, G      float64

	refused       bool
	failing       bool
	statusFailing bool
}

// Inputs собирает входы цикла. pilotOK = false, если PILOT нет или он старше PilotTimeout;
// тогда Lifecycle нулевой (аппарат не взведён).
func (l *Loop) Inputs(now time.Time) (in Inputs, pilotOK bool) {
	if p, at, ok := l.Pilot.Pilot(); ok && (l.PilotTimeout <= 0 || now.Sub(at) <= l.PilotTimeout) {
		in.Setpoints, in.Lifecycle = FromPilot(p, l.Mass, l.G)
		pilotOK = true
	}
	in.Attitude, in.FeedbackOK = l.Feedback.Read()
	return in, pilotOK
}

// Tick выполняет один такт.
func (l *Loop) Tick(now time.Time) (CycleResult, error) {
	res, err := l.tick(now)
	l.sendStatus(res)
	return res, err
}

func (l *Loop) tick(now time.Time) (CycleResult, error) {
	in, pilotOK := l.Inputs(now)
	c := l.Controller
	if !pilotOK || !in.Lifecycle.Armed {
		l.refused = false
		if c.Engaged() {
			if !pilotOK {
				logger.Info("PILOT потерян: выход из режима")
			}
			err := c.Exit()
			return c.idleCycle(), err
		}
		return c.idleCycle(), c.writeIdle()
	}
	if !c.Engaged() {
		if !c.Enter(false, in.Lifecycle) {
			if !l.refused {
				logger.Info("вход в режим отклонён: газ %.2f выше порога %.2f на земле", in.Lifecycle.Throttle, in.Lifecycle.NonTakeoff)
				l.refused = true
			}
			return c.idleCycle(), c.writeIdle()
		}
		if l.refused {
			logger.Info("вход в режим выполнен")
			l.refused = false
		}
	}
	res, err := c.Cycle(in)
	switch {
	case err != nil && !l.failing:
		logger.Error("цикл: %v", err)
		l.failing = true
	case err == nil && l.failing:
		logger.Info("цикл восстановлен")
		l.failing = false
	}
	if res.State == Active {
		logger.Debug("u=(%.4f %.4f %.4f %.3f) w=%v pwm=%v", res.Demand.Roll, res.Demand.Pitch, res.Demand.Yaw, res.Demand.Thrust, res.Output.Speed, res.Physical)
	}
	return res, err
}

func (l *Loop) sendStatus(res CycleResult) {
	if l.Status == nil {
		return
	}
	err := l.Status.WriteStatus(link.Status{Active: res.State == Active, ClearLanded: res.ClearLanded})
	switch {
	case err != nil && !l.statusFailing:
		logger.Error("STATUS: %v", err)
		l.statusFailing = true
	case err == nil:
		l.statusFailing = false
	}
}

// LoadParams загружает параметры аппарата из конфига (пустой путь: встроенные).
func LoadParams(c config.AirframeConfig) (*params.Parameters, error) {
	p := params.Default()
	if c.ParamsFile != "" {
		var err error
		if p, err = params.Load(c.ParamsFile); err != nil {
			return nil, err
		}
	}
	if c.ArmLength > 0 {
		return p.WithArmLength(c.ArmLength)
	}
	return p, nil
}

// AllocatorConfig строит конфигурацию распределения (диапазон команд берётся у исполнительного устройства).
func AllocatorConfig(c *config.Config) (allocator.Config, error) {
	policy, err := allocator.ParsePolicy(c.Allocation.Infeasible)
	if err != nil {
		return allocator.Config{}, err
	}
	var mixer *allocator.Mixer
	if m := c.Allocation.MixerMatrix(); m != nil {
		mm := allocator.Mixer(*m)
		mixer = &mm
	}
	return allocator.Config{
		ReferenceSpeed: c.Airframe.ReferenceSpeed,
		Policy:         policy,
		ClampOutput:    c.Allocation.ClampOutput,
		Mixer:          mixer,
		MotorMap:       c.Allocation.MotorTable(),
	}, nil
}

// LogOpener возвращает OpenLog для конфига журнала или nil, если журнал выключен.
func LogOpener(c config.TelemetryConfig) OpenLog {
	if !c.Enabled {
		return nil
	}
	return func(t time.Time) (telemetry.Recorder, error) {
		f, err := telemetry.Create(c.Dir, c.Prefix, t)
		if err != nil {
			return nil, err
		}
		logger.Info("журнал: %s", f.Path())
		if c.Async {
			return telemetry.NewQueue(f, c.QueueSize), nil
		}
		return f, nil
	}
}

// RunDaemon запускает цикл управления до отмены ctx.
func RunDaemon(ctx context.Context, cfg *config.Config, quiet bool) error {
	if cfg == nil {
		return fmt.Errorf("flight: config required")
	}
	logger.Quiet = quiet

	p, err := LoadParams(cfg.Airframe)
	if err != nil {
		return fmt.Errorf("parameters: %w", err)
	}
	logger.Info("параметры: b=%g d=%g l=%g rot=[%g, %g] m=%g", p.ThrustCoeff(), p.DragCoeff(), p.ArmLength(),
		p.RotationMin(), p.RotationMax(), p.LiftoffMass())

	jobs := make([]companion.Job, 0, len(cfg.Companions))
	for _, c := range cfg.Companions {
		jobs = append(jobs, companion.Job{Name: c.Name, Path: c.Path, Args: c.Args})
	}
	companions := companion.Start(jobs, quiet)
	defer companions.Stop()

	port, err := link.Open(cfg.Link.Port, cfg.Link.Baud, 100*time.Millisecond)
	if err != nil {
		return err
	}
	hub := link.NewHub(port)
	hub.Start()
	defer hub.Close()

	var primary, secondary []feedback.Source
	for _, list := range []struct {
		name string
		src  []config.FeedbackSource
		dst  *[]feedback.Source
	}{
		{"primary", cfg.Feedback.Primary, &primary},
		{"secondary", cfg.Feedback.Secondary, &secondary},
	} {
		for _, c := range list.src {
			s, err := feedback.NewFromConfig(c, hub, cfg.Control.FeedbackTimeoutDuration())
			if err != nil {
				logger.Info("%s %s: %v", list.name, c.Kind, err)
				continue
			}
			*list.dst = append(*list.dst, s)
		}
	}
	election := feedbackselect.NewElection(primary, secondary)
	defer func() {
		for _, s := range election.Sources() {
			_ = s.Close()
		}
	}()
	if len(primary) == 0 && len(secondary) == 0 {
		return fmt.Errorf("flight: no usable feedback source")
	}

	act, err := actuator.New(cfg.Actuator, hub)
	if err != nil {
		return err
	}
	defer act.Close()

	ac, err := AllocatorConfig(cfg)
	if err != nil {
		return err
	}
	interval := cfg.Control.IntervalDuration()
	ctrl, err := NewController(Options{
		Params:     p,
		Allocation: ac,
		Actuator:   act,
		Idle:       cfg.Actuator.IdleCommand(),
		OpenLog:    LogOpener(cfg.Telemetry),
		MaxPeriod:  interval + interval/2,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Exit(); err != nil {
			logger.Error("выход из режима: %v", err)
		}
	}()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := rtsched.Apply(rtsched.Options{
		LockMemory: cfg.Realtime.LockMemory,
		Priority:   cfg.Realtime.Priority,
		CPU:        cfg.Realtime.CPU,
	}); err != nil {
		logger.Error("realtime: %v", err)
	}
	if policy, prio, err := rtsched.Policy(); err == nil {
		logger.Info("планировщик: %s, приоритет %d, разрешение часов %v", policy, prio, rtsched.ClockResolution())
	}

	loop := &Loop{
		Controller:   ctrl,
		Pilot:        hub,
		Feedback:     election,
		Status:       hub,
		PilotTimeout: cfg.Control.PilotTimeoutDuration(),
		Mass:         p.LiftoffMass(),
		G:            cfg.Airframe.Gravity,
	}

	logger.Info("цикл управления: %v, порт %s, выходы %s, источников ориентации primary=%d secondary=%d",
		interval, cfg.Link.Port, cfg.Actuator.Driver, len(primary), len(secondary))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-hub.Done():
			return fmt.Errorf("link: %w", hub.Err())
		case now := <-ticker.C:
			_, _ = loop.Tick(now)
		}
	}
}
