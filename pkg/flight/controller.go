// Package flight: цикл управления ориентацией квадрокоптера (режим IMS1).
//
// Controller владеет корректорами крена, тангажа и рыскания, калибровочными смещениями
// и журналом полёта. Каждый вызов Cycle выполняет один полный такт:
// ошибка -> корректоры -> тяга -> распределение -> вывод -> запись журнала.
package flight

import (
	"errors"
	"fmt"
	"time"

	"github.com/shiwa/quadctl/internal/actuator"
	"github.com/shiwa/quadctl/internal/allocator"
	"github.com/shiwa/quadctl/internal/compensator"
	"github.com/shiwa/quadctl/internal/cyclestat"
	"github.com/shiwa/quadctl/internal/feedback"
	"github.com/shiwa/quadctl/internal/logger"
	"github.com/shiwa/quadctl/internal/params"
	"github.com/shiwa/quadctl/internal/telemetry"
)

// State: состояние контроллера.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Lifecycle: сигналы взведения и режима от полётного стека.
type Lifecycle struct {
	Armed          bool
	Interlock      bool
	ThrottleZero   bool
	LandComplete   bool
	ManualThrottle bool    // предыдущий режим управлял газом вручную
	Throttle       float64 // 0..1
	NonTakeoff     float64 // порог газа "не взлёт", 0..1
}

// Setpoints: уставки цикла в физических единицах.
type Setpoints struct {
	Roll, Pitch float64 // рад
	YawRate     float64 // рад/с
	Thrust      float64 // Н
	Throttle    float64 // 0..1, только для журнала
}

// Inputs: входы одного цикла.
type Inputs struct {
	Lifecycle  Lifecycle
	Setpoints  Setpoints
	Attitude   feedback.Attitude
	FeedbackOK bool // false: оценки ориентации нет или она устарела
}

// Offsets: калибровочные смещения AHRS, снятые при активации.
type Offsets struct {
	Roll, Pitch float64 // рад
	YawRate     float64 // рад/с
}

// CycleResult: результат цикла.
type CycleResult struct {
	State    State
	Demand   allocator.Demand
	Output   allocator.Output
	Physical [4]int // команды, выведенные на выходы 1..4
	// ClearLanded: полётный стек должен сбросить признак посадки.
	ClearLanded bool
	Logged      bool
}

// OpenLog открывает журнал активации, начатой в момент t.
type OpenLog func(t time.Time) (telemetry.Recorder, error)

// Options: зависимости контроллера.
type Options struct {
	Params     *params.Parameters
	Allocation allocator.Config // Min/Max берутся из Actuator.Range, если не заданы
	Actuator   actuator.Actuator
	Idle       int
	OpenLog    OpenLog // nil: без журнала
	// MaxPeriod: период активного цикла длиннее считается перерасходом (0: не считать).
	MaxPeriod time.Duration
	Now       func() time.Time
}

// ErrNotEngaged: Cycle до успешного Enter.
var ErrNotEngaged = errors.New("flight: mode not engaged")

// Controller: экземпляр цикла управления.
type Controller struct {
	params *params.Parameters
	alloc  *allocator.Allocator
	out    actuator.Actuator
	idle   int
	open   OpenLog
	now    func() time.Time

	roll, pitch, yaw compensator.Compensator

	engaged bool
	state   State
	offsets Offsets
	log     telemetry.Recorder
	logErrs int

	stats     *cyclestat.Window
	lastCycle time.Time
}

// NewController создаёт контроллер в состоянии Inactive с нулевой историей корректоров.
func NewController(o Options) (*Controller, error) {
	if o.Params == nil {
		return nil, fmt.Errorf("flight: parameters required")
	}
	if o.Actuator == nil {
		return nil, fmt.Errorf("flight: actuator required")
	}
	ac := o.Allocation
	if ac.Min == 0 && ac.Max == 0 {
		ac.Min, ac.Max = o.Actuator.Range()
	}
	p := o.Params
	alloc, err := allocator.New(allocator.Geometry{
		ThrustCoeff: p.ThrustCoeff(),
		DragCoeff:   p.DragCoeff(),
		ArmLength:   p.ArmLength(),
	}, ac)
	if err != nil {
		return nil, fmt.Errorf("flight: %w", err)
	}
	now := o.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		params: p,
		alloc:  alloc,
		out:    o.Actuator,
		idle:   o.Idle,
		open:   o.OpenLog,
		now:    now,
		roll:   compensator.New(p.Roll()),
		pitch:  compensator.New(p.Pitch()),
		yaw:    compensator.New(p.Yaw()),
		stats:  cyclestat.New(cyclestat.DefaultWindow, o.MaxPeriod),
	}, nil
}

// PreflightOK возвращает false, если вход в режим нужно отклонить: аппарат взведён и на земле,
// предыдущий режим не управлял газом вручную, а ручка газа выше порога "не взлёт".
func PreflightOK(lc Lifecycle) bool {
	return !(lc.Armed && lc.LandComplete && !lc.ManualThrottle && lc.Throttle > lc.NonTakeoff)
}

// Enter: вход в режим. При ignoreChecks == false выполняется PreflightOK; отказ возвращает false.
func (c *Controller) Enter(ignoreChecks bool, lc Lifecycle) bool {
	if !ignoreChecks && !PreflightOK(lc) {
		logger.Debug("вход в режим отклонён: газ %.2f выше порога %.2f на земле", lc.Throttle, lc.NonTakeoff)
		return false
	}
	c.engaged = true
	return true
}

// Engaged возвращает true после успешного Enter.
func (c *Controller) Engaged() bool { return c.engaged }

// active: условие активного цикла.
func active(in Inputs) bool {
	lc := in.Lifecycle
	return lc.Armed && lc.Interlock && !lc.ThrottleZero && in.FeedbackOK
}

// Cycle выполняет один цикл управления.
func (c *Controller) Cycle(in Inputs) (CycleResult, error) {
	if !c.engaged {
		return c.idleCycle(), ErrNotEngaged
	}
	if !active(in) {
		if c.state == Active {
			c.deactivate()
		}
		res := c.idleCycle()
		return res, c.writeIdle()
	}
	if c.state == Inactive {
		c.activate(in.Attitude)
	}
	c.trackPeriod()

	att := in.Attitude
	sp := in.Setpoints
	res := CycleResult{State: Active, ClearLanded: true}

	// ошибка = уставка - (оценка - смещение)
	uRoll := c.roll.Step(sp.Roll - float64(att.Roll) + c.offsets.Roll)
	uPitch := c.pitch.Step(sp.Pitch - float64(att.Pitch) + c.offsets.Pitch)
	uYaw := c.yaw.Step(sp.YawRate - float64(att.R) + c.offsets.YawRate)

	res.Demand = allocator.Demand{
		Roll:   uRoll,
		Pitch:  uPitch,
		Yaw:    uYaw,
		Thrust: allocator.ThrustDemand(sp.Thrust, float64(att.Roll), float64(att.Pitch)),
	}
	out, err := c.alloc.Allocate(res.Demand)
	res.Output = out
	if err != nil {
		res.Physical = c.idleOutputs()
		if werr := c.out.Write(res.Physical); werr != nil {
			return res, errors.Join(err, fmt.Errorf("flight: actuator: %w", werr))
		}
		return res, err
	}
	res.Physical = out.Physical
	if err := c.out.Write(out.Physical); err != nil {
		return res, fmt.Errorf("flight: actuator: %w", err)
	}
	res.Logged = c.record(in, res)
	return res, nil
}

// Exit: выход из режима. Контроллер переходит в Inactive, на выходы подаётся холостой ход.
func (c *Controller) Exit() error {
	if c.state == Active {
		c.deactivate()
	}
	c.engaged = false
	return c.writeIdle()
}

// State возвращает текущее состояние.
func (c *Controller) State() State { return c.state }

// Offsets возвращает смещения текущей (или последней) активации.
func (c *Controller) Offsets() Offsets { return c.offsets }

// Outputs возвращает последние выходы корректоров крена, тангажа и рыскания.
func (c *Controller) Outputs() (roll, pitch, yaw float64) {
	return c.roll.Output(), c.pitch.Output(), c.yaw.Output()
}

func (c *Controller) activate(att feedback.Attitude) {
	c.state = Active
	c.offsets = Offsets{Roll: float64(att.Roll), Pitch: float64(att.Pitch), YawRate: float64(att.R)}
	c.stats.Reset()
	c.lastCycle = time.Time{}
	c.logErrs = 0
	logger.Info("активация: смещения roll=%.5f pitch=%.5f r=%.5f", c.offsets.Roll, c.offsets.Pitch, c.offsets.YawRate)

	if c.open == nil {
		return
	}
	rec, err := c.open(c.now())
	if err != nil {
		logger.Error("журнал не открыт: %v", err)
		return
	}
	c.log = rec
}

func (c *Controller) deactivate() {
	c.state = Inactive
	c.roll.Reset()
	c.pitch.Reset()
	c.yaw.Reset()
	if c.log != nil {
		if err := c.log.Close(); err != nil {
			logger.Error("закрытие журнала: %v", err)
		}
		c.log = nil
	}
	logger.Info("деактивация: %v", c.stats.Summary())
}

func (c *Controller) trackPeriod() {
	t := c.now()
	if !c.lastCycle.IsZero() {
		c.stats.Add(t.Sub(c.lastCycle))
	}
	c.lastCycle = t
}

func (c *Controller) record(in Inputs, res CycleResult) bool {
	if c.log == nil {
		return false
	}
	att, sp := in.Attitude, in.Setpoints
	err := c.log.Write(telemetry.Record{
		Roll: float64(att.Roll), Pitch: float64(att.Pitch), Yaw: float64(att.Yaw),
		P: float64(att.P), Q: float64(att.Q), R: float64(att.R),
		TargetRoll: sp.Roll, TargetPitch: sp.Pitch, TargetYawRate: sp.YawRate, Thrust: sp.Thrust,
		URoll: res.Demand.Roll, UPitch: res.Demand.Pitch, UYaw: res.Demand.Yaw,
		Speed:    res.Output.Speed,
		Command:  res.Output.Command,
		Throttle: sp.Throttle,
	})
	if err != nil {
		if c.logErrs == 0 {
			logger.Error("запись журнала: %v", err)
		}
		c.logErrs++
		return false
	}
	return true
}

func (c *Controller) idleOutputs() [4]int {
	return [4]int{c.idle, c.idle, c.idle, c.idle}
}

func (c *Controller) idleCycle() CycleResult {
	return CycleResult{State: c.state, Physical: c.idleOutputs()}
}

func (c *Controller) writeIdle() error {
	if err := c.out.Write(c.idleOutputs()); err != nil {
		return fmt.Errorf("flight: actuator: %w", err)
	}
	return nil
}

// Summary возвращает статистику периода активного цикла.
func (c *Controller) Summary() cyclestat.Summary { return c.stats.Summary() }
