// Package allocator: распределение управления для квадрокоптера схемы "X".
//
// Моменты крена, тангажа, рыскания и суммарная тяга переводятся в угловые скорости
// четырёх роторов обращением линейной связи между квадратами скоростей и силами:
// ω_i² = Σ_j M_ij·k_j·u_j / 4, где M: знаковая матрица смешивания, k = (1/(b·l), 1/(b·l), 1/d, 1/b).
// Затем скорости масштабируются в команды ШИМ и раскладываются по физическим выходам.
package allocator

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/mat"
)

// Geometry: физические константы аппарата.
type Geometry struct {
	ThrustCoeff float64 // b
	DragCoeff   float64 // d
	ArmLength   float64 // l
}

// Mixer: знаки (или веса) вклада (крен, тангаж, рыскание, тяга) в квадрат скорости ротора i.
type Mixer [4][4]float64

// XMixer: смешивание для схемы "X" (роторы 1..4 в логической нумерации).
var XMixer = Mixer{
	{+1, +1, -1, -1},
	{-1, -1, -1, -1},
	{-1, +1, +1, -1},
	{+1, -1, +1, -1},
}

// DefaultMotorMap: логический ротор i -> номер физического выхода (с 1).
var DefaultMotorMap = [4]int{4, 2, 1, 3}

// Policy: поведение при отрицательном подкоренном выражении.
type Policy int

const (
	// Clamp: скорость ротора 0, ротор помечается Infeasible, цикл продолжается.
	Clamp Policy = iota
	// Reject: Allocate возвращает ErrInfeasible.
	Reject
)

func (p Policy) String() string {
	switch p {
	case Clamp:
		return "clamp"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy разбирает "clamp" или "reject" (пустая строка = clamp).
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "clamp":
		return Clamp, nil
	case "reject":
		return Reject, nil
	default:
		return Clamp, fmt.Errorf("unknown infeasible policy %q (want clamp or reject)", s)
	}
}

// ErrInfeasible: запрос моментов и тяги не реализуем (подкоренное выражение < 0).
var ErrInfeasible = errors.New("infeasible demand: negative radicand")

// Config: масштабирование и таблицы распределения.
type Config struct {
	ReferenceSpeed float64 // рад/с при полном диапазоне ШИМ
	Min, Max       int     // диапазон команды исполнительного устройства
	Policy         Policy
	ClampOutput    bool // ограничивать команду диапазоном [Min, Max]
	Mixer          *Mixer
	MotorMap       [4]int
}

// Demand: запрос на один цикл.
type Demand struct {
	Roll, Pitch, Yaw float64 // моменты, выходы корректоров
	Thrust           float64 // u_thrust, отрицательна при подъёмной силе вверх
}

// Output: результат распределения.
type Output struct {
	Speed      [4]float64 // ω роторов 1..4, рад/с
	Command    [4]int     // команды роторов 1..4
	Physical   [4]int     // команды по физическим выходам 1..4
	Infeasible [4]bool
}

// Allocator: неизменяемый после создания решатель.
type Allocator struct {
	cfg Config
	a   *mat.Dense // M·diag(k)
}

// New проверяет геометрию и конфигурацию и строит матрицу распределения.
func New(g Geometry, cfg Config) (*Allocator, error) {
	if !(g.ThrustCoeff > 0) || !(g.DragCoeff > 0) || !(g.ArmLength > 0) {
		return nil, fmt.Errorf("allocator: b, d, l must be > 0, got %v, %v, %v", g.ThrustCoeff, g.DragCoeff, g.ArmLength)
	}
	if !(cfg.ReferenceSpeed > 0) {
		return nil, fmt.Errorf("allocator: reference speed must be > 0, got %v", cfg.ReferenceSpeed)
	}
	if cfg.Max < cfg.Min {
		return nil, fmt.Errorf("allocator: command range [%d, %d] is empty", cfg.Min, cfg.Max)
	}
	if cfg.MotorMap == ([4]int{}) {
		cfg.MotorMap = DefaultMotorMap
	}
	if err := checkMotorMap(cfg.MotorMap); err != nil {
		return nil, err
	}
	m := XMixer
	if cfg.Mixer != nil {
		m = *cfg.Mixer
	}

	k := [4]float64{
		1 / (g.ThrustCoeff * g.ArmLength),
		1 / (g.ThrustCoeff * g.ArmLength),
		1 / g.DragCoeff,
		1 / g.ThrustCoeff,
	}
	a := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a.Set(i, j, m[i][j]*k[j])
		}
	}
	return &Allocator{cfg: cfg, a: a}, nil
}

func checkMotorMap(mm [4]int) error {
	var seen [5]bool
	for i, o := range mm {
		if o < 1 || o > 4 || seen[o] {
			return fmt.Errorf("allocator: motor map %v is not a permutation of 1..4 (rotor %d)", mm, i+1)
		}
		seen[o] = true
	}
	return nil
}

// Radicands возвращает ω_i² для запроса d (без ограничения знака).
func (a *Allocator) Radicands(d Demand) [4]float64 {
	u := mat.NewVecDense(4, []float64{d.Roll, d.Pitch, d.Yaw, d.Thrust})
	var r mat.VecDense
	r.MulVec(a.a, u)
	var out [4]float64
	for i := range out {
		out[i] = r.AtVec(i) / 4
	}
	return out
}

// Speeds возвращает ω роторов 1..4. Для отрицательного подкоренного выражения
// скорость 0 и флаг infeasible.
func (a *Allocator) Speeds(d Demand) (w [4]float64, infeasible [4]bool) {
	for i, r := range a.Radicands(d) {
		if r < 0 {
			infeasible[i] = true
			continue
		}
		w[i] = math.Sqrt(r)
	}
	return w, infeasible
}

// Scale переводит ω в команду: (ω/ref)·(max-min) + min с отбрасыванием дробной части.
// NaN и ±Inf дают min.
func (a *Allocator) Scale(w float64) int {
	c := mapRange(w, 0, a.cfg.ReferenceSpeed, float64(a.cfg.Min), float64(a.cfg.Max))
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return a.cfg.Min
	}
	cmd := int(math.Trunc(c))
	if a.cfg.ClampOutput {
		cmd = max(a.cfg.Min, min(a.cfg.Max, cmd))
	}
	return cmd
}

// Allocate решает распределение, масштабирует и раскладывает команды по выходам.
// При Policy == Reject и недопустимом запросе возвращает Output с флагами и ошибку ErrInfeasible.
func (a *Allocator) Allocate(d Demand) (Output, error) {
	var out Output
	out.Speed, out.Infeasible = a.Speeds(d)
	for i, w := range out.Speed {
		out.Command[i] = a.Scale(w)
	}
	out.Physical = a.Route(out.Command)
	if a.cfg.Policy == Reject {
		for i, bad := range out.Infeasible {
			if bad {
				return out, fmt.Errorf("allocator: rotor %d: %w", i+1, ErrInfeasible)
			}
		}
	}
	return out, nil
}

// Route раскладывает команды роторов 1..4 по физическим выходам.
func (a *Allocator) Route(cmd [4]int) [4]int {
	var phys [4]int
	for i, c := range cmd {
		phys[a.cfg.MotorMap[i]-1] = c
	}
	return phys
}

// ThrustDemand: u_thrust = -thrust / (cos(roll)·cos(pitch)), компенсация потери тяги при наклоне.
func ThrustDemand(thrust, roll, pitch float64) float64 {
	return -thrust / (math.Cos(roll) * math.Cos(pitch))
}

func mapRange[T constraints.Float](value, fromMin, fromMax, toMin, toMax T) T {
	return (value-fromMin)/(fromMax-fromMin)*(toMax-toMin) + toMin
}
