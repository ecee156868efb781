// Package params: параметры аппарата (коэффициенты тяги и сопротивления, плечо,
// диапазон оборотов, масса отрыва) и коэффициенты корректоров крена, тангажа и рыскания.
//
// Источник: текстовый файл фиксированной построчной раскладки (генерируется из Matlab).
// Каждое поле читается со строки, отстоящей на заданное число строк от предыдущего поля;
// раскладка описана явно в Schema и проверяется при загрузке.
package params

import (
	"errors"
	"fmt"
	"math"

	"github.com/shiwa/quadctl/internal/compensator"
)

// Values: все поля набора параметров. Используется для построения Parameters.
type Values struct {
	ThrustCoeff float64 // b, тяга = b·ω²
	DragCoeff   float64 // d, реактивный момент = d·ω²
	ArmLength   float64 // l, м
	RotationMin float64 // рад/с
	RotationMax float64 // рад/с
	LiftoffMass float64 // кг

	Roll  compensator.Coefficients
	Pitch compensator.Coefficients
	Yaw   compensator.Coefficients
}

// Parameters: неизменяемый после загрузки набор параметров аппарата.
type Parameters struct {
	v Values
}

// ErrInvalid: значение прочитано, но физически недопустимо.
var ErrInvalid = errors.New("invalid value")

// New проверяет значения и возвращает неизменяемый набор параметров.
func New(v Values) (*Parameters, error) {
	if err := Validate(v); err != nil {
		return nil, err
	}
	return &Parameters{v: v}, nil
}

// Default возвращает параметры квадрокоптера по умолчанию (Protronik Kv750, размах 0,256 м).
func Default() *Parameters {
	return &Parameters{v: Values{
		ThrustCoeff: 0.0000069245,
		DragCoeff:   0.000000757,
		ArmLength:   0.256,
		RotationMin: 0,
		RotationMax: 1393.3,
		LiftoffMass: 2.95,
		Roll:        compensator.DefaultRoll,
		Pitch:       compensator.DefaultPitch,
		Yaw:         compensator.DefaultYaw,
	}}
}

// Validate проверяет конечность всех полей и положительность b, d, l.
func Validate(v Values) error {
	for _, f := range Schema {
		x := f.get(&v)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return &FieldError{Field: f.Name, Err: fmt.Errorf("%w: %v", ErrInvalid, x)}
		}
	}
	positive := []struct {
		name string
		val  float64
	}{
		{"thrust_coeff", v.ThrustCoeff},
		{"drag_coeff", v.DragCoeff},
		{"arm_length", v.ArmLength},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return &FieldError{Field: p.name, Err: fmt.Errorf("%w: must be > 0, got %v", ErrInvalid, p.val)}
		}
	}
	if v.RotationMin > v.RotationMax {
		return &FieldError{Field: "rotation_min", Err: fmt.Errorf("%w: %v > rotation_max %v", ErrInvalid, v.RotationMin, v.RotationMax)}
	}
	if v.LiftoffMass < 0 {
		return &FieldError{Field: "liftoff_mass", Err: fmt.Errorf("%w: negative mass %v", ErrInvalid, v.LiftoffMass)}
	}
	return nil
}

// ThrustCoeff возвращает b.
func (p *Parameters) ThrustCoeff() float64 { return p.v.ThrustCoeff }

// DragCoeff возвращает d.
func (p *Parameters) DragCoeff() float64 { return p.v.DragCoeff }

// ArmLength возвращает l.
func (p *Parameters) ArmLength() float64 { return p.v.ArmLength }

func (p *Parameters) RotationMin() float64 { return p.v.RotationMin }
func (p *Parameters) RotationMax() float64 { return p.v.RotationMax }
func (p *Parameters) LiftoffMass() float64 { return p.v.LiftoffMass }

// Roll возвращает коэффициенты корректора крена (2-й порядок).
func (p *Parameters) Roll() compensator.Coefficients { return p.v.Roll }

// Pitch возвращает коэффициенты корректора тангажа (2-й порядок).
func (p *Parameters) Pitch() compensator.Coefficients { return p.v.Pitch }

// Yaw возвращает коэффициенты корректора рыскания.
func (p *Parameters) Yaw() compensator.Coefficients { return p.v.Yaw }

// WithArmLength возвращает копию набора с другим плечом l.
func (p *Parameters) WithArmLength(l float64) (*Parameters, error) {
	v := p.v
	v.ArmLength = l
	return New(v)
}

// Values возвращает копию всех полей.
func (p *Parameters) Values() Values { return p.v }
