package flight

import (
	"math"

	"github.com/shiwa/quadctl/internal/link"
)

// centiDegToRad: сантиградусы -> радианы.
const centiDegToRad = math.Pi / 18000

// CentiDegreesToRad переводит угол (сантиградусы) или угловую скорость (сантиградусы/с) в радианы.
func CentiDegreesToRad(cd float32) float64 {
	return float64(cd) * centiDegToRad
}

// ThrottleToNewtons переводит газ 0..1 в тягу: throttle · mass · g.
func ThrottleToNewtons(throttle float32, mass, g float64) float64 {
	return float64(throttle) * mass * g
}

// FromPilot переводит кадр PILOT в уставки цикла и состояние жизненного цикла режима.
func FromPilot(p link.Pilot, mass, g float64) (Setpoints, Lifecycle) {
	sp := Setpoints{
		Roll:     CentiDegreesToRad(p.RollCD),
		Pitch:    CentiDegreesToRad(p.PitchCD),
		YawRate:  CentiDegreesToRad(p.YawRateCDS),
		Thrust:   ThrottleToNewtons(p.Throttle, mass, g),
		Throttle: float64(p.Throttle),
	}
	lc := Lifecycle{
		Armed:          p.Armed,
		Interlock:      p.Interlock,
		ThrottleZero:   p.ThrottleZero,
		LandComplete:   p.LandComplete,
		ManualThrottle: p.ManualThrottle,
		Throttle:       float64(p.Throttle),
		NonTakeoff:     float64(p.NonTakeoff),
	}
	return sp, lc
}
