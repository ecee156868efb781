package link

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Классы и ID сообщений
const (
	ClassState = 0x10
	IDAttitude = 0x01 // ATT: оценка ориентации от AHRS
	IDPilot    = 0x02 // PILOT: уставки пилота и состояние взведения

	ClassOutput = 0x20
	IDMotors    = 0x01 // MOT: команды моторов по физическим выходам
	IDStatus    = 0x02 // STATUS: состояние режима для полётного стека
)

// Размеры payload
const (
	AttitudeSize = 24
	PilotSize    = 25
	MotorsSize   = 8
	StatusSize   = 1
)

// Attitude: углы (рад) и угловые скорости корпуса (рад/с).
type Attitude struct {
	Roll, Pitch, Yaw float32
	P, Q, R          float32
}

// Pilot: уставки пилота в единицах полётного стека и флаги жизненного цикла режима.
type Pilot struct {
	RollCD       float32 // сантиградусы
	PitchCD      float32 // сантиградусы
	YawRateCDS   float32 // сантиградусы/с
	Throttle     float32 // 0..1
	NonTakeoff   float32 // порог газа "не взлёт", 0..1
	Armed        bool
	Interlock    bool
	ThrottleZero bool
	LandComplete bool
	// ManualThrottle: предыдущий режим управлял газом вручную.
	ManualThrottle bool
}

// биты флагов PILOT
const (
	flagArmed = 1 << iota
	flagInterlock
	flagThrottleZero
	flagLandComplete
	flagManualThrottle
)

// MotorCommand: команды выходов 1..4.
type MotorCommand [4]uint16

func putFloats(buf []byte, v ...float32) {
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
}

func getFloat(buf []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
}

// Encode собирает кадр ATT.
func (a Attitude) Encode() []byte {
	p := make([]byte, AttitudeSize)
	putFloats(p, a.Roll, a.Pitch, a.Yaw, a.P, a.Q, a.R)
	return EncodePacket(ClassState, IDAttitude, p)
}

// ParseAttitude разбирает payload ATT.
func ParseAttitude(payload []byte) (Attitude, error) {
	if len(payload) < AttitudeSize {
		return Attitude{}, fmt.Errorf("link: ATT payload %d bytes, want %d", len(payload), AttitudeSize)
	}
	return Attitude{
		Roll: getFloat(payload, 0), Pitch: getFloat(payload, 1), Yaw: getFloat(payload, 2),
		P: getFloat(payload, 3), Q: getFloat(payload, 4), R: getFloat(payload, 5),
	}, nil
}

// Encode собирает кадр PILOT.
func (p Pilot) Encode() []byte {
	buf := make([]byte, PilotSize)
	putFloats(buf, p.RollCD, p.PitchCD, p.YawRateCDS, p.Throttle, p.NonTakeoff)
	var f byte
	for _, b := range []struct {
		set  bool
		mask byte
	}{
		{p.Armed, flagArmed},
		{p.Interlock, flagInterlock},
		{p.ThrottleZero, flagThrottleZero},
		{p.LandComplete, flagLandComplete},
		{p.ManualThrottle, flagManualThrottle},
	} {
		if b.set {
			f |= b.mask
		}
	}
	buf[PilotSize-1] = f
	return EncodePacket(ClassState, IDPilot, buf)
}

// ParsePilot разбирает payload PILOT.
func ParsePilot(payload []byte) (Pilot, error) {
	if len(payload) < PilotSize {
		return Pilot{}, fmt.Errorf("link: PILOT payload %d bytes, want %d", len(payload), PilotSize)
	}
	f := payload[PilotSize-1]
	return Pilot{
		RollCD:         getFloat(payload, 0),
		PitchCD:        getFloat(payload, 1),
		YawRateCDS:     getFloat(payload, 2),
		Throttle:       getFloat(payload, 3),
		NonTakeoff:     getFloat(payload, 4),
		Armed:          f&flagArmed != 0,
		Interlock:      f&flagInterlock != 0,
		ThrottleZero:   f&flagThrottleZero != 0,
		LandComplete:   f&flagLandComplete != 0,
		ManualThrottle: f&flagManualThrottle != 0,
	}, nil
}

// Encode собирает кадр MOT.
func (m MotorCommand) Encode() []byte {
	p := make([]byte, MotorsSize)
	for i, c := range m {
		binary.LittleEndian.PutUint16(p[2*i:], c)
	}
	return EncodePacket(ClassOutput, IDMotors, p)
}

// ParseMotors разбирает payload MOT.
func ParseMotors(payload []byte) (MotorCommand, error) {
	var m MotorCommand
	if len(payload) < MotorsSize {
		return m, fmt.Errorf("link: MOT payload %d bytes, want %d", len(payload), MotorsSize)
	}
	for i := range m {
		m[i] = binary.LittleEndian.Uint16(payload[2*i:])
	}
	return m, nil
}

// Status: состояние режима за цикл.
type Status struct {
	Active bool
	// ClearLanded: полётный стек должен сбросить признак посадки.
	ClearLanded bool
}

// биты флагов STATUS
const (
	statusActive = 1 << iota
	statusClearLanded
)

// Encode собирает кадр STATUS.
func (s Status) Encode() []byte {
	var f byte
	if s.Active {
		f |= statusActive
	}
	if s.ClearLanded {
		f |= statusClearLanded
	}
	return EncodePacket(ClassOutput, IDStatus, []byte{f})
}

// ParseStatus разбирает payload STATUS.
func ParseStatus(payload []byte) (Status, error) {
	if len(payload) < StatusSize {
		return Status{}, fmt.Errorf("link: STATUS payload %d bytes, want %d", len(payload), StatusSize)
	}
	f := payload[0]
	return Status{Active: f&statusActive != 0, ClearLanded: f&statusClearLanded != 0}, nil
}
