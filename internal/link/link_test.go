package link

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func TestChecksum(t *testing.T) {
	ckA, ckB := Checksum([]byte{0x10, 0x01, 0x00, 0x00})
	if ckA != 0x11 || ckB != 0x43 {
		t.Errorf("Checksum = %#x %#x, want 0x11 0x43", ckA, ckB)
	}
}

func TestEncodePacket(t *testing.T) {
	pkt := EncodePacket(ClassOutput, IDMotors, []byte{1, 2, 3})
	h, ok := ParseHeader(pkt)
	if !ok {
		t.Fatal("header not parsed")
	}
	if h.Class != ClassOutput || h.ID != IDMotors || h.Length != 3 {
		t.Errorf("header = %+v", h)
	}
	if !VerifyChecksum(pkt) {
		t.Error("checksum does not verify")
	}
	if got := Payload(pkt); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("Payload = %v", got)
	}

	t.Run("corrupted", func(t *testing.T) {
		b := append([]byte(nil), pkt...)
		b[HeaderSize] ^= 0xff
		if VerifyChecksum(b) {
			t.Error("expected checksum mismatch")
		}
	})
	t.Run("wrong sync", func(t *testing.T) {
		if _, ok := ParseHeader(append([]byte{0, 0}, pkt[2:]...)); ok {
			t.Error("expected !ok")
		}
	})
	t.Run("length mismatch", func(t *testing.T) {
		if Payload(pkt[:len(pkt)-1]) != nil {
			t.Error("expected nil payload for truncated packet")
		}
	})
}

func TestMessages(t *testing.T) {
	t.Run("attitude", func(t *testing.T) {
		want := Attitude{Roll: 0.1, Pitch: -0.2, Yaw: 3.1, P: 0.01, Q: -0.02, R: 0.5}
		got, err := ParseAttitude(Payload(want.Encode()))
		if err != nil || got != want {
			t.Errorf("got %+v, %v", got, err)
		}
	})
	t.Run("pilot flags", func(t *testing.T) {
		want := Pilot{RollCD: 1500, PitchCD: -450, YawRateCDS: 2000, Throttle: 0.42, NonTakeoff: 0.1,
			Armed: true, LandComplete: true, ManualThrottle: true}
		pkt := want.Encode()
		if flags := Payload(pkt)[PilotSize-1]; flags != flagArmed|flagLandComplete|flagManualThrottle {
			t.Errorf("flags byte = %#b", flags)
		}
		got, err := ParsePilot(Payload(pkt))
		if err != nil || got != want {
			t.Errorf("got %+v, %v", got, err)
		}
	})
	t.Run("motors little endian", func(t *testing.T) {
		pkt := MotorCommand{1000, 1500, 0x0102, 2000}.Encode()
		p := Payload(pkt)
		if p[4] != 0x02 || p[5] != 0x01 {
			t.Errorf("output 3 bytes = %#x %#x", p[4], p[5])
		}
	})
	t.Run("status flags", func(t *testing.T) {
		for _, want := range []Status{{}, {Active: true}, {Active: true, ClearLanded: true}} {
			pkt := want.Encode()
			if h, _ := ParseHeader(pkt); h.Class != ClassOutput || h.ID != IDStatus {
				t.Errorf("header = %+v", h)
			}
			got, err := ParseStatus(Payload(pkt))
			if err != nil || got != want {
				t.Errorf("got %+v, %v, want %+v", got, err, want)
			}
		}
		if b := Payload(Status{ClearLanded: true}.Encode())[0]; b != statusClearLanded {
			t.Errorf("flags byte = %#b", b)
		}
	})
	t.Run("short payloads", func(t *testing.T) {
		if _, err := ParseAttitude(make([]byte, 10)); err == nil {
			t.Error("ATT: expected error")
		}
		if _, err := ParsePilot(make([]byte, 24)); err == nil {
			t.Error("PILOT: expected error")
		}
		if _, err := ParseMotors(make([]byte, 7)); err == nil {
			t.Error("MOT: expected error")
		}
		if _, err := ParseStatus(nil); err == nil {
			t.Error("STATUS: expected error")
		}
	})
}

func TestReadPacket(t *testing.T) {
	att := Attitude{Roll: 1}.Encode()

	t.Run("skips garbage before sync", func(t *testing.T) {
		stream := append([]byte{0x00, Sync1, 0x13, Sync2}, att...)
		got, err := ReadPacket(bytes.NewReader(stream))
		if err != nil || !bytes.Equal(got, att) {
			t.Errorf("got %x, %v", got, err)
		}
	})
	t.Run("checksum error", func(t *testing.T) {
		bad := append([]byte(nil), att...)
		bad[len(bad)-1]++
		if _, err := ReadPacket(bytes.NewReader(bad)); !errors.Is(err, ErrChecksum) {
			t.Errorf("expected ErrChecksum, got %v", err)
		}
	})
	t.Run("oversized length", func(t *testing.T) {
		hdr := []byte{Sync1, Sync2, ClassState, IDAttitude, 0xff, 0xff}
		if _, err := ReadPacket(bytes.NewReader(hdr)); !errors.Is(err, ErrLength) {
			t.Errorf("expected ErrLength, got %v", err)
		}
	})
	t.Run("truncated", func(t *testing.T) {
		if _, err := ReadPacket(bytes.NewReader(att[:10])); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("expected ErrUnexpectedEOF, got %v", err)
		}
	})
}

// pipeLine: мок линии: чтение из pipe, запись в буфер.
type pipeLine struct {
	*io.PipeReader
	mu  sync.Mutex
	out bytes.Buffer
}

func (p *pipeLine) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timeout")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub(t *testing.T) {
	r, w := io.Pipe()
	line := &pipeLine{PipeReader: r}
	h := NewHub(line)
	h.Start()

	if _, _, ok := h.Attitude(); ok {
		t.Error("attitude available before any frame")
	}

	bad := Attitude{}.Encode()
	bad[len(bad)-1]++
	att := Attitude{Roll: 0.25, R: -1}
	pilot := Pilot{Throttle: 0.5, Armed: true, Interlock: true}
	for _, pkt := range [][]byte{bad, att.Encode(), pilot.Encode(), MotorCommand{}.Encode()} {
		if _, err := w.Write(pkt); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, func() bool { _, _, ok := h.Pilot(); return ok })
	if got, _, ok := h.Attitude(); !ok || got != att {
		t.Errorf("Attitude = %+v, %v", got, ok)
	}
	if got, at, _ := h.Pilot(); got != pilot || at.IsZero() {
		t.Errorf("Pilot = %+v at %v", got, at)
	}
	if n := h.BadFrames(); n != 1 {
		t.Errorf("BadFrames = %d, want 1", n)
	}

	if err := h.WriteMotors(MotorCommand{1000, 1100, 1200, 1300}); err != nil {
		t.Fatal(err)
	}
	if err := h.WriteStatus(Status{Active: true, ClearLanded: true}); err != nil {
		t.Fatal(err)
	}
	line.mu.Lock()
	out := bytes.NewReader(line.out.Bytes())
	line.mu.Unlock()
	mot, err := ReadPacket(out)
	if err != nil {
		t.Fatal(err)
	}
	if m, err := ParseMotors(Payload(mot)); err != nil || m != (MotorCommand{1000, 1100, 1200, 1300}) {
		t.Errorf("written MOT = %v, %v", m, err)
	}
	st, err := ReadPacket(out)
	if err != nil {
		t.Fatal(err)
	}
	if s, err := ParseStatus(Payload(st)); err != nil || s != (Status{Active: true, ClearLanded: true}) {
		t.Errorf("written STATUS = %+v, %v", s, err)
	}

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader goroutine did not stop")
	}
	if h.Err() != nil {
		t.Errorf("Err after Close = %v", h.Err())
	}
}
