package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

var stamp = time.Date(2017, 6, 21, 14, 5, 9, 0, time.Local)

func sampleRecord(i int) Record {
	x := float64(i)
	return Record{
		Roll: 0.01 * x, Pitch: -0.02 * x, Yaw: 1.5, P: 0.1, Q: -0.1, R: 0.003,
		TargetRoll: 0.05, TargetPitch: -0.05, TargetYawRate: 0.1, Thrust: 28.93,
		URoll: 0.7, UPitch: -0.3, UYaw: 0.01,
		Speed:    [4]float64{590.5, 600.25, 610, 620.125},
		Command:  [4]int{1423, 1430, 1437, 1445},
		Throttle: 0.5,
	}
}

func TestFileName(t *testing.T) {
	got := FileName("IMS1", stamp)
	want := "IMS1_CSV_LOG-2017-06-21--14-05-09.dat"
	if got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
}

func TestColumnsMatchFields(t *testing.T) {
	if n := len(sampleRecord(1).Fields()); n != len(Columns) {
		t.Errorf("Fields() has %d values, Columns has %d", n, len(Columns))
	}
}

func TestCreate_WriteRead(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(dir, "IMS1", stamp)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []Record{sampleRecord(1), sampleRecord(2), sampleRecord(3)}
	for _, r := range want {
		if err := f.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 records, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(Columns, ",") {
		t.Errorf("header = %q", lines[0])
	}

	got, err := ReadFile(f.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("read %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d:\n got %+v\nwant %+v", i, got[i], want[i])
		}
	}
}

func TestCreate_UniqueNames(t *testing.T) {
	dir := t.TempDir()
	first, err := Create(dir, "IMS1", stamp)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	second, err := Create(dir, "IMS1", stamp)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	if first.Path() == second.Path() {
		t.Fatalf("same path for two activations: %s", first.Path())
	}
	if want := filepath.Join(dir, "IMS1_CSV_LOG-2017-06-21--14-05-09-1.dat"); second.Path() != want {
		t.Errorf("second path = %s, want %s", second.Path(), want)
	}
}

func TestRead_BadHeader(t *testing.T) {
	bad := strings.Replace(strings.Join(Columns, ","), "Uphi", "Ux", 1) + "\n"
	if _, err := Read(strings.NewReader(bad)); err == nil {
		t.Error("expected header error")
	}
}

// blockingRecorder: мок Recorder, Write ждёт release.
type blockingRecorder struct {
	mu      sync.Mutex
	written []Record
	started chan struct{}
	release chan struct{}
	closed  bool
}

func (b *blockingRecorder) Write(r Record) error {
	b.started <- struct{}{}
	<-b.release
	b.mu.Lock()
	b.written = append(b.written, r)
	b.mu.Unlock()
	return nil
}

func (b *blockingRecorder) Close() error {
	b.closed = true
	return nil
}

func TestQueue_DropsWhenFull(t *testing.T) {
	rec := &blockingRecorder{started: make(chan struct{}, 4), release: make(chan struct{})}
	q := NewQueue(rec, 1)

	if err := q.Write(sampleRecord(1)); err != nil {
		t.Fatal(err)
	}
	<-rec.started // запись 1 забрана горутиной, очередь пуста
	_ = q.Write(sampleRecord(2))
	_ = q.Write(sampleRecord(3))
	if got := q.Dropped(); got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}

	close(rec.release)
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(rec.written) != 2 || !rec.closed {
		t.Errorf("written %d records, closed=%v", len(rec.written), rec.closed)
	}
	if err := q.Write(sampleRecord(4)); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close: %v", err)
	}
}

type failingRecorder struct{}

func (failingRecorder) Write(Record) error { return errors.New("disk full") }
func (failingRecorder) Close() error       { return nil }

func TestQueue_ReportsWriteError(t *testing.T) {
	q := NewQueue(failingRecorder{}, 4)
	_ = q.Write(sampleRecord(1))
	if err := q.Close(); err == nil || err.Error() != "disk full" {
		t.Errorf("Close = %v, want disk full", err)
	}
}
