// Package telemetry: журнал полёта в формате CSV, одна запись на активный цикл управления.
package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Columns: заголовок журнала в порядке полей Record.Fields.
var Columns = []string{
	"AHRS.Roll", "AHRS.Pitch", "AHRS.Yaw", "AHRS.P", "AHRS.Q", "AHRS.R",
	"RC.Roll", "RC.Pitch", "RC.R", "RC.Thrust",
	"Uphi", "Utheta", "Ur",
	"w1", "w2", "w3", "w4",
	"w1_pwm", "w2_pwm", "w3_pwm", "w4_pwm",
	"pilot_throttle_scaled",
}

// Record: одна строка журнала.
type Record struct {
	// оценка ориентации (рад) и угловые скорости (рад/с)
	Roll, Pitch, Yaw float64
	P, Q, R          float64

	TargetRoll, TargetPitch float64 // рад
	TargetYawRate           float64 // рад/с
	Thrust                  float64 // Н

	URoll, UPitch, UYaw float64

	Speed   [4]float64
	Command [4]int

	Throttle float64 // 0..1
}

// Fields возвращает значения в порядке Columns.
func (r Record) Fields() []string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	out := make([]string, 0, len(Columns))
	out = append(out,
		f(r.Roll), f(r.Pitch), f(r.Yaw), f(r.P), f(r.Q), f(r.R),
		f(r.TargetRoll), f(r.TargetPitch), f(r.TargetYawRate), f(r.Thrust),
		f(r.URoll), f(r.UPitch), f(r.UYaw),
	)
	for _, w := range r.Speed {
		out = append(out, f(w))
	}
	for _, c := range r.Command {
		out = append(out, strconv.Itoa(c))
	}
	return append(out, f(r.Throttle))
}

// ParseRecord разбирает строку журнала (обратная операция к Fields).
func ParseRecord(fields []string) (Record, error) {
	if len(fields) != len(Columns) {
		return Record{}, fmt.Errorf("telemetry: %d fields, want %d", len(fields), len(Columns))
	}
	var r Record
	floats := []*float64{
		&r.Roll, &r.Pitch, &r.Yaw, &r.P, &r.Q, &r.R,
		&r.TargetRoll, &r.TargetPitch, &r.TargetYawRate, &r.Thrust,
		&r.URoll, &r.UPitch, &r.UYaw,
		&r.Speed[0], &r.Speed[1], &r.Speed[2], &r.Speed[3],
	}
	for i, p := range floats {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return Record{}, fmt.Errorf("telemetry: column %s: %w", Columns[i], err)
		}
		*p = x
	}
	n := len(floats)
	for i := range r.Command {
		c, err := strconv.ParseFloat(fields[n+i], 64)
		if err != nil {
			return Record{}, fmt.Errorf("telemetry: column %s: %w", Columns[n+i], err)
		}
		r.Command[i] = int(c)
	}
	x, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return Record{}, fmt.Errorf("telemetry: column %s: %w", Columns[len(Columns)-1], err)
	}
	r.Throttle = x
	return r, nil
}

// Recorder: приёмник записей журнала.
type Recorder interface {
	Write(Record) error
	Close() error
}

// TimeLayout: метка времени в имени файла (strftime "%F--%H-%M-%S").
const TimeLayout = "2006-01-02--15-04-05"

// FileName возвращает имя журнала "<prefix>_CSV_LOG-<время>.dat".
func FileName(prefix string, t time.Time) string {
	return prefix + "_CSV_LOG-" + t.Format(TimeLayout) + ".dat"
}

// maxSuffix: сколько имён с суффиксом "-N" пробуется при совпадении метки времени.
const maxSuffix = 100

// File: журнал на диске. Каждая запись сбрасывается на диск сразу (блокирующая запись).
type File struct {
	f    *os.File
	w    *csv.Writer
	path string
}

// Create создаёт в dir новый журнал с уникальным именем и пишет заголовок.
// Существующие файлы не перезаписываются: при совпадении имени добавляется суффикс "-1", "-2", ...
func Create(dir, prefix string, t time.Time) (*File, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("telemetry: mkdir %s: %w", dir, err)
		}
	}
	base := FileName(prefix, t)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	for i := 0; i <= maxSuffix; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("telemetry: create %s: %w", path, err)
		}
		lf := &File{f: f, w: csv.NewWriter(f), path: path}
		if err := lf.writeRow(Columns); err != nil {
			f.Close()
			return nil, err
		}
		return lf, nil
	}
	return nil, fmt.Errorf("telemetry: no free file name for %s in %s", base, dir)
}

// Path возвращает путь к файлу журнала.
func (l *File) Path() string { return l.path }

// Write дописывает запись и сбрасывает буфер.
func (l *File) Write(r Record) error {
	return l.writeRow(r.Fields())
}

func (l *File) writeRow(row []string) error {
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("telemetry: write %s: %w", l.path, err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("telemetry: flush %s: %w", l.path, err)
	}
	return nil
}

// Close закрывает файл.
func (l *File) Close() error {
	l.w.Flush()
	werr := l.w.Error()
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("telemetry: close %s: %w", l.path, err)
	}
	return werr
}

// Read читает журнал из r: заголовок проверяется, затем все записи.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("telemetry: header: %w", err)
	}
	for i, c := range Columns {
		if header[i] != c {
			return nil, fmt.Errorf("telemetry: header column %d is %q, want %q", i+1, header[i], c)
		}
	}
	var out []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("telemetry: %w", err)
		}
		rec, err := ParseRecord(row)
		if err != nil {
			return out, fmt.Errorf("telemetry: record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
}

// ReadFile читает журнал с диска.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open: %w", err)
	}
	defer f.Close()
	return Read(f)
}
