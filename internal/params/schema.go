package params

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Field: одно поле файла параметров. Offset: число строк от строки предыдущего поля
// (для первого поля: номер строки, считая с 1).
type Field struct {
	Name   string
	Offset int
	get    func(*Values) float64
	set    func(*Values, float64)
}

// Schema: порядок и смещения полей файла параметров.
var Schema = []Field{
	{"rotation_min", 6, func(v *Values) float64 { return v.RotationMin }, func(v *Values, x float64) { v.RotationMin = x }},
	{"rotation_max", 3, func(v *Values) float64 { return v.RotationMax }, func(v *Values, x float64) { v.RotationMax = x }},
	{"drag_coeff", 3, func(v *Values) float64 { return v.DragCoeff }, func(v *Values, x float64) { v.DragCoeff = x }},
	{"thrust_coeff", 3, func(v *Values) float64 { return v.ThrustCoeff }, func(v *Values, x float64) { v.ThrustCoeff = x }},
	{"liftoff_mass", 3, func(v *Values) float64 { return v.LiftoffMass }, func(v *Values, x float64) { v.LiftoffMass = x }},

	{"roll.x0", 6, func(v *Values) float64 { return v.Roll.X0 }, func(v *Values, x float64) { v.Roll.X0 = x }},
	{"roll.x1", 1, func(v *Values) float64 { return v.Roll.X1 }, func(v *Values, x float64) { v.Roll.X1 = x }},
	{"roll.x2", 1, func(v *Values) float64 { return v.Roll.X2 }, func(v *Values, x float64) { v.Roll.X2 = x }},
	{"roll.y1", 1, func(v *Values) float64 { return v.Roll.Y1 }, func(v *Values, x float64) { v.Roll.Y1 = x }},
	{"roll.y2", 1, func(v *Values) float64 { return v.Roll.Y2 }, func(v *Values, x float64) { v.Roll.Y2 = x }},

	{"pitch.x0", 6, func(v *Values) float64 { return v.Pitch.X0 }, func(v *Values, x float64) { v.Pitch.X0 = x }},
	{"pitch.x1", 1, func(v *Values) float64 { return v.Pitch.X1 }, func(v *Values, x float64) { v.Pitch.X1 = x }},
	{"pitch.x2", 1, func(v *Values) float64 { return v.Pitch.X2 }, func(v *Values, x float64) { v.Pitch.X2 = x }},
	{"pitch.y1", 1, func(v *Values) float64 { return v.Pitch.Y1 }, func(v *Values, x float64) { v.Pitch.Y1 = x }},
	{"pitch.y2", 1, func(v *Values) float64 { return v.Pitch.Y2 }, func(v *Values, x float64) { v.Pitch.Y2 = x }},

	// рыскание: 1-й порядок, x(n-2) и y(n-2) в файле отсутствуют
	{"yaw.x0", 6, func(v *Values) float64 { return v.Yaw.X0 }, func(v *Values, x float64) { v.Yaw.X0 = x }},
	{"yaw.x1", 1, func(v *Values) float64 { return v.Yaw.X1 }, func(v *Values, x float64) { v.Yaw.X1 = x }},
	{"yaw.y1", 1, func(v *Values) float64 { return v.Yaw.Y1 }, func(v *Values, x float64) { v.Yaw.Y1 = x }},
}

// Ошибки разбора отдельного поля (оборачиваются в FieldError).
var (
	ErrMissingLine  = errors.New("line missing (file too short)")
	ErrMissingValue = errors.New("no value on line")
	ErrBadValue     = errors.New("not a number")
)

// FieldError: ошибка загрузки с указанием поля и строки (Line = 0 для ошибок проверки).
type FieldError struct {
	Field string
	Line  int
	Err   error
}

func (e *FieldError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("params: field %s (line %d): %v", e.Field, e.Line, e.Err)
	}
	return fmt.Sprintf("params: field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Lines возвращает номера строк (с 1) каждого поля Schema.
func Lines() []int {
	lines := make([]int, len(Schema))
	n := 0
	for i, f := range Schema {
		n += f.Offset
		lines[i] = n
	}
	return lines
}

// Parse читает параметры из r по Schema. Значением считается первый токен строки
// (через пробельные символы). Короткий или испорченный файл даёт *FieldError.
// Плечо l в файле отсутствует и берётся из Default.
func Parse(r io.Reader) (*Parameters, error) {
	var text []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		text = append(text, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("params: read: %w", err)
	}

	v := Default().Values()
	for i, line := range Lines() {
		f := Schema[i]
		if line > len(text) {
			return nil, &FieldError{Field: f.Name, Line: line, Err: ErrMissingLine}
		}
		tokens := strings.Fields(text[line-1])
		if len(tokens) == 0 {
			return nil, &FieldError{Field: f.Name, Line: line, Err: ErrMissingValue}
		}
		x, err := strconv.ParseFloat(tokens[0], 64)
		if err != nil {
			return nil, &FieldError{Field: f.Name, Line: line, Err: fmt.Errorf("%w: %q", ErrBadValue, tokens[0])}
		}
		f.set(&v, x)
	}
	v.Roll.Order, v.Pitch.Order, v.Yaw.Order = 2, 2, 1
	v.Yaw.X2, v.Yaw.Y2 = 0, 0
	return New(v)
}

// Load читает файл параметров.
func Load(path string) (*Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("params: open: %w", err)
	}
	defer f.Close()
	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// labels: подписи на строках перед значениями (номер строки значения -> подпись).
var labels = map[string]string{
	"rotation_min": "Rotation min (rad/s)",
	"rotation_max": "Rotation max (rad/s)",
	"drag_coeff":   "Drag coefficient d (N.m.s^2)",
	"thrust_coeff": "Thrust coefficient b (N.s^2)",
	"liftoff_mass": "Liftoff mass (kg)",
	"roll.x0":      "Roll compensator: x(n) x(n-1) x(n-2) y(n-1) y(n-2)",
	"pitch.x0":     "Pitch compensator: x(n) x(n-1) x(n-2) y(n-1) y(n-2)",
	"yaw.x0":       "Yaw compensator: x(n) x(n-1) y(n-1)",
}

// Format записывает v в раскладке Schema (подписи на свободных строках).
func Format(w io.Writer, v Values) error {
	lines := Lines()
	text := make([]string, lines[len(lines)-1])
	text[0] = "# quadctl drone parameters"
	for i, f := range Schema {
		if l, ok := labels[f.Name]; ok {
			text[lines[i]-2] = l
		}
		text[lines[i]-1] = strconv.FormatFloat(f.get(&v), 'g', -1, 64)
	}
	bw := bufio.NewWriter(w)
	for _, s := range text {
		if _, err := bw.WriteString(s + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
