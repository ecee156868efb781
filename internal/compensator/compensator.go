// Package compensator: дискретные рекуррентные (IIR) корректоры 1-го и 2-го порядка,
// используемые как законы управления по осям крена, тангажа и рыскания.
package compensator

// Compensator: интерфейс корректора, вычисляемого один раз за цикл управления.
type Compensator interface {
	// Step подаёт x(n), сдвигает историю и возвращает y(n).
	Step(x float64) float64
	// Reset обнуляет историю входа и выхода (коэффициенты не меняются).
	Reset()
	// Output возвращает последний вычисленный y(n); 0 после Reset.
	Output() float64
}

// Coefficients: коэффициенты рекуррентного уравнения
// y(n) = X0*x(n) + X1*x(n-1) + X2*x(n-2) + Y1*y(n-1) + Y2*y(n-2).
// Order = 1 означает, что X2 и Y2 не используются (и должны быть 0).
type Coefficients struct {
	Order int     `yaml:"order"`
	X0    float64 `yaml:"x0"`
	X1    float64 `yaml:"x1"`
	X2    float64 `yaml:"x2"`
	Y1    float64 `yaml:"y1"`
	Y2    float64 `yaml:"y2"`
}

// New создаёт корректор нужного порядка. Order 0 трактуется по коэффициентам:
// при нулевых X2 и Y2 получается 1-й порядок.
func New(c Coefficients) Compensator {
	order := c.Order
	if order == 0 {
		order = 2
		if c.X2 == 0 && c.Y2 == 0 {
			order = 1
		}
	}
	if order == 1 {
		return NewFirstOrder(c.X0, c.X1, c.Y1)
	}
	return NewSecondOrder(c)
}

// FirstOrder: y(n) = cx0*x(n) + cx1*x(n-1) + cy1*y(n-1).
type FirstOrder struct {
	cx0, cx1, cy1 float64
	x1, y1        float64 // x(n-1), y(n-1)
	y             float64
}

// NewFirstOrder создаёт корректор 1-го порядка с нулевой историей.
func NewFirstOrder(cx0, cx1, cy1 float64) *FirstOrder {
	return &FirstOrder{cx0: cx0, cx1: cx1, cy1: cy1}
}

// Step вычисляет y(n) и сдвигает x(n-1) <- x(n), y(n-1) <- y(n).
func (f *FirstOrder) Step(x float64) float64 {
	f.y = f.cx0*x + f.cx1*f.x1 + f.cy1*f.y1
	f.x1 = x
	f.y1 = f.y
	return f.y
}

// Reset обнуляет историю.
func (f *FirstOrder) Reset() {
	f.x1, f.y1, f.y = 0, 0, 0
}

// Output возвращает последний y(n).
func (f *FirstOrder) Output() float64 {
	return f.y
}

// Coefficients возвращает коэффициенты (X2 = Y2 = 0).
func (f *FirstOrder) Coefficients() Coefficients {
	return Coefficients{Order: 1, X0: f.cx0, X1: f.cx1, Y1: f.cy1}
}

// SecondOrder: y(n) = cx0*x(n) + cx1*x(n-1) + cx2*x(n-2) + cy1*y(n-1) + cy2*y(n-2).
type SecondOrder struct {
	c      Coefficients
	x1, x2 float64
	y1, y2 float64
	y      float64
}

// NewSecondOrder создаёт корректор 2-го порядка с нулевой историей.
func NewSecondOrder(c Coefficients) *SecondOrder {
	c.Order = 2
	return &SecondOrder{c: c}
}

// Step вычисляет y(n) и сдвигает обе линии задержки на один такт.
func (s *SecondOrder) Step(x float64) float64 {
	s.y = s.c.X0*x + s.c.X1*s.x1 + s.c.X2*s.x2 + s.c.Y1*s.y1 + s.c.Y2*s.y2
	s.y2 = s.y1
	s.y1 = s.y
	s.x2 = s.x1
	s.x1 = x
	return s.y
}

// Reset обнуляет историю входа и выхода.
func (s *SecondOrder) Reset() {
	s.x1, s.x2 = 0, 0
	s.y1, s.y2 = 0, 0
	s.y = 0
}

// Output возвращает последний y(n).
func (s *SecondOrder) Output() float64 {
	return s.y
}

// Coefficients возвращает коэффициенты корректора.
func (s *SecondOrder) Coefficients() Coefficients {
	return s.c
}
