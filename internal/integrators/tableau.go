package integrators

// Tableau is an explicit embedded Runge-Kutta pair with first-same-as-last
// stage ordering and a continuous extension.
//
// Stage i is evaluated at t + C[i]*h from x + h*sum_j A[i][j]*k_j. The extra
// stage k_{len(C)} is f(t+h, x_new) and becomes k_0 of the next step. E holds
// the weights of the local error estimate (b - b̂) over all len(C)+1 stages,
// and P the dense output polynomial coefficients:
//
//	x(t + θh) = x + h * sum_i k_i * sum_j P[i][j] θ^(j+1)
type Tableau struct {
	Name       string
	Order      int
	ErrorOrder int
	C          []float64
	A          [][]float64
	B          []float64
	E          []float64
	P          [][]float64
}

func (tb *Tableau) Stages() int { return len(tb.C) }

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// Dopri5 is the Dormand-Prince 5(4) pair with Shampine's fourth-order
// continuous extension.
func Dopri5() *Tableau {
	return &Tableau{
		Name:       MethodDopri5,
		Order:      5,
		ErrorOrder: 4,
		C:          []float64{0, a2, a3, a4, a5, 1},
		A: [][]float64{
			{},
			{b21},
			{b31, b32},
			{b41, b42, b43},
			{b51, b52, b53, b54},
			{b61, b62, b63, b64, b65},
		},
		B: []float64{c1, 0, c3, c4, c5, c6},
		E: []float64{dc1, 0, dc3, dc4, dc5, dc6, dc7},
		P: [][]float64{
			{1, -8048581381.0 / 2820520608.0, 8663915743.0 / 2820520608.0, -12715105075.0 / 11282082432.0},
			{0, 0, 0, 0},
			{0, 131558114200.0 / 32700410799.0, -68118460800.0 / 10900136933.0, 87487479700.0 / 32700410799.0},
			{0, -1754552775.0 / 470086768.0, 14199869525.0 / 1410260304.0, -10690763975.0 / 1880347072.0},
			{0, 127303824393.0 / 49829197408.0, -318862633887.0 / 49829197408.0, 701980252875.0 / 199316789632.0},
			{0, -282668133.0 / 205662961.0, 2019193451.0 / 616988883.0, -1453857185.0 / 822651844.0},
			{0, 40617522.0 / 29380423.0, -110615467.0 / 29380423.0, 69997945.0 / 29380423.0},
		},
	}
}

// BS23 is the Bogacki-Shampine 3(2) pair with cubic Hermite dense output.
// Cheaper per step than Dopri5; suited to loose tolerances.
func BS23() *Tableau {
	return &Tableau{
		Name:       MethodBS23,
		Order:      3,
		ErrorOrder: 2,
		C:          []float64{0, 1.0 / 2.0, 3.0 / 4.0},
		A: [][]float64{
			{},
			{1.0 / 2.0},
			{0, 3.0 / 4.0},
		},
		B: []float64{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0},
		E: []float64{2.0/9.0 - 7.0/24.0, 1.0/3.0 - 1.0/4.0, 4.0/9.0 - 1.0/3.0, -1.0 / 8.0},
		P: [][]float64{
			{1, -4.0 / 3.0, 5.0 / 9.0},
			{0, 1, -2.0 / 3.0},
			{0, 4.0 / 3.0, -8.0 / 9.0},
			{0, -1, 1},
		},
	}
}
