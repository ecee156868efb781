package compensator

// Настройки по умолчанию для моторов Protronik Kv750 и тяги 2,711 кг (цикл 100 Гц).
// Используются, если файл параметров аппарата не задан.
var (
	DefaultRoll  = Coefficients{Order: 2, X0: 14.6972062, X1: -29.2788573, X2: 14.5818480, Y1: 1.8902053, Y2: -0.8902053}
	DefaultPitch = Coefficients{Order: 2, X0: 74.4323381, X1: -148.6091737, X2: 74.1770095, Y1: 1.4994958, Y2: -0.4994958}
	DefaultYaw   = Coefficients{Order: 2, X0: 0.2856231, X1: -0.5596865, X2: 0.2740904, Y1: 1.9839837, Y2: -0.9839837}
)
