package testutil

import "arvaiapulse/pkg/contracts/domain"

// SampleTSV is a small distribution sheet covering three weeks and three
// products, with Italian number formatting.
const SampleTSV = "Data\tProdotto\tPeso_kg\tSettimana\tTemperatura media\tTemperatura massima\tTemperatura minima\tPrecipitazioni\n" +
	"07/01/2025\tCavolo nero\t12,5\t2\t4,0\t8,0\t0,0\t1,2\n" +
	"07/01/2025\tPatate\t30,0\t2\t4,0\t8,0\t0,0\t1,2\n" +
	"14/01/2025\tCavolo nero\t10,0\t3\t6,0\t10,0\t2,0\t0,0\n" +
	"14/01/2025\tPorri\t8,5\t3\t6,0\t10,0\t2,0\t0,0\n" +
	"21/01/2025\tPatate\t1.020,0\t4\t5,0\t9,0\t1,0\t3,4\n"

// SampleRecords returns the records SampleTSV parses to.
func SampleRecords() []domain.HarvestRecord {
	return []domain.HarvestRecord{
		{Date: "07/01/2025", Product: "cavolo nero", WeightKg: 12.5, Week: 2, TempAvg: 4, TempMax: 8, TempMin: 0, Precipitation: 1.2},
		{Date: "07/01/2025", Product: "patate", WeightKg: 30, Week: 2, TempAvg: 4, TempMax: 8, TempMin: 0, Precipitation: 1.2},
		{Date: "14/01/2025", Product: "cavolo nero", WeightKg: 10, Week: 3, TempAvg: 6, TempMax: 10, TempMin: 2, Precipitation: 0},
		{Date: "14/01/2025", Product: "porri", WeightKg: 8.5, Week: 3, TempAvg: 6, TempMax: 10, TempMin: 2, Precipitation: 0},
		{Date: "21/01/2025", Product: "patate", WeightKg: 1020, Week: 4, TempAvg: 5, TempMax: 9, TempMin: 1, Precipitation: 3.4},
	}
}
