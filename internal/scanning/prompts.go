package scanning

import "fmt"

// DashboardMode narrows what the dashboard prompt asks the model to read
type DashboardMode string

const (
	DashboardAll         DashboardMode = "all"
	DashboardConsumption DashboardMode = "consumption"
	DashboardDistance    DashboardMode = "distance"
)

// ParseDashboardMode validates a mode name. An empty name selects all fields.
func ParseDashboardMode(s string) (DashboardMode, error) {
	switch DashboardMode(s) {
	case "":
		return DashboardAll, nil
	case DashboardAll, DashboardConsumption, DashboardDistance:
		return DashboardMode(s), nil
	}
	return "", fmt.Errorf("unknown dashboard mode %q", s)
}

// receiptPrompt asks for the fuel receipt fields as strict JSON
const receiptPrompt = `Bu benzin istasyonu fişinden şu bilgileri çıkar:
- Litre başına fiyat (TL/L)
- Toplam ödenen tutar (TL)
- Alınan yakıt miktarı (Litre)
- Fiş tarihi (YYYY-MM-DD)
- İstasyon adı

Sayılar sayı olmalı, metin değil. Okuyamadığın alan için null kullan.
Yanıttan önce veya sonra metin ekleme, Markdown kod bloğu kullanma.

SADECE JSON formatında döndür:
{"pricePerLiter": number veya null, "totalAmount": number veya null, "liters": number veya null, "date": string veya null, "station": string veya null}`

var dashboardPrompts = map[DashboardMode]string{
	DashboardConsumption: `Bu araç gösterge paneli fotoğrafından SADECE şu bilgiyi çıkar:
- Ortalama yakıt tüketimi (L/100km olarak gösterilen değer)
- Kilometre sayacı (varsa)

Ekranda "Tüketim" veya "L/100" yazan değeri bul.
ÖNEMLİ: Sadece net olarak okuduğun değerleri yaz.

SADECE JSON formatında döndür:
{"consumption": number veya null, "odometer": number veya null, "distance": null}`,

	DashboardDistance: `Bu araç gösterge paneli fotoğrafından şu bilgileri çıkar:
- Yapılan mesafe / trip distance (km olarak)
- Ortalama hız (km/h olarak)
- Kilometre sayacı (varsa)

Ekranda "Yol bilgisi" veya yapılan km değerini ve ortalama hız (Ø km/h) değerini bul.
ÖNEMLİ: Sadece net olarak okuduğun değerleri yaz.

SADECE JSON formatında döndür:
{"distance": number veya null, "avgSpeed": number veya null, "odometer": number veya null, "consumption": null}`,

	DashboardAll: `Bu araç gösterge paneli fotoğrafından şu bilgileri çıkar:
- Kilometre sayacı (toplam km)
- Ortalama yakıt tüketimi (L/100km)
- Yapılan mesafe (km)

SADECE JSON formatında döndür:
{"odometer": number veya null, "consumption": number veya null, "distance": number veya null}`,
}

// systemPrompt is sent as the system message to providers that take one
const systemPrompt = "You read fuel receipts and vehicle instrument clusters. Reply with JSON only."
