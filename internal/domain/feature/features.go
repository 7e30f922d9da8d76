package feature

import "github.com/okian/ctrd/internal/domain/model"

// Categorical field names used to index codebook maps. The four fields are
// encoded in this order at the head of every feature vector.
const (
	FieldLineItemID  = "line_item_id"
	FieldDeviceType  = "device_type"
	FieldCountry     = "country"
	FieldPublisherID = "publisher_id"
)

// VectorSize is the full feature vector width: four encoded categorical
// fields, two raw temporal fields, and three engineered booleans.
const VectorSize = 9

// Temporal feature boundaries.
const (
	weekendFirstDay    = 5 // Saturday in the 0=Monday convention
	businessHoursStart = 9
	businessHoursEnd   = 17
	eveningStart       = 18
	eveningEnd         = 22
)

// CategoricalFields lists the encoded fields in vector order.
func CategoricalFields() []string {
	return []string{FieldLineItemID, FieldDeviceType, FieldCountry, FieldPublisherID}
}

// IsWeekend reports whether dayOfWeek (0..6) falls on the weekend.
func IsWeekend(dayOfWeek int) bool {
	return dayOfWeek == weekendFirstDay || dayOfWeek == weekendFirstDay+1
}

// IsBusinessHours reports whether hourOfDay (0..23) is within 9..17.
func IsBusinessHours(hourOfDay int) bool {
	return hourOfDay >= businessHoursStart && hourOfDay <= businessHoursEnd
}

// IsEvening reports whether hourOfDay (0..23) is within 18..22.
func IsEvening(hourOfDay int) bool {
	return hourOfDay >= eveningStart && hourOfDay <= eveningEnd
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Vector assembles the full 9-dimensional feature vector for a context using
// the given per-field codebooks. This is the single assembly path used by the
// trainer and the scorer.
//
// Order: [line_item, device, country, publisher, hour, day,
// is_weekend, is_business_hours, is_evening].
func Vector(ctx model.PredictionContext, codebooks map[string]*Codebook) []float64 {
	v := make([]float64, VectorSize)
	v[0] = float64(codebooks[FieldLineItemID].Encode(IntKey(ctx.LineItemID)))
	v[1] = float64(codebooks[FieldDeviceType].Encode(ctx.DeviceType))
	v[2] = float64(codebooks[FieldCountry].Encode(ctx.Country))
	v[3] = float64(codebooks[FieldPublisherID].Encode(IntKey(ctx.PublisherID)))
	v[4] = float64(ctx.HourOfDay)
	v[5] = float64(ctx.DayOfWeek)
	v[6] = boolFeature(IsWeekend(ctx.DayOfWeek))
	v[7] = boolFeature(IsBusinessHours(ctx.HourOfDay))
	v[8] = boolFeature(IsEvening(ctx.HourOfDay))
	return v
}

// SampleContext converts a training sample into the context form consumed by
// Vector, so both paths share one transform.
func SampleContext(s model.TrainingSample) model.PredictionContext {
	return model.PredictionContext{
		LineItemID:  s.LineItemID,
		DeviceType:  s.DeviceType,
		Country:     s.Country,
		PublisherID: s.PublisherID,
		HourOfDay:   s.HourOfDay,
		DayOfWeek:   s.DayOfWeek,
	}
}
