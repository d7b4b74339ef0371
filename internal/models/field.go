package models

import (
	"time"

	"github.com/google/uuid"
)

// Field is a monitored agricultural plot. Boundary is the insured area the
// imagery provider is queried for; crop and stage feed the risk model.
type Field struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	FarmerID       string          `json:"farmer_id" db:"farmer_id"`
	CropType       CropType        `json:"crop_type" db:"crop_type"`
	GrowthStage    GrowthStage     `json:"growth_stage" db:"growth_stage"`
	SoilType       SoilType        `json:"soil_type" db:"soil_type"`
	IrrigationType IrrigationType  `json:"irrigation_type" db:"irrigation_type"`
	Boundary       *GeoJSONPolygon `json:"boundary" db:"boundary"`
	AreaHectares   float64         `json:"area_hectares" db:"area_hectares"`
	InsuredAmount  *float64        `json:"insured_amount,omitempty" db:"insured_amount"`
	Status         FieldStatus     `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}
