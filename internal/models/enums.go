package models

type CropType string

const (
	CropRice      CropType = "rice"
	CropWheat     CropType = "wheat"
	CropMaize     CropType = "maize"
	CropCotton    CropType = "cotton"
	CropSoybean   CropType = "soybean"
	CropSugarcane CropType = "sugarcane"
)

type GrowthStage string

const (
	StageGermination GrowthStage = "germination"
	StageVegetative  GrowthStage = "vegetative"
	StageFlowering   GrowthStage = "flowering"
	StageMaturity    GrowthStage = "maturity"
)

type SoilType string

const (
	SoilSandy SoilType = "sandy"
	SoilLoamy SoilType = "loamy"
	SoilSilty SoilType = "silty"
	SoilClay  SoilType = "clay"
)

type IrrigationType string

const (
	IrrigationDrip      IrrigationType = "drip"
	IrrigationSprinkler IrrigationType = "sprinkler"
	IrrigationCanal     IrrigationType = "canal"
	IrrigationRainfed   IrrigationType = "rainfed"
)

type HazardType string

const (
	HazardWaterlogging HazardType = "waterlogging"
	HazardDrought      HazardType = "drought"
	HazardHeat         HazardType = "heat"
	HazardCold         HazardType = "cold"
	HazardDisease      HazardType = "disease"
	HazardWind         HazardType = "wind"
)

// AllHazards lists every hazard the risk model scores, in overall-weight order.
var AllHazards = []HazardType{
	HazardWaterlogging,
	HazardDrought,
	HazardHeat,
	HazardCold,
	HazardDisease,
	HazardWind,
}

type AlertLevel string

const (
	AlertNormal   AlertLevel = "normal"
	AlertLow      AlertLevel = "low"
	AlertMedium   AlertLevel = "medium"
	AlertHigh     AlertLevel = "high"
	AlertCritical AlertLevel = "critical"
)

type RecommendationPriority string

const (
	PriorityUrgent RecommendationPriority = "urgent"
	PriorityHigh   RecommendationPriority = "high"
	PriorityMedium RecommendationPriority = "medium"
	PriorityLow    RecommendationPriority = "low"
)

type FraudRisk string

const (
	FraudRiskLow    FraudRisk = "low"
	FraudRiskMedium FraudRisk = "medium"
	FraudRiskHigh   FraudRisk = "high"
)

type VerificationTier string

const (
	TierAutoApproved VerificationTier = "auto_approved"
	TierVerified     VerificationTier = "verified"
	TierConditional  VerificationTier = "conditional"
	TierManualReview VerificationTier = "manual_review"
)

type FieldStatus string

const (
	FieldActive   FieldStatus = "active"
	FieldInactive FieldStatus = "inactive"
	FieldArchived FieldStatus = "archived"
)

type InterpretationLabel string

const (
	InterpretationExcellent InterpretationLabel = "excellent"
	InterpretationGood      InterpretationLabel = "good"
	InterpretationFair      InterpretationLabel = "fair"
	InterpretationPoor      InterpretationLabel = "poor"
	InterpretationCritical  InterpretationLabel = "critical"
)
