package watch

// Top-level document keys.
const (
	FieldTrigger             = "trigger"
	FieldInput               = "input"
	FieldCondition           = "condition"
	FieldTransform           = "transform"
	FieldThrottlePeriod      = "throttle_period"
	FieldThrottlePeriodHuman = "throttle_period_human"
	FieldActions             = "actions"
	FieldMetadata            = "metadata"
)

// Keys inside a single action entry.
const (
	ActionFieldThrottlePeriod      = "throttle_period"
	ActionFieldThrottlePeriodHuman = "throttle_period_human"
	ActionFieldCondition           = "condition"
	ActionFieldTransform           = "transform"
)
