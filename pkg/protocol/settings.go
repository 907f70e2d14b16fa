package protocol

// SettingType declares how a raw setting value is cleaned before storage.
type SettingType string

const (
	SettingTypeString   SettingType = "string"   // Single line, control characters stripped
	SettingTypeText     SettingType = "text"     // Free text, kept as-is
	SettingTypeInt      SettingType = "int"      // Integer coercion
	SettingTypeBool     SettingType = "bool"     // Boolean coercion
	SettingTypeDuration SettingType = "duration" // Seconds, stored as integer
)

// SettingDescriptor declares one configuration parameter of a subplugin.
type SettingDescriptor struct {
	Name string      `json:"name"`
	Type SettingType `json:"type"`

	// Required settings must be present for ValidateSettings to pass.
	Required bool `json:"required"`

	// Frozen settings may no longer be edited once the owning workflow
	// has been activated.
	Frozen bool `json:"frozen"`

	Description string `json:"description,omitempty"`
}
