// model/resource.go
package model

// Sensitivity classifies how tightly a resource is guarded. The risk scorer
// keys its tolerance thresholds off this value.
type Sensitivity string

const (
	SensitivityPublic       Sensitivity = "public"
	SensitivityPersonal     Sensitivity = "personal"
	SensitivityFinancial    Sensitivity = "financial"
	SensitivityConfidential Sensitivity = "confidential"
)

// Resource describes the target of an access request. Supplied by the
// caller; the engine never mutates it.
type Resource struct {
	Type        string      `json:"type"`
	ID          string      `json:"id"`
	Sensitivity Sensitivity `json:"sensitivity"`
}
