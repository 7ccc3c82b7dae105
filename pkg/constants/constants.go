package constants

const (
	AppName      = "medstage"
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "MEDSTAGE"
)

// Relation kinds stored in notifications.related_entity_type.
const (
	EntityInternship  = "Internship"
	EntityApplication = "Application"
	EntityEvaluation  = "Evaluation"
)
