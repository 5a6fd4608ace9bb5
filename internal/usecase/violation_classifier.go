package usecase

import (
	"strings"

	"qa-orchestrator/internal/domain"
)

// sentinelChecks lists the reserved markers the generation model emits when
// it refuses a question, in priority order. The first match wins.
var sentinelChecks = []struct {
	marker string
	kind   domain.ViolationKind
}{
	{"ERREUR_IDENTITÉ", domain.ViolationIdentity},
	{"ERREUR_THÉMATIQUE", domain.ViolationOffTopic},
	{"ERREUR_MALVEILLANCE", domain.ViolationMalicious},
	{"ERREUR_MECONNAISSANCE", domain.ViolationUnknownToCorpus},
}

// ViolationClassifier inspects generated text for sentinel markers and maps
// them to canned safety responses.
type ViolationClassifier struct{}

// NewViolationClassifier creates a classifier instance (stateless).
func NewViolationClassifier() ViolationClassifier {
	return ViolationClassifier{}
}

// Classify returns the violation matching the first sentinel marker found in
// the generated text, or nil when the text carries none. It is a total
// function of the text alone.
func (ViolationClassifier) Classify(generatedText string) *domain.Violation {
	for _, check := range sentinelChecks {
		if strings.Contains(generatedText, check.marker) {
			return domain.NewViolation(check.kind)
		}
	}
	return nil
}
