package usecase_test

import (
	"testing"

	"qa-orchestrator/internal/domain"
	"qa-orchestrator/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_MapsEachSentinel(t *testing.T) {
	classifier := usecase.NewViolationClassifier()

	cases := map[string]domain.ViolationKind{
		"ERREUR_IDENTITÉ":       domain.ViolationIdentity,
		"ERREUR_THÉMATIQUE":     domain.ViolationOffTopic,
		"ERREUR_MALVEILLANCE":   domain.ViolationMalicious,
		"ERREUR_MECONNAISSANCE": domain.ViolationUnknownToCorpus,
	}
	for marker, kind := range cases {
		violation := classifier.Classify("préambule " + marker + " suite du texte")
		require.NotNil(t, violation, marker)
		assert.Equal(t, kind, violation.Kind)
		assert.NotEmpty(t, violation.Response)
	}
}

func TestClassify_NoSentinelYieldsNil(t *testing.T) {
	classifier := usecase.NewViolationClassifier()

	assert.Nil(t, classifier.Classify(""))
	assert.Nil(t, classifier.Classify("Je suis un assistant."))
	// Close but not an exact marker substring.
	assert.Nil(t, classifier.Classify("erreur_malveillance en minuscules"))
}

func TestClassify_PriorityOrder(t *testing.T) {
	classifier := usecase.NewViolationClassifier()

	// Identity outranks everything regardless of position in the text.
	violation := classifier.Classify("ERREUR_MALVEILLANCE puis ERREUR_IDENTITÉ")
	require.NotNil(t, violation)
	assert.Equal(t, domain.ViolationIdentity, violation.Kind)

	violation = classifier.Classify("ERREUR_MECONNAISSANCE et ERREUR_THÉMATIQUE")
	require.NotNil(t, violation)
	assert.Equal(t, domain.ViolationOffTopic, violation.Kind)
}
