package privacy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() map[string]any {
	return map[string]any{
		"id": "conv-1",
		"interactions": []any{
			map[string]any{
				"id":       "int-1",
				"question": "Quelle est la procédure ?",
				"answer":   "La procédure est décrite page 4.",
				"score":    0.87,
				"flagged":  false,
				"comment":  nil,
			},
			map[string]any{
				"id":       "int-2",
				"question": "Et ensuite ?",
				"answer":   "Ensuite vient la validation.",
				"score":    0.42,
				"flagged":  true,
				"comment":  nil,
			},
		},
	}
}

func TestEncryptExcept_KeepsListedPathsPlain(t *testing.T) {
	engine := newTestEngine(t)
	keepPlain := []string{"id", "interactions.*.id"}

	encrypted, err := engine.EncryptExcept(sampleDocument(), keepPlain)
	require.NoError(t, err)

	root := encrypted.(map[string]any)
	assert.Equal(t, "conv-1", root["id"])

	interactions := root["interactions"].([]any)
	first := interactions[0].(map[string]any)
	second := interactions[1].(map[string]any)

	assert.Equal(t, "int-1", first["id"])
	assert.Equal(t, "int-2", second["id"])

	// String scalars outside the plaintext paths are encrypted.
	assert.NotEqual(t, "Quelle est la procédure ?", first["question"])
	assert.NotEqual(t, "Et ensuite ?", second["question"])

	// Non-string scalars and nils pass through untouched.
	assert.Equal(t, 0.87, first["score"])
	assert.Equal(t, true, second["flagged"])
	assert.Nil(t, first["comment"])
}

func TestEncryptExcept_DoesNotMutateInput(t *testing.T) {
	engine := newTestEngine(t)
	document := sampleDocument()

	_, err := engine.EncryptExcept(document, []string{"id"})
	require.NoError(t, err)

	first := document["interactions"].([]any)[0].(map[string]any)
	assert.Equal(t, "Quelle est la procédure ?", first["question"])
}

func TestEncryptExcept_PatternCoversSubtree(t *testing.T) {
	engine := newTestEngine(t)
	document := map[string]any{
		"meta":   map[string]any{"kind": "positive", "tags": []any{"clair", "complet"}},
		"secret": "à chiffrer",
	}

	encrypted, err := engine.EncryptExcept(document, []string{"meta"})
	require.NoError(t, err)

	root := encrypted.(map[string]any)
	meta := root["meta"].(map[string]any)
	assert.Equal(t, "positive", meta["kind"])
	assert.Equal(t, []any{"clair", "complet"}, meta["tags"])
	assert.NotEqual(t, "à chiffrer", root["secret"])
}

func TestDecryptAt_OnlyTouchesListedPaths(t *testing.T) {
	engine := newTestEngine(t)
	keepPlain := []string{"id", "interactions.*.id"}

	encrypted, err := engine.EncryptExcept(sampleDocument(), keepPlain)
	require.NoError(t, err)

	decrypted := engine.DecryptAt(encrypted, []string{"interactions.*.question"})
	root := decrypted.(map[string]any)
	interactions := root["interactions"].([]any)
	first := interactions[0].(map[string]any)
	second := interactions[1].(map[string]any)

	assert.Equal(t, "Quelle est la procédure ?", first["question"])
	assert.Equal(t, "Et ensuite ?", second["question"])

	// Answers were not listed, so they stay encrypted.
	assert.NotEqual(t, "La procédure est décrite page 4.", first["answer"])
	assert.NotEqual(t, "Ensuite vient la validation.", second["answer"])
}

func TestDecryptAt_DoesNotMutateInput(t *testing.T) {
	engine := newTestEngine(t)

	encrypted, err := engine.EncryptExcept(sampleDocument(), []string{"id"})
	require.NoError(t, err)
	encryptedRoot := encrypted.(map[string]any)
	encryptedQuestion := encryptedRoot["interactions"].([]any)[0].(map[string]any)["question"]

	_ = engine.DecryptAt(encrypted, []string{"interactions.*.question"})

	stillEncrypted := encryptedRoot["interactions"].([]any)[0].(map[string]any)["question"]
	assert.Equal(t, encryptedQuestion, stillEncrypted)
}

// Fields in the plaintext set are byte-identical after encryptExcept then
// decryptAt on the same set; decryptAt changes nothing there since those
// fields were never encrypted.
func TestEncryptThenDecrypt_AsymmetricRoundTrip(t *testing.T) {
	engine := newTestEngine(t)
	keepPlain := []string{"id", "interactions.*.id"}

	encrypted, err := engine.EncryptExcept(sampleDocument(), keepPlain)
	require.NoError(t, err)
	roundTripped := engine.DecryptAt(encrypted, keepPlain).(map[string]any)

	assert.Equal(t, "conv-1", roundTripped["id"])
	first := roundTripped["interactions"].([]any)[0].(map[string]any)
	assert.Equal(t, "int-1", first["id"])

	// Fields outside the set were encrypted and remain encrypted, but are
	// recoverable at their own paths.
	assert.NotEqual(t, "Quelle est la procédure ?", first["question"])
	recovered := engine.DecryptAt(roundTripped, []string{"interactions.*.question", "interactions.*.answer"}).(map[string]any)
	recoveredFirst := recovered["interactions"].([]any)[0].(map[string]any)
	assert.Equal(t, "Quelle est la procédure ?", recoveredFirst["question"])
	assert.Equal(t, "La procédure est décrite page 4.", recoveredFirst["answer"])
}

func TestDecryptAt_MissingPathIsIgnored(t *testing.T) {
	engine := newTestEngine(t)

	document := map[string]any{"present": "value"}
	decrypted := engine.DecryptAt(document, []string{"absent", "present.too.deep"})

	assert.Equal(t, map[string]any{"present": "value"}, decrypted)
}
