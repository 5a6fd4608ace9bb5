package domain

// ViolationKind identifies why a generated answer was withheld.
type ViolationKind string

const (
	ViolationIdentity            ViolationKind = "identity"
	ViolationOffTopic            ViolationKind = "off_topic"
	ViolationMalicious           ViolationKind = "malicious"
	ViolationUnknownToCorpus     ViolationKind = "unknown_to_corpus"
	ViolationUnparseableQuestion ViolationKind = "unparseable_question"
)

// cannedResponses maps each violation kind to the fixed user-facing text
// that replaces the generated answer.
var cannedResponses = map[ViolationKind]string{
	ViolationIdentity:            "Je suis un assistant documentaire. Je ne peux pas répondre aux questions portant sur mon identité ou mon fonctionnement interne.",
	ViolationOffTopic:            "Votre question sort du périmètre couvert par la documentation. Merci de poser une question en lien avec les documents de référence.",
	ViolationMalicious:           "Votre question a été identifiée comme potentiellement malveillante. Aucune réponse ne peut y être apportée.",
	ViolationUnknownToCorpus:     "Je n'ai pas trouvé d'éléments dans la documentation permettant de répondre à votre question.",
	ViolationUnparseableQuestion: "Je n'ai pas compris votre question. Pourriez-vous la reformuler ?",
}

// Violation is a safety or scope classification of a generated answer.
type Violation struct {
	Kind     ViolationKind
	Response string
}

// NewViolation builds the violation for the given kind with its canned response.
func NewViolation(kind ViolationKind) *Violation {
	return &Violation{
		Kind:     kind,
		Response: cannedResponses[kind],
	}
}
