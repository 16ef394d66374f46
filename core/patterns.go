package core

import "regexp"

// PIIType identifies a category of personally identifiable or health-related
// information. The set is closed: detectors only ever emit these values, plus
// any custom pattern names added through the scan policy.
type PIIType string

const (
	// PIIAadhaar is the Indian national identity number
	PIIAadhaar PIIType = "aadhaar"

	// PIIPan is the Indian permanent account (tax) number
	PIIPan PIIType = "pan"

	// PIIEmail is an email address
	PIIEmail PIIType = "email"

	// PIIPhone is a 10-digit phone number
	PIIPhone PIIType = "phone"

	// PIICreditCard is a payment card number
	PIICreditCard PIIType = "credit_card"

	// PIISSN is a US Social Security Number
	PIISSN PIIType = "ssn"

	// PIIIPAddress is an IPv4 address
	PIIIPAddress PIIType = "ip_address"

	// PIIDOB is a date of birth
	PIIDOB PIIType = "dob"

	// PIIPassport is a passport number
	PIIPassport PIIType = "passport"

	// PIIHealth marks free text containing health vocabulary
	PIIHealth PIIType = "health"

	// PIIDSAR marks message content expressing a data-subject request intent
	PIIDSAR PIIType = "dsar"
)

// Law is a compliance law tag attached to findings and requests.
type Law string

const (
	LawGDPR  Law = "GDPR"
	LawCCPA  Law = "CCPA"
	LawDPDP  Law = "DPDP"
	LawHIPAA Law = "HIPAA"
	LawPCI   Law = "PCI-DSS"
)

// piiPatterns holds the fixed regex per PII category.
var piiPatterns = map[PIIType]*regexp.Regexp{
	PIIAadhaar:    regexp.MustCompile(`\b[2-9][0-9]{3}[\s-]?[0-9]{4}[\s-]?[0-9]{4}\b`),
	PIIPan:        regexp.MustCompile(`(?i)\b[A-Z]{5}\d{4}[A-Z]\b`),
	PIIEmail:      regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`),
	PIIPhone:      regexp.MustCompile(`\b\d{10}\b`),
	PIICreditCard: regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`),
	PIISSN:        regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	PIIIPAddress:  regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
	PIIDOB:        regexp.MustCompile(`\b(0?[1-9]|[12][0-9]|3[01])[- /.](0?[1-9]|1[0-2])[- /.](19|20)\d\d\b`),
	PIIPassport:   regexp.MustCompile(`(?i)\b[A-PR-WY][1-9]\d\s?\d{4}[1-9]\b`),
}

// piiOrder fixes the evaluation order of the regex detectors. Go maps
// iterate randomly, but the first-match-per-field semantics of the pipeline
// need a stable order.
var piiOrder = []PIIType{
	PIIAadhaar,
	PIIPan,
	PIIEmail,
	PIIPhone,
	PIICreditCard,
	PIISSN,
	PIIIPAddress,
	PIIDOB,
	PIIPassport,
}

// healthKeywords fires on free text carrying health vocabulary.
var healthKeywords = regexp.MustCompile(`(?i)\b(diabetes|cancer|asthma|blood sugar|diagnosis|patient|prescription|treatment|allergy)\b`)

// fieldHeuristic maps a PII category to the keywords looked for in field
// names. The order matters: the heuristic detector stops at the first
// category whose keyword appears in the field path.
type fieldHeuristic struct {
	Type     PIIType
	Keywords []string
}

var fieldHeuristics = []fieldHeuristic{
	{PIIAadhaar, []string{"aadhaar", "aadhar"}},
	{PIIPan, []string{"pan"}},
	{PIIEmail, []string{"email", "e_mail", "mail"}},
	{PIIPhone, []string{"phone", "mobile", "contact"}},
	{PIIDOB, []string{"dob", "birth"}},
	{PIISSN, []string{"ssn", "social_security"}},
	{PIICreditCard, []string{"card", "credit"}},
	{PIIPassport, []string{"passport"}},
	{PIIHealth, []string{"medical", "health", "diagnosis", "patient"}},
}

// DSARIntent names one of the data-subject request intents the regex
// detector recognizes in message content.
type DSARIntent string

const (
	IntentAccess  DSARIntent = "access"
	IntentDelete  DSARIntent = "delete"
	IntentRectify DSARIntent = "rectify"
	IntentPort    DSARIntent = "port"
	IntentObject  DSARIntent = "object"
)

// dsarPatterns holds the fixed regex per DSAR intent.
var dsarPatterns = map[DSARIntent]*regexp.Regexp{
	IntentAccess: regexp.MustCompile(`(?i)\b(` +
		`data subject access request|dsar|` +
		`request (?:a )?copy of (?:all )?(?:my|the) (?:data|information)|` +
		`provide (?:all )?(?:my|the) (?:personal )?(?:data|information)|` +
		`access (?:all )?(?:my|the) (?:records|data|information)|` +
		`review (?:my|the) (?:data|information)|` +
		`what (?:data|information|details) (?:you|your company) (?:hold|have)|` +
		`show me (?:everything|all) (?:you have|about me)|` +
		`details you (?:collect|store) (?:about me|on me)|` +
		`disclosure of (?:my|the) (?:data|information)` +
		`)\b`),
	IntentDelete: regexp.MustCompile(`(?i)\b(` +
		`delete (?:all )?(?:my|the) (?:personal )?(?:data|information|account)|` +
		`remove (?:my|the) (?:data|information)|` +
		`erase (?:my|the) (?:data|information)|` +
		`forget me|right to be forgotten|` +
		`account deletion|data deletion|permanently delete|` +
		`stop storing (?:my|the) (?:data|information)|` +
		`request deletion of (?:data|information)` +
		`)\b`),
	IntentRectify: regexp.MustCompile(`(?i)\b(` +
		`correct (?:my|the) (?:data|information)|` +
		`update (?:my|the) (?:data|information)|` +
		`fix (?:my|the) (?:records|data|information)|` +
		`rectify (?:my|the) (?:data|information)|` +
		`change (?:my|the) (?:data|information)|` +
		`amend (?:my|the) (?:details|data)|` +
		`data correction` +
		`)\b`),
	IntentPort: regexp.MustCompile(`(?i)\b(` +
		`port (?:my|the) (?:data|information)|` +
		`transfer (?:my|the) (?:data|information)|` +
		`export (?:my|the) (?:data|information)|` +
		`data portability|` +
		`migrate (?:my|the) (?:data|information)|` +
		`move (?:my|the) (?:data|information)|` +
		`provide (?:my|the) data in (?:machine readable|portable) format` +
		`)\b`),
	IntentObject: regexp.MustCompile(`(?i)\b(` +
		`object to processing|restrict processing|stop processing|` +
		`opt out|withdraw consent|` +
		`stop using (?:my|the) (?:data|information)|` +
		`do not (?:sell|share|process|track) (?:my|the) (?:data|information)|` +
		`stop tracking|` +
		`block use of (?:my|the) (?:data|information)` +
		`)\b`),
}

// dsarIntentOrder fixes the evaluation order of the DSAR regex detectors.
var dsarIntentOrder = []DSARIntent{
	IntentAccess,
	IntentDelete,
	IntentRectify,
	IntentPort,
	IntentObject,
}

// DSARLabels is the full candidate-label set handed to the zero-shot
// classifier, one call per message.
var DSARLabels = []string{
	"access", "delete", "rectify", "portability", "object",
	"withdraw_consent", "restrict_processing", "complaint",
	"transparency", "marketing_opt_out", "unsubscribe", "privacy_policy_info",
}

// complianceMap maps a PII category to the laws governing it.
var complianceMap = map[PIIType][]Law{
	PIIAadhaar:    {LawDPDP},
	PIIPan:        {LawDPDP, LawGDPR},
	PIIEmail:      {LawGDPR, LawCCPA},
	PIIPhone:      {LawGDPR, LawCCPA},
	PIICreditCard: {LawPCI, LawGDPR},
	PIISSN:        {LawHIPAA, LawGDPR},
	PIIIPAddress:  {LawGDPR, LawCCPA},
	PIIDOB:        {LawGDPR, LawCCPA},
	PIIPassport:   {LawGDPR},
	PIIHealth:     {LawHIPAA, LawGDPR},
	PIIDSAR:       {LawGDPR, LawCCPA},
}

// MapToLaws returns the compliance laws for a PII category. Unknown
// categories (custom policy patterns) map to no laws.
func MapToLaws(t PIIType) []Law {
	laws, ok := complianceMap[t]
	if !ok {
		return nil
	}
	out := make([]Law, len(laws))
	copy(out, laws)
	return out
}
