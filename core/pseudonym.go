package core

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var pseudonymDomains = []string{"example.com", "test.org", "demo.net"}

var pseudonymFirstNames = []string{"John", "Jane", "Alex", "Sam", "Taylor", "Casey"}

var pseudonymLastNames = []string{"Smith", "Johnson", "Williams", "Brown", "Jones"}

const pseudonymLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// pseudonymTable maps original values to stable fake values of the same
// shape. Lookups are read-modify-write atomic so concurrent callers never
// mint two different pseudonyms for one value.
type pseudonymTable struct {
	mu         sync.Mutex
	byOriginal map[string]string
}

func newPseudonymTable() *pseudonymTable {
	return &pseudonymTable{byOriginal: make(map[string]string)}
}

// pseudonymize returns the stable pseudonym for a value, generating one on
// first sight. The metadata records whether the pseudonym already existed.
func (t *pseudonymTable) pseudonymize(value string, pii PIIType) TransformationResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pseudonym, ok := t.byOriginal[value]; ok {
		return result(value, pseudonym, Pseudonymization, 1.0,
			map[string]string{"pseudonym_type": "existing"})
	}

	pseudonym := t.generate(pii)
	t.byOriginal[value] = pseudonym

	return result(value, pseudonym, Pseudonymization, 1.0,
		map[string]string{"pseudonym_type": "generated"})
}

// generate builds a fake value matching the category's shape. Callers hold
// the table lock.
func (t *pseudonymTable) generate(pii PIIType) string {
	switch pii {
	case PIIEmail:
		domain := pseudonymDomains[rand.IntN(len(pseudonymDomains))]
		return fmt.Sprintf("user%d@%s", len(t.byOriginal)+1, domain)
	case PIIPhone, PIIAadhaar:
		return fmt.Sprintf("+91-%d", 6000000000+rand.Int64N(4000000000))
	case PIIPan:
		var b strings.Builder
		for i := 0; i < 5; i++ {
			b.WriteByte(pseudonymLetters[rand.IntN(len(pseudonymLetters))])
		}
		for i := 0; i < 4; i++ {
			b.WriteByte(byte('0' + rand.IntN(10)))
		}
		b.WriteByte(pseudonymLetters[rand.IntN(len(pseudonymLetters))])
		return b.String()
	case PIIType("name"):
		first := pseudonymFirstNames[rand.IntN(len(pseudonymFirstNames))]
		last := pseudonymLastNames[rand.IntN(len(pseudonymLastNames))]
		return first + " " + last
	default:
		return "pseudo_" + uuidHex(8)
	}
}

// tokenize generates a unique opaque token per call. Unlike
// pseudonymization, repeat calls on the same value yield different tokens;
// the reversible mapping is assumed to live in an external vault.
func tokenize(value string) TransformationResult {
	token := "TOKEN_" + strings.ToUpper(uuidHex(12))
	return result(value, token, Tokenization, 1.0, map[string]string{
		"token_type":      "reversible",
		"token_id":        token,
		"original_length": fmt.Sprintf("%d", len(value)),
		"mapping_stored":  "true",
	})
}

func uuidHex(n int) string {
	h := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}
