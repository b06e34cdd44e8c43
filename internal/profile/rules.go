package profile

import "strings"

// RuleKind identifies the family a reject rule belongs to. Kinds are
// resolved once at load time so per-message evaluation never re-parses the
// rule text.
type RuleKind string

const (
	RuleAgency     RuleKind = "agency"
	RuleCrypto     RuleKind = "crypto"
	RuleEarlyStage RuleKind = "early-stage"
	// RuleFiveDay and RuleOnsite are recognized so the hard filter can
	// skip them: the work-week and remote-policy checks already cover
	// those constraints and matching them again would double-penalize.
	RuleFiveDay RuleKind = "five-day"
	RuleOnsite  RuleKind = "onsite"
	RuleUnknown RuleKind = "unknown"
)

// RejectRule is a reject_if entry with its resolved kind.
type RejectRule struct {
	Text string
	Kind RuleKind
}

// ruleFamilies maps each kind to the vocabulary that identifies it inside a
// rule's text. Order matters: when a rule matches several families the first
// one in this list wins.
var ruleFamilies = []struct {
	kind     RuleKind
	keywords []string
}{
	{RuleAgency, []string{"agency", "agencia", "consultora", "consulting", "consultancy", "staffing", "outsourcing"}},
	{RuleCrypto, []string{"crypto", "cripto", "blockchain", "web3", "defi", "nft"}},
	{RuleEarlyStage, []string{"early stage", "early-stage", "pre-seed", "preseed", "pre seed", "seed stage", "recien fundada", "recién fundada"}},
	{RuleFiveDay, []string{"5 dias", "5 días", "5-day", "five day", "cinco dias", "cinco días"}},
	{RuleOnsite, []string{"onsite", "on-site", "on site", "presencial", "oficina"}},
}

// ResolveRuleKind maps a free-text reject rule to its family. Unrecognized
// rules resolve to RuleUnknown and are ignored by the hard filter.
func ResolveRuleKind(text string) RuleKind {
	lowered := strings.ToLower(text)
	for _, family := range ruleFamilies {
		for _, keyword := range family.keywords {
			if strings.Contains(lowered, keyword) {
				return family.kind
			}
		}
	}
	return RuleUnknown
}

// matchVocabulary is the per-family vocabulary matched against message text
// and company names when a rule of that kind is evaluated.
var matchVocabulary = map[RuleKind][]string{
	RuleAgency:     {"agency", "agencia", "consultora", "consulting", "consultancy", "staffing", "recruiting firm", "outsourcing", "bodyshop"},
	RuleCrypto:     {"crypto", "cripto", "blockchain", "web3", "defi", "nft", "token", "exchange"},
	RuleEarlyStage: {"early stage", "early-stage", "pre-seed", "preseed", "pre seed", "seed stage", "recien fundada", "recién fundada", "just founded"},
}

// MatchKeywords returns the vocabulary used to detect a rule kind inside
// message text. Kinds delegated to dedicated checks return nil.
func MatchKeywords(kind RuleKind) []string {
	return matchVocabulary[kind]
}
