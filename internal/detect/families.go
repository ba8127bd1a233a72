package detect

// Family is a named category of linguistic triggers used both to
// detect candidates and to weight confidence downstream. Triggers are
// regular expressions with a single capture group holding the task
// span; keeping them as data means recall tuning is a config change,
// not a code change.
type Family struct {
	// Name tags candidates and feeds task_type.
	Name string `json:"name"`

	// Prior reflects the historical precision of this family and is
	// consumed by the confidence scorer.
	Prior float64 `json:"prior"`

	// Triggers are case-insensitive regexes; each must capture the
	// task span in group 1.
	Triggers []string `json:"triggers"`
}

// span is the shared capture for the task text following a trigger.
const span = `(.{5,150})`

// DefaultFamilies returns the built-in pattern library. Recall is
// deliberately optimized here; precision is recovered by the scorer
// threshold and the deduplicator.
func DefaultFamilies() []Family {
	return []Family{
		{Name: "explicit", Prior: 0.9, Triggers: []string{
			`(?i)\b(?:need to|needs to|needed to)\s+` + span,
			`(?i)\b(?:have to|has to|had to|must|required to)\s+` + span,
			`(?i)\b(?:critical|crucial|essential|vital)\s+(?:to|that we)\s+` + span,
			`(?i)\b(?:should|ought to|supposed to)\s+` + span,
		}},
		{Name: "urgent", Prior: 0.9, Triggers: []string{
			`(?i)\b(?:urgent|urgently|asap|as soon as possible)\b.*?` + span,
			`(?i)\b(?:immediately|right away|right now)\s+` + span,
		}},
		{Name: "assignment", Prior: 0.9, Triggers: []string{
			`(?i)\b(?:responsible for|in charge of|assigned to|tasked with)\s+` + span,
			`(?i)\b(?:your responsibility|you're responsible)\s+(?:to|for)\s+` + span,
		}},
		{Name: "request", Prior: 0.85, Triggers: []string{
			`(?i)\b(?:please|can you|could you|would you|will you)\s+` + span,
			`(?i)\b(?:make sure|ensure|guarantee)\s+(?:to|that|we)\s+` + span,
		}},
		{Name: "commitment", Prior: 0.6, Triggers: []string{
			`(?i)\b(?:will|'ll|shall)\s+` + span,
			`(?i)\b(?:going to|gonna)\s+` + span,
			`(?i)\b(?:plan to|planning to|intend to)\s+` + span,
		}},
		{Name: "self_commitment", Prior: 0.7, Triggers: []string{
			`(?i)\b(?:I'll|I will|I'm going to|I can|I should)\s+` + span,
		}},
		{Name: "collaborative", Prior: 0.7, Triggers: []string{
			`(?i)\b(?:let's|let us)\s+` + span,
			`(?i)\b(?:we need to|we should|we have to)\s+` + span,
			`(?i)\b(?:team needs to|group should)\s+` + span,
		}},
		{Name: "follow_up", Prior: 0.7, Triggers: []string{
			`(?i)\b(?:follow up|follow-up|followup)\s+(?:on|with)\s+` + span,
			`(?i)\b(?:get back to|circle back|touch base)\s+(?:with|on)\s+` + span,
			`(?i)\b(?:check in|sync up|catch up)\s+(?:with|on)\s+` + span,
		}},
		{Name: "documentation", Prior: 0.65, Triggers: []string{
			`(?i)\b(?:document|write down|note down|record)\s+` + span,
			`(?i)\b(?:update|revise|modify|edit)\s+(?:the\s+)?` + span,
		}},
		{Name: "creation", Prior: 0.65, Triggers: []string{
			`(?i)\b(?:create|build|develop|design|implement|set up)\s+` + span,
			`(?i)\b(?:draft|prepare|put together|compile)\s+` + span,
		}},
		{Name: "communication", Prior: 0.65, Triggers: []string{
			`(?i)\b(?:send|email|share|distribute|forward)\s+` + span,
			`(?i)\b(?:reach out|contact|get in touch|connect)\s+(?:to|with)\s+` + span,
		}},
		{Name: "scheduling", Prior: 0.65, Triggers: []string{
			`(?i)\b(?:schedule|arrange|organize|coordinate)\s+` + span,
		}},
		{Name: "review", Prior: 0.65, Triggers: []string{
			`(?i)\b(?:review|check|verify|validate|confirm)\s+` + span,
			`(?i)\b(?:test|quality check|qa)\s+` + span,
		}},
		{Name: "analysis", Prior: 0.65, Triggers: []string{
			`(?i)\b(?:analyze|evaluate|assess|examine|investigate)\s+` + span,
		}},
		{Name: "delivery", Prior: 0.65, Triggers: []string{
			`(?i)\b(?:deliver|submit|provide|present)\s+` + span,
			`(?i)\b(?:finish|complete|finalize|wrap up)\s+` + span,
		}},
		{Name: "ownership", Prior: 0.7, Triggers: []string{
			`(?i)\b(?:own|take ownership of|drive|lead|spearhead)\s+` + span,
			`(?i)\b(?:manage|oversee|supervise)\s+` + span,
		}},
		{Name: "suggestion", Prior: 0.4, Triggers: []string{
			`(?i)\b(?:consider|think about|look into)\s+` + span,
			`(?i)\b(?:would be good to|would be nice to|it'd be great to)\s+` + span,
			`(?i)\b(?:could|might|may|perhaps)\s+` + span,
		}},
		{Name: "question_delegation", Prior: 0.55, Triggers: []string{
			`(?i)\bwho\s+(?:can|could|wants to|is going to)\s+` + span,
			`(?i)\b(?:can|could)\s+(?:someone|somebody|anyone)\s+` + span,
		}},
	}
}

// Priors returns the family name to prior weight mapping for the
// scorer's family_prior feature.
func Priors(families []Family) map[string]float64 {
	priors := make(map[string]float64, len(families))
	for _, f := range families {
		priors[f.Name] = f.Prior
	}
	return priors
}

// DefaultExclusions returns patterns that exempt an utterance from
// detection entirely: greetings, farewells, thanks and bare
// affirmations carry no task content but often contain modal verbs.
func DefaultExclusions() []string {
	return []string{
		`(?i)^(?:hi|hey|hello|howdy|good morning|good afternoon|good evening)\b`,
		`(?i)^(?:bye|goodbye|see you|talk (?:soon|later))\b`,
		`(?i)^(?:thanks|thank you|appreciated)\b`,
		`(?i)^(?:great|perfect|excellent|awesome|sounds good)[\s!.]*$`,
		`(?i)^(?:yes|yeah|yep|no|nope|okay|ok|sure|right|alright)[\s!.]*$`,
	}
}
