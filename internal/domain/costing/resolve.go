package costing

// ResolutionSource names the link of the chain that produced a method
type ResolutionSource string

const (
	SourceProductRule       ResolutionSource = "product_rule"
	SourceCategoryRule      ResolutionSource = "category_rule"
	SourceStoredDefault     ResolutionSource = "stored_default"
	SourceConfiguredDefault ResolutionSource = "configured_default"
	SourceFallback          ResolutionSource = "average_fallback"
	// SourceOverride marks a method named by the caller instead of resolved
	SourceOverride ResolutionSource = "override"
)

// RuleCandidate is a rule together with the method it points at
type RuleCandidate struct {
	Rule   CostingRule
	Method CostingMethod
}

// ResolveInput holds everything the chain looks at, already loaded
type ResolveInput struct {
	ProductRules      []RuleCandidate
	CategoryRules     []RuleCandidate
	StoredDefault     *CostingMethod
	ConfiguredDefault *CostingMethod
	// Fallback is the stored average method, nil if it does not exist yet
	Fallback *CostingMethod
}

// Resolution is the chain's answer. Method is nil only for SourceFallback
// when no average row exists yet; the caller creates it.
type Resolution struct {
	Method *CostingMethod
	Source ResolutionSource
}

type matcher struct {
	source ResolutionSource
	match  func(in ResolveInput) *CostingMethod
}

var chain = []matcher{
	{SourceProductRule, func(in ResolveInput) *CostingMethod { return pickRule(in.ProductRules) }},
	{SourceCategoryRule, func(in ResolveInput) *CostingMethod { return pickRule(in.CategoryRules) }},
	{SourceStoredDefault, func(in ResolveInput) *CostingMethod { return in.StoredDefault }},
	{SourceConfiguredDefault, func(in ResolveInput) *CostingMethod { return in.ConfiguredDefault }},
}

// Resolve walks product rule, category rule, stored default, configured
// default and average fallback in that order. It never fails.
func Resolve(in ResolveInput) Resolution {
	for _, m := range chain {
		if method := m.match(in); method != nil {
			return Resolution{Method: method, Source: m.source}
		}
	}
	return Resolution{Method: in.Fallback, Source: SourceFallback}
}

// pickRule returns the method of the highest-priority rule, newest first on ties
func pickRule(candidates []RuleCandidate) *CostingMethod {
	var best *RuleCandidate
	for i := range candidates {
		c := &candidates[i]
		if best == nil ||
			c.Rule.Priority > best.Rule.Priority ||
			(c.Rule.Priority == best.Rule.Priority && c.Rule.CreatedAt.After(best.Rule.CreatedAt)) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	method := best.Method
	return &method
}
