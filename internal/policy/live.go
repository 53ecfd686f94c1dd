package policy

import (
	"regexp"
	"sync"

	"github.com/rotisserie/eris"
)

// CompiledRule is a Rule with its patterns compiled case-insensitively.
type CompiledRule struct {
	Rule
	Regexps []*regexp.Regexp
}

// Snapshot is an immutable view of the policy in force.
type Snapshot struct {
	Policy *Policy
	Rules  []CompiledRule
}

// Live holds the current policy and lets operators swap tables at runtime.
// Readers get a consistent Snapshot; writers replace it wholesale.
type Live struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewLive validates and compiles p.
func NewLive(p *Policy) (*Live, error) {
	snap, err := compile(p)
	if err != nil {
		return nil, err
	}
	return &Live{snap: snap}, nil
}

// Current returns the snapshot in force.
func (l *Live) Current() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Replace installs p after validation. On error the old policy stays.
func (l *Live) Replace(p *Policy) error {
	snap, err := compile(p)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.snap = snap
	l.mu.Unlock()
	return nil
}

// SetAudience merges one audience table into the live policy.
func (l *Live) SetAudience(name string, a Audience) error {
	if name == "" {
		return eris.New("policy: audience name is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.snap.Policy.Clone()
	next.Audiences[name] = a
	snap, err := compile(next)
	if err != nil {
		return err
	}
	l.snap = snap
	return nil
}

func compile(p *Policy) (*Snapshot, error) {
	if p == nil {
		return nil, eris.New("policy: nil policy")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rules := make([]CompiledRule, 0, len(p.Rules))
	for _, r := range p.Rules {
		cr := CompiledRule{Rule: r}
		for _, pat := range r.Patterns {
			re, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				return nil, eris.Wrapf(err, "policy: compile %s pattern", r.Category)
			}
			cr.Regexps = append(cr.Regexps, re)
		}
		rules = append(rules, cr)
	}
	return &Snapshot{Policy: p, Rules: rules}, nil
}
