package templating

import (
	"github.com/CTAG07/Pitcher/pkg/content"
)

func previousPageLoop(p *PartialRenderer, lc LoopContext) (string, error) {
	return siblingLoop(p, lc, -1)
}

func nextPageLoop(p *PartialRenderer, lc LoopContext) (string, error) {
	return siblingLoop(p, lc, 1)
}

// siblingLoop renders the loop body once for the sibling at offset from the
// node, wrapping around the ends. Nodes without other siblings and stand-in
// nodes render nothing.
func siblingLoop(p *PartialRenderer, lc LoopContext, offset int) (string, error) {
	n := lc.Node
	total := len(n.Siblings)
	if n.StandIn || total <= 1 || lc.Loop == "" {
		return "", nil
	}
	name := content.CleanName(n.Siblings[((n.Position+offset)%total+total)%total])
	sibling, err := p.resolver.StandIn(joinURL(n.ParentURL, name))
	if err != nil {
		return "", err
	}
	siblingVars, err := p.parser.Parse(sibling, lc.Request)
	if err != nil {
		return "", err
	}
	vars := NewVariableSet()
	vars.Set("@url", "../"+name)
	vars.Merge(siblingVars)
	return vars.Apply(lc.Loop), nil
}
