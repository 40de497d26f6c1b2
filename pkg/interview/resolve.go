package interview

import (
	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/logic"
)

// resolveQuestion finds an unanswered question providing a value at path,
// materializes it, and returns it with its id. If evaluating a candidate's
// guard or templates trips over another missing value, the resolver chases
// that value instead, recursively, with the candidate excluded from its own
// chain. skip holds the ids already being considered up the chain.
func resolveQuestion(path logic.Path, ic *Context, skip map[string]bool) (string, *input.Question, error) {
	id, question, err := resolveDirect(path, ic, skip)
	if err != nil || question != nil {
		return id, question, err
	}
	id, question, err = resolveIndirect(path, ic, skip)
	if err != nil || question != nil {
		return id, question, err
	}
	return "", nil, errorf("no question provides value %s", path.Pointer())
}

func resolveDirect(path logic.Path, ic *Context, skip map[string]bool) (string, *input.Question, error) {
	key := path.Pointer().String()
	for _, id := range ic.pathIndex[key] {
		if ic.State.Answered(id) || skip[id] {
			continue
		}
		selID, question, err := tryCandidate(id, ic, skip)
		if err != nil || question != nil {
			return selID, question, err
		}
	}
	return "", nil, nil
}

// resolveIndirect walks the path's literal prefixes from longest to
// shortest looking for templates with a matching indirect target. A
// candidate matches when its target, resolved against the current context,
// lands exactly on path. A candidate whose own index values are missing
// redirects the resolution to those values; if that chase dead-ends, the
// caller's original missing value stays the one reported.
func resolveIndirect(path logic.Path, ic *Context, skip map[string]bool) (string, *input.Question, error) {
	tmplCtx := ic.State.TemplateContext()
	want := path.Pointer().String()
	for n := len(path) - 1; n >= 1; n-- {
		prefix := path[:n].Pointer().String()
		for _, entry := range ic.indirectIndex[prefix] {
			if ic.State.Answered(entry.id) || skip[entry.id] {
				continue
			}
			resolved, err := entry.pointer.Resolve(tmplCtx)
			if err != nil {
				if indexPath, ok := logic.UndefinedPath(err); ok {
					id, question, cerr := resolveQuestion(indexPath, ic, withSkipped(skip, entry.id))
					if cerr == nil {
						return id, question, nil
					}
				}
				continue
			}
			if resolved.String() != want {
				continue
			}
			selID, question, err := tryCandidate(entry.id, ic, skip)
			if err != nil || question != nil {
				return selID, question, err
			}
		}
	}
	return "", nil, nil
}

// tryCandidate checks a template's guard and materializes its question.
// An inapplicable template yields (_, nil, nil); a missing value hit along
// the way redirects the resolution to that value.
func tryCandidate(id string, ic *Context, skip map[string]bool) (string, *input.Question, error) {
	tmpl := ic.Questions[id]
	if tmpl == nil {
		return "", nil, nil
	}
	tmplCtx := ic.State.TemplateContext()
	applies, err := tmpl.Applicable(tmplCtx)
	if err != nil {
		return redirect(err, ic, withSkipped(skip, id))
	}
	if !applies {
		return "", nil, nil
	}
	question, err := tmpl.GetQuestion(tmplCtx)
	if err != nil {
		return redirect(err, ic, withSkipped(skip, id))
	}
	return id, question, nil
}

// redirect resolves the missing value behind err, or propagates err when it
// is not an undefined value.
func redirect(err error, ic *Context, skip map[string]bool) (string, *input.Question, error) {
	path, ok := logic.UndefinedPath(err)
	if !ok {
		return "", nil, err
	}
	return resolveQuestion(path, ic, skip)
}

func withSkipped(skip map[string]bool, id string) map[string]bool {
	next := make(map[string]bool, len(skip)+1)
	for k := range skip {
		next[k] = true
	}
	next[id] = true
	return next
}
