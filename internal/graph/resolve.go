package graph

import (
	"strings"

	"github.com/codeintel/engine/internal/model"
)

// index speeds up repeated resolution lookups across a repository's
// chunk set: by simple name, by file path, and by qualified name suffix.
type index struct {
	byFile       map[string][]*model.Chunk
	bySimpleName map[string][]*model.Chunk
}

func buildIndex(chunks []*model.Chunk) *index {
	idx := &index{
		byFile:       make(map[string][]*model.Chunk),
		bySimpleName: make(map[string][]*model.Chunk),
	}
	for _, c := range chunks {
		idx.byFile[c.FilePath] = append(idx.byFile[c.FilePath], c)
		idx.bySimpleName[c.Name] = append(idx.bySimpleName[c.Name], c)
	}
	return idx
}

// resolveCallTarget implements the `_resolve_call_target` priority ladder
// (spec §4.10): qualified-name match (with same-file and closest-suffix
// disambiguation), local-file match, import-based match, else
// unresolved. caller is the chunk making the call; callName is one entry
// from caller.Metadata.Calls.
func resolveCallTarget(callName string, caller *model.Chunk, idx *index) *model.Chunk {
	if IsBuiltin(caller.Language, callName) {
		return nil
	}

	if target := resolveByQualifiedName(callName, caller, idx); target != nil {
		return target
	}
	if target := resolveByLocalFile(callName, caller, idx); target != nil {
		return target
	}
	if target := resolveByImport(callName, caller, idx); target != nil {
		return target
	}
	return nil
}

// resolveByQualifiedName is the primary disambiguation lever (spec §4.10
// step 2): candidates whose qualified name equals callName or ends with
// ".<callName>". A single candidate resolves outright; multiple
// candidates prefer same-file, then the closest suffix match against the
// caller's own qualified name.
func resolveByQualifiedName(callName string, caller *model.Chunk, idx *index) *model.Chunk {
	var candidates []*model.Chunk
	suffix := "." + callName
	for _, c := range idx.bySimpleName[callName] {
		if c.QualifiedName == callName || strings.HasSuffix(c.QualifiedName, suffix) {
			candidates = append(candidates, c)
		}
	}
	// A qualified name can also match a call name that isn't a bare
	// simple-name lookup hit (e.g. bySimpleName indexes by Name, not by
	// QualifiedName), so also scan every chunk once if the fast index
	// found nothing.
	if len(candidates) == 0 {
		for _, list := range idx.bySimpleName {
			for _, c := range list {
				if c.QualifiedName == callName || strings.HasSuffix(c.QualifiedName, suffix) {
					candidates = append(candidates, c)
				}
			}
		}
	}

	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}

	// Prefer a candidate in the same file as the caller.
	var sameFile []*model.Chunk
	for _, c := range candidates {
		if c.FilePath == caller.FilePath {
			sameFile = append(sameFile, c)
		}
	}
	if len(sameFile) == 1 {
		return sameFile[0]
	}
	if len(sameFile) > 1 {
		candidates = sameFile
	}

	// Prefer the candidate whose enclosing scope is the closest suffix
	// match to the caller's own enclosing scope.
	callerScope := enclosingScope(caller.QualifiedName)
	best := candidates[0]
	bestScore := -1
	for _, c := range candidates {
		score := commonSuffixSegments(enclosingScope(c.QualifiedName), callerScope)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

// enclosingScope strips a qualified name's own trailing simple-name
// segment, leaving the dotted scope it is declared in.
func enclosingScope(qualifiedName string) string {
	i := strings.LastIndex(qualifiedName, ".")
	if i < 0 {
		return ""
	}
	return qualifiedName[:i]
}

// commonSuffixSegments counts how many trailing dot-separated segments a
// and b share, used to rank qualified-name candidates by proximity to
// the caller's own scope.
func commonSuffixSegments(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := 0
	for i, j := len(as)-1, len(bs)-1; i >= 0 && j >= 0 && as[i] == bs[j]; i, j = i-1, j-1 {
		n++
	}
	return n
}

// resolveByLocalFile matches a chunk in the same file with the same
// simple name, for chunks missing qualified names (spec §4.10 step 3).
func resolveByLocalFile(callName string, caller *model.Chunk, idx *index) *model.Chunk {
	for _, c := range idx.byFile[caller.FilePath] {
		if c.Name == callName && c.FilePath == caller.FilePath {
			return c
		}
	}
	return nil
}

// resolveByImport inspects the caller's imports for an entry ending in
// ".<callName>" or equal to callName, then searches all chunks sharing
// that simple name (spec §4.10 step 4).
func resolveByImport(callName string, caller *model.Chunk, idx *index) *model.Chunk {
	matched := false
	suffix := "." + callName
	for _, imp := range caller.Metadata.Imports {
		if imp == callName || strings.HasSuffix(imp, suffix) {
			matched = true
			break
		}
	}
	if !matched {
		return nil
	}
	if candidates := idx.bySimpleName[callName]; len(candidates) > 0 {
		return candidates[0]
	}
	return nil
}
