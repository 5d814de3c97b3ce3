package chunk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codeintel/engine/internal/model"
)

// Enricher extracts language-specific metadata (imports, calls, re-exports,
// signatures) for a chunk, run over the full file source so byte offsets
// never drift from chunk boundaries (spec §4.4 step 5). internal/metadata
// implements this; the chunker runs with a no-op enricher if none is set,
// so the package has no import-time dependency on internal/metadata.
type Enricher interface {
	Enrich(ctx context.Context, file FileInput, tree *Tree, c *model.Chunk)
}

// ASTChunker implements the cAST split-then-merge algorithm (spec §4.4):
// classify the file, parse it, extract one semantic unit per
// function/method/class/interface/type, split oversize units and merge
// undersize ones, then enrich every chunk over the unmodified file source.
type ASTChunker struct {
	parser   *Parser
	registry *LanguageRegistry
	enricher Enricher
}

// NewASTChunker builds a chunker against the default language registry.
func NewASTChunker() *ASTChunker {
	return &ASTChunker{parser: NewParser(), registry: DefaultRegistry()}
}

// SetEnricher wires a metadata extractor into the chunker's final pass.
func (c *ASTChunker) SetEnricher(e Enricher) { c.enricher = e }

// SupportedLanguages lists the languages with a registered tree-sitter
// grammar. Files in other languages still chunk, via the fixed-size
// fallback.
func (c *ASTChunker) SupportedLanguages() []string {
	seen := map[string]bool{}
	var out []string
	for _, ext := range c.registry.SupportedExtensions() {
		cfg, ok := c.registry.GetByExtension(ext)
		if ok && !seen[cfg.Name] {
			seen[cfg.Name] = true
			out = append(out, cfg.Name)
		}
	}
	return out
}

// Chunk splits one file into semantic chunks per spec §4.4.
func (c *ASTChunker) Chunk(ctx context.Context, file FileInput, opts Options) ([]*model.Chunk, error) {
	if opts.MaxChunkSize <= 0 {
		opts = DefaultOptions()
	}

	class := classifyFile(file.Path)

	if class == classConfig {
		return []*model.Chunk{c.wholeFileChunk(file, model.ChunkConfigModule)}, nil
	}

	if class == classBarrelCandidate && isBarrelModule(file.Source, file.Language) {
		chunk := c.wholeFileChunk(file, model.ChunkBarrel)
		chunk.Name = barrelName(file.Path)
		chunk.QualifiedName = qualifiedModulePath(file.Path)
		chunk.Metadata.IsBarrel = true
		return []*model.Chunk{chunk}, nil
	}

	cfg, ok := c.registry.GetByName(file.Language)
	if !ok {
		cfg, ok = c.registry.GetByExtension(extOf(file.Path))
	}
	if !ok {
		return chunkByLines(file, opts, "unsupported_language"), nil
	}

	parseCtx, cancel := context.WithTimeout(ctx, parseTimeout)
	defer cancel()

	tree, err := c.parser.Parse(parseCtx, file.Source, cfg.Name)
	if err != nil || tree.Root == nil || tree.Root.HasError {
		return chunkByLines(file, opts, "ast_parsing_failed"), nil
	}

	units := collectUnits(tree.Root, cfg, file.Source)
	if len(units) == 0 {
		return chunkByLines(file, opts, "no_semantic_units"), nil
	}

	var chunks []*model.Chunk
	for _, u := range units {
		chunks = append(chunks, c.expandUnit(file, opts, u)...)
	}

	chunks = mergeUndersize(chunks, opts)

	if c.enricher != nil {
		for _, ch := range chunks {
			c.enricher.Enrich(ctx, file, tree, ch)
		}
	}

	return chunks, nil
}

func extOf(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}

// wholeFileChunk builds a single chunk spanning the entire file, used for
// config modules and barrels where AST splitting would be counterproductive.
func (c *ASTChunker) wholeFileChunk(file FileInput, kind model.ChunkKind) *model.Chunk {
	source := string(file.Source)
	lines := strings.Count(source, "\n") + 1
	name := strings.TrimSuffix(pathBase(file.Path), extOf(file.Path))
	return &model.Chunk{
		ID:            contentChunkID(file.Path, source),
		FilePath:      file.Path,
		Language:      file.Language,
		Kind:          kind,
		Name:          name,
		QualifiedName: qualifiedModulePath(file.Path),
		Source:        source,
		StartLine:     1,
		EndLine:       lines,
		Repository:    file.Repository,
		CommitHash:    file.CommitHash,
		IndexedAt:     time.Now(),
	}
}

func pathBase(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// unit is one extracted semantic entity, pre-split.
type unit struct {
	kind      model.ChunkKind
	node      *Node
	enclosing []string
	methods   []*unit // populated for class units
}

// collectUnits walks the tree and extracts top-level and class-nested
// semantic units, matching the node types declared in the language config.
func collectUnits(root *Node, cfg *LanguageConfig, source []byte) []*unit {
	var out []*unit
	var walk func(n *Node, enclosing []string)
	walk = func(n *Node, enclosing []string) {
		for _, child := range n.Children {
			switch {
			case typeIn(child.Type, cfg.ClassTypes):
				name := nameFromSource(child, source)
				if name == "" {
					name = "anonymous_class"
				}
				u := &unit{kind: model.ChunkClass, node: child, enclosing: enclosing}
				u.methods = collectMethods(child, cfg, append(append([]string{}, enclosing...), name))
				out = append(out, u)
			case typeIn(child.Type, cfg.InterfaceTypes):
				out = append(out, &unit{kind: model.ChunkInterface, node: child, enclosing: enclosing})
			case typeIn(child.Type, cfg.MethodTypes):
				out = append(out, &unit{kind: model.ChunkMethod, node: child, enclosing: enclosing})
			case typeIn(child.Type, cfg.FunctionTypes):
				out = append(out, &unit{kind: model.ChunkFunction, node: child, enclosing: enclosing})
			case typeIn(child.Type, cfg.TypeDefTypes):
				out = append(out, &unit{kind: model.ChunkTypeAlias, node: child, enclosing: enclosing})
			default:
				walk(child, enclosing)
			}
		}
	}
	walk(root, nil)
	return out
}

// collectMethods finds method-like nodes directly inside a class body.
// Python has no dedicated method node type: its methods are
// function_definition nodes nested in the class, so FunctionTypes is
// searched too when MethodTypes is empty.
func collectMethods(classNode *Node, cfg *LanguageConfig, enclosing []string) []*unit {
	methodTypes := cfg.MethodTypes
	if len(methodTypes) == 0 {
		methodTypes = cfg.FunctionTypes
	}
	var methods []*unit
	classNode.Walk(func(n *Node) bool {
		if n == classNode {
			return true
		}
		if typeIn(n.Type, methodTypes) {
			methods = append(methods, &unit{kind: model.ChunkMethod, node: n, enclosing: enclosing})
			return false
		}
		if typeIn(n.Type, cfg.ClassTypes) {
			return false // nested class handled as its own top-level unit
		}
		return true
	})
	return methods
}

func typeIn(t string, set []string) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

// nameFromSource recovers a node's identifier text directly from source,
// since tree-sitter name fields are typically "identifier"/"type_identifier"
// children rather than a field keyed by cfg.NameField in every grammar.
func nameFromSource(n *Node, source []byte) string {
	for _, t := range []string{"identifier", "type_identifier", "property_identifier", "field_identifier"} {
		if id := n.FindChildByType(t); id != nil {
			return id.GetContent(source)
		}
	}
	return ""
}

// expandUnit turns one extracted unit into one or more chunks, splitting it
// if it exceeds MaxChunkSize.
func (c *ASTChunker) expandUnit(file FileInput, opts Options, u *unit) []*model.Chunk {
	lineCount := int(u.node.EndPoint.Row-u.node.StartPoint.Row) + 1

	if lineCount <= opts.MaxChunkSize || len(u.methods) == 0 {
		if lineCount <= opts.MaxChunkSize {
			return []*model.Chunk{c.unitChunk(file, u)}
		}
		// Oversize function/method/interface with nothing to split by:
		// fall through to fixed-size chunking of just this unit's span.
		return c.splitBySize(file, opts, u)
	}

	// Oversize class with methods: split by method (spec §4.4 split step).
	var chunks []*model.Chunk
	for _, m := range u.methods {
		chunks = append(chunks, c.expandUnit(file, opts, m)...)
	}
	return chunks
}

// splitBySize falls back to fixed-size, overlapping sub-chunks of a single
// oversize unit, tagging the first sub-chunk with the unit's own qualified
// name so it stays discoverable by symbol name even once split.
func (c *ASTChunker) splitBySize(file FileInput, opts Options, u *unit) []*model.Chunk {
	sub := FileInput{
		Path:       file.Path,
		Source:     []byte(u.node.GetContent(file.Source)),
		Language:   file.Language,
		Repository: file.Repository,
		CommitHash: file.CommitHash,
	}
	lineOffset := int(u.node.StartPoint.Row)
	parts := chunkByLines(sub, opts, "unit_exceeds_max_size")
	name := nameFromSource(u.node, file.Source)
	if name == "" {
		name = "anonymous_" + string(u.kind)
	}
	qn := qualifiedName(file.Path, u.enclosing, name)
	for i, p := range parts {
		p.Kind = u.kind
		p.StartLine += lineOffset
		p.EndLine += lineOffset
		if i == 0 {
			p.Name = name
			p.QualifiedName = qn
		} else {
			p.Name = fmt.Sprintf("%s_part%d", name, i)
			p.QualifiedName = qn + fmt.Sprintf("_part%d", i)
		}
		p.ID = contentChunkID(file.Path, p.Source)
	}
	return parts
}

// unitChunk builds a single chunk covering an entire unit's node span.
func (c *ASTChunker) unitChunk(file FileInput, u *unit) *model.Chunk {
	name := nameFromSource(u.node, file.Source)
	if name == "" {
		name = "anonymous_" + string(u.kind)
	}
	source := u.node.GetContent(file.Source)
	return &model.Chunk{
		ID:            contentChunkID(file.Path, source),
		FilePath:      file.Path,
		Language:      file.Language,
		Kind:          u.kind,
		Name:          name,
		QualifiedName: qualifiedName(file.Path, u.enclosing, name),
		Source:        source,
		StartLine:     int(u.node.StartPoint.Row) + 1,
		EndLine:       int(u.node.EndPoint.Row) + 1,
		Repository:    file.Repository,
		CommitHash:    file.CommitHash,
		Metadata: model.ChunkMetadata{
			Signature: firstLine(source),
		},
		IndexedAt: time.Now(),
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// mergeUndersize folds chunks smaller than MinChunkSize into their
// file-order neighbor, so long runs of tiny one-line methods don't each pay
// the embedding/storage cost of their own row (spec §4.4 merge step).
func mergeUndersize(chunks []*model.Chunk, opts Options) []*model.Chunk {
	if len(chunks) < 2 {
		return chunks
	}
	merged := []*model.Chunk{chunks[0]}
	for _, next := range chunks[1:] {
		last := merged[len(merged)-1]
		lastSize := last.EndLine - last.StartLine + 1
		nextSize := next.EndLine - next.StartLine + 1
		combined := lastSize + nextSize
		sameFile := last.FilePath == next.FilePath
		if sameFile && lastSize < opts.MinChunkSize && combined <= opts.MaxChunkSize {
			last.Source = last.Source + "\n\n" + next.Source
			last.EndLine = next.EndLine
			last.Name = last.Name + "+" + next.Name
			last.ID = contentChunkID(last.FilePath, last.Source)
			continue
		}
		merged = append(merged, next)
	}
	return merged
}
