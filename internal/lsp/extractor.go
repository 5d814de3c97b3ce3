package lsp

import (
	"context"
	"log/slog"
	"strings"

	"github.com/codeintel/engine/internal/cache"
	"github.com/codeintel/engine/internal/model"
)

// hoverer is satisfied by *Client; narrowed here so TypeExtractor can be
// tested against a fake.
type hoverer interface {
	Hover(ctx context.Context, path, source string, line, character int) (string, error)
}

// defaultColumn is used when the chunk's simple name can't be located on
// its own start line (spec §4.6, "Type extraction").
const defaultColumn = 4

// TypeExtractor recovers {signature, return_type, param_types} for a
// chunk via LSP hover, cached behind internal/cache's L2 store (spec
// §4.6, "Type extraction"; grounded on original_source's
// type_extractor.py).
type TypeExtractor struct {
	python     hoverer
	typescript hoverer
	l2         *cache.L2
	log        *slog.Logger
}

// NewTypeExtractor wires a Pyright-backed client and a TypeScript
// language server client. Either may be nil, in which case files routed
// to that language degrade to empty metadata.
func NewTypeExtractor(python, typescript hoverer, l2 *cache.L2, log *slog.Logger) *TypeExtractor {
	if log == nil {
		log = slog.Default()
	}
	return &TypeExtractor{python: python, typescript: typescript, l2: l2, log: log}
}

// ExtractTypeMetadata never returns an error: any failure (no client for
// the chunk's language, LSP timeout/crash, empty hover text) degrades to
// an empty TypeInfo so indexing continues (spec §4.6, "graceful
// degradation").
func (te *TypeExtractor) ExtractTypeMetadata(ctx context.Context, path string, source []byte, chunk *model.Chunk) TypeInfo {
	client, ns := te.clientFor(chunk.Language)
	if client == nil {
		return TypeInfo{}
	}

	key := cache.LSPTypeKey(ns, source, chunk.StartLine)
	if te.l2 != nil {
		var cached TypeInfo
		if te.l2.Get(ctx, key, &cached) {
			return cached
		}
	}

	line, character := locateSymbol(source, chunk)
	hoverText, err := client.Hover(ctx, path, string(source), line, character)
	if err != nil || strings.TrimSpace(hoverText) == "" {
		if err != nil {
			te.log.Debug("lsp hover failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		return TypeInfo{}
	}

	info := parseSignature(hoverText)
	if info.Signature == "" {
		return TypeInfo{}
	}

	if te.l2 != nil {
		te.l2.Set(ctx, key, info, cache.TTLLSPType)
	}
	return info
}

func (te *TypeExtractor) clientFor(language string) (hoverer, string) {
	if isTypeScriptFamily(language) {
		if te.typescript == nil {
			return nil, ""
		}
		return te.typescript, "ts"
	}
	if te.python == nil {
		return nil, ""
	}
	return te.python, ""
}

// locateSymbol finds the character column of chunk.Name within its
// StartLine in source, falling back to defaultColumn.
func locateSymbol(source []byte, chunk *model.Chunk) (line, character int) {
	lines := strings.Split(string(source), "\n")
	if chunk.StartLine < 0 || chunk.StartLine >= len(lines) {
		return chunk.StartLine, defaultColumn
	}
	name := chunk.Name
	if name == "" {
		return chunk.StartLine, defaultColumn
	}
	if idx := strings.Index(lines[chunk.StartLine], name); idx >= 0 {
		return chunk.StartLine, idx
	}
	return chunk.StartLine, defaultColumn
}
