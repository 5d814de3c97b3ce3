package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/codeintel/engine/internal/model"
)

// nodeEligible lists the chunk kinds the constructor turns into graph
// nodes (spec §4.10: "function, method, class, barrel, and config-module
// chunks"). Every other kind — fallback slices, type aliases, enums —
// never gets a node, so it can never be an edge endpoint.
var nodeEligible = map[model.ChunkKind]model.NodeKind{
	model.ChunkFunction:     model.NodeFunction,
	model.ChunkMethod:       model.NodeMethod,
	model.ChunkClass:        model.NodeClass,
	model.ChunkBarrel:       model.NodeModule,
	model.ChunkConfigModule: model.NodeModule,
}

// BuildResult is the output of Construct: the nodes and edges derived
// from one repository's chunk set, plus the statistics spec §4.10
// requires a construction run to report.
type BuildResult struct {
	Nodes []model.Node
	Edges []model.Edge
	Stats model.GraphStats
}

// Construct builds the node and edge set for a repository's chunks
// (spec §4.10). Anonymous-named chunks and chunks of an ineligible kind
// never receive a node; call edges are produced via the
// resolveCallTarget ladder, re-export edges for barrel chunks, and
// import edges connecting a caller to the module-level node its import
// string names (Open Question decision: import edges are implemented
// in this port, not deferred — see DESIGN.md).
func Construct(repository string, chunks []model.Chunk) BuildResult {
	chunkPtrs := make([]*model.Chunk, len(chunks))
	for i := range chunks {
		chunkPtrs[i] = &chunks[i]
	}
	idx := buildIndex(chunkPtrs)

	nodeIDByChunk := make(map[string]string, len(chunks))
	var nodes []model.Node
	nodesByType := map[string]int{}

	for i := range chunks {
		c := &chunks[i]
		nodeKind, eligible := nodeEligible[c.Kind]
		if !eligible || model.IsAnonymousName(c.Name) {
			continue
		}
		nodeID := nodeIDFor(c)
		nodeIDByChunk[c.ID] = nodeID
		nodes = append(nodes, model.Node{
			ID:    nodeID,
			Kind:  nodeKind,
			Label: c.QualifiedName,
			Properties: model.NodeProperties{
				ChunkID:    c.ID,
				FilePath:   c.FilePath,
				Language:   c.Language,
				Repository: repository,
				Signature:  c.Metadata.Signature,
				Complexity: c.Metadata.Complexity["cyclomatic"],
				IsBarrel:   c.Metadata.IsBarrel,
				StartLine:  c.StartLine,
				EndLine:    c.EndLine,
			},
		})
		nodesByType[string(nodeKind)]++
	}

	var edges []model.Edge
	edgesByType := map[string]int{}
	var attempted, resolved int

	for i := range chunks {
		c := &chunks[i]
		callerNodeID, hasNode := nodeIDByChunk[c.ID]
		if !hasNode {
			continue
		}
		for _, callName := range c.Metadata.Calls {
			attempted++
			target := resolveCallTarget(callName, c, idx)
			if target == nil {
				continue
			}
			targetNodeID, ok := nodeIDByChunk[target.ID]
			if !ok {
				continue
			}
			resolved++
			edges = append(edges, model.Edge{
				ID:       edgeID(callerNodeID, targetNodeID, model.RelationCalls, callName),
				Source:   callerNodeID,
				Target:   targetNodeID,
				Relation: model.RelationCalls,
				Properties: model.EdgeProperties{
					CallName:   callName,
					SourceFile: c.FilePath,
					TargetFile: target.FilePath,
				},
			})
			edgesByType[string(model.RelationCalls)]++
		}

		if c.Metadata.IsBarrel {
			for _, re := range c.Metadata.ReExports {
				target := resolveReExportTarget(re, c, idx)
				if target == nil {
					continue
				}
				targetNodeID, ok := nodeIDByChunk[target.ID]
				if !ok {
					continue
				}
				edges = append(edges, model.Edge{
					ID:       edgeID(callerNodeID, targetNodeID, model.RelationReExports, re.Symbol),
					Source:   callerNodeID,
					Target:   targetNodeID,
					Relation: model.RelationReExports,
					Properties: model.EdgeProperties{
						SourceFile: c.FilePath,
						TargetFile: target.FilePath,
						Symbol:     re.Symbol,
						Original:   re.Original,
					},
				})
				edgesByType[string(model.RelationReExports)]++
			}
		}

		for _, imp := range c.Metadata.Imports {
			target := resolveImportModule(imp, idx)
			if target == nil || target.ID == c.ID {
				continue
			}
			targetNodeID, ok := nodeIDByChunk[target.ID]
			if !ok {
				continue
			}
			edges = append(edges, model.Edge{
				ID:       edgeID(callerNodeID, targetNodeID, model.RelationImports, imp),
				Source:   callerNodeID,
				Target:   targetNodeID,
				Relation: model.RelationImports,
				Properties: model.EdgeProperties{
					SourceFile: c.FilePath,
					TargetFile: target.FilePath,
				},
			})
			edgesByType[string(model.RelationImports)]++
		}
	}

	accuracy := 0.0
	if attempted > 0 {
		accuracy = float64(resolved) / float64(attempted)
	}

	return BuildResult{
		Nodes: nodes,
		Edges: edges,
		Stats: model.GraphStats{
			Repository:         repository,
			TotalNodes:         len(nodes),
			TotalEdges:         len(edges),
			NodesByType:        nodesByType,
			EdgesByType:        edgesByType,
			ResolutionAccuracy: accuracy,
		},
	}
}

// resolveReExportTarget finds the chunk a barrel's `export { Symbol } from
// 'source'` entry points at, by simple-name match within the same
// repository (the teacher's original has no barrel concept). A candidate
// outside the barrel's own file is preferred; otherwise the first
// candidate with that name is used.
func resolveReExportTarget(re model.ReExport, barrel *model.Chunk, idx *index) *model.Chunk {
	name := re.Original
	if name == "" {
		name = re.Symbol
	}
	candidates := idx.bySimpleName[name]
	for _, c := range candidates {
		if c.FilePath != barrel.FilePath {
			return c
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return nil
}

// resolveImportModule finds the module-level (barrel/config-module) node
// an import string refers to, by matching the import against the
// importee's qualified-name module prefix.
func resolveImportModule(importPath string, idx *index) *model.Chunk {
	cleaned := strings.TrimPrefix(importPath, "./")
	cleaned = strings.TrimSuffix(cleaned, "/index")
	for _, list := range idx.byFile {
		for _, c := range list {
			if c.Kind != model.ChunkBarrel && c.Kind != model.ChunkConfigModule {
				continue
			}
			if strings.HasSuffix(c.QualifiedName, cleaned) || strings.Contains(c.FilePath, cleaned) {
				return c
			}
		}
	}
	return nil
}

// nodeIDFor derives a stable node id from the chunk's qualified name and
// repository-relative file path, so repeated construction runs over an
// unchanged chunk set produce identical node ids (spec §8 idempotence).
func nodeIDFor(c *model.Chunk) string {
	sum := sha256.Sum256([]byte(c.FilePath + "|" + c.QualifiedName))
	return "node_" + hex.EncodeToString(sum[:])[:16]
}

// edgeID derives a stable edge id so rebuilding the graph for an
// unchanged chunk set is idempotent rather than appending duplicates.
func edgeID(source, target string, relation model.RelationKind, discriminator string) string {
	sum := sha256.Sum256([]byte(source + "|" + target + "|" + string(relation) + "|" + discriminator))
	return "edge_" + hex.EncodeToString(sum[:])[:16]
}
