package queryplan

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// compileCtx carries the state threaded through one Compile call that
// isn't part of the public Builder/Schema surface: the correlation-tagged
// logger, the shared alias allocator/map, the operator registry, the date
// parser, and the configured depth limit.
type compileCtx struct {
	log       *logrus.Entry
	depth     int
	maxDepth  int
	ops       *OperatorRegistry
	dateParse DateParser
	schema    *Schema
	aliasMap  *AliasMap
	jp        *joinPlanner
}

// newCompileCtx builds a compileCtx tagged with a fresh compilation id, the
// same correlation-id idiom the teacher pack's request-tracing code uses,
// so concurrent Compile calls can be told apart in shared log output.
func newCompileCtx(logger *logrus.Logger, maxDepth int, ops *OperatorRegistry, dp DateParser, schema *Schema, aliasLength int) *compileCtx {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	id := uuid.New()
	cc := &compileCtx{
		log:       logger.WithField("compilation_id", id.String()),
		maxDepth:  maxDepth,
		ops:       ops,
		dateParse: dp,
		schema:    schema,
	}
	cc.aliasMap = NewAliasMap(NewAliasAllocator(aliasLength, schema))
	cc.jp = newJoinPlanner(schema, cc)
	return cc
}

// descend returns a copy of cc one nesting level deeper, erroring once
// maxDepth is exceeded (spec.md §5's recursion guard).
func (cc *compileCtx) descend() (*compileCtx, error) {
	if cc.depth+1 > cc.maxDepth {
		return nil, tooDeepf("filter nesting exceeds max depth %d", cc.maxDepth)
	}
	next := *cc
	next.depth = cc.depth + 1
	return &next, nil
}
