// Package phpsyntax is a safety gate for formatter output: before a fix
// is patched into the buffer, the rewritten text must still parse as
// PHP. A formatter that mangles the source never reaches the buffer.
package phpsyntax

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// ErrParse means the source contains a syntax error.
var ErrParse = errors.New("php parse error")

// Validate parses src with the tree-sitter PHP grammar and returns an
// error locating the first syntax error, or nil when the tree is clean.
func Validate(ctx context.Context, src []byte) error {
	parser := sitter.NewParser()
	parser.SetLanguage(php.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	if node := firstErrorNode(root); node != nil {
		point := node.StartPoint()
		return fmt.Errorf("%w at line %d, column %d", ErrParse, point.Row+1, point.Column+1)
	}
	return ErrParse
}

// firstErrorNode does a depth-first walk for the first ERROR or missing
// node in the tree.
func firstErrorNode(root *sitter.Node) *sitter.Node {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.IsError() || node.IsMissing() {
			return node
		}
		if !node.HasError() {
			continue // subtree is clean, skip it
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, node.Child(i))
		}
	}
	return nil
}
