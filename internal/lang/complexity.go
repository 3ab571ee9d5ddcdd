package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ComplexityFactors is the structural complexity breakdown of one
// function or method. Cognitive is the composite score: control flow
// costs one plus its nesting depth, continuations and flow breaks and
// boolean operators cost one flat, children of nesting constructs are
// scored one level deeper. Same tree, same score.
type ComplexityFactors struct {
	Cognitive     int
	Nesting       int
	Params        int
	Returns       int
	BoolOps       int
	CallbackDepth int
}

// Node classification is language-agnostic: grammars across the
// supported set reuse these node type names, so one table serves all.
var controlFlowNodes = map[string]bool{
	"if_statement": true, "if_expression": true,
	"for_statement": true, "for_expression": true, "for_in_statement": true,
	"enhanced_for_statement": true, "foreach_statement": true,
	"while_statement": true, "while_expression": true,
	"do_statement": true, "do_while_statement": true, "loop_expression": true,
	"switch_statement": true, "switch_expression": true,
	"expression_switch_statement": true, "type_switch_statement": true,
	"select_statement": true, "match_statement": true, "match_expression": true,
	"when_expression": true, "try_statement": true, "try_expression": true,
	"with_statement": true, "except_clause": true, "catch_clause": true,
	"conditional_expression": true, "ternary_expression": true,
}

// Continuations extend the parent structure without deepening it
var continuationNodes = map[string]bool{
	"elif_clause": true, "else_clause": true, "else_if_clause": true,
	"case_clause": true, "switch_case": true, "match_arm": true,
	"when_entry": true, "expression_case": true, "type_case": true,
	"communication_case": true,
}

var flowBreakNodes = map[string]bool{
	"break_statement": true, "continue_statement": true, "goto_statement": true,
}

var returnNodes = map[string]bool{
	"return_statement": true, "throw_statement": true, "raise_statement": true,
	"throw_expression": true, "yield": true, "yield_statement": true,
}

var functionNodes = map[string]bool{
	"function_definition": true, "function_declaration": true,
	"method_definition": true, "method_declaration": true,
	"function_item": true, "arrow_function": true, "lambda": true,
	"lambda_expression": true, "lambda_literal": true,
	"anonymous_function": true, "closure_expression": true,
	"function_expression": true, "generator_function_declaration": true,
	"func_literal": true,
}

var paramListNodes = map[string]bool{
	"parameters": true, "formal_parameters": true, "parameter_list": true,
	"function_parameters": true, "method_parameters": true,
}

var boolOpTokens = map[string]bool{
	"&&": true, "||": true, "and": true, "or": true, "??": true,
}

// analyzeComplexity scores a function node's subtree
func analyzeComplexity(node *sitter.Node, source []byte) ComplexityFactors {
	f := ComplexityFactors{Params: countParams(node)}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkComplexity(node.Child(i), source, 0, &f)
	}
	return f
}

func walkComplexity(node *sitter.Node, source []byte, depth int, f *ComplexityFactors) {
	if node == nil {
		return
	}
	t := node.Type()

	switch {
	case controlFlowNodes[t]:
		f.Cognitive += 1 + depth
		if depth+1 > f.Nesting {
			f.Nesting = depth + 1
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walkComplexity(node.Child(i), source, depth+1, f)
		}
		return

	case continuationNodes[t]:
		f.Cognitive++
		for i := 0; i < int(node.ChildCount()); i++ {
			walkComplexity(node.Child(i), source, depth, f)
		}
		return

	case flowBreakNodes[t]:
		f.Cognitive++
		return
	}

	if returnNodes[t] {
		f.Returns++
	}

	if t == "boolean_operator" {
		f.BoolOps++
		f.Cognitive++
	} else if t == "binary_expression" && hasBoolOperator(node, source) {
		f.BoolOps++
		f.Cognitive++
	}

	if functionNodes[t] && depth > 0 {
		// Nested function: scored as one more callback level, its own
		// control flow still counts toward the enclosing symbol.
		inner := ComplexityFactors{}
		for i := 0; i < int(node.ChildCount()); i++ {
			walkComplexity(node.Child(i), source, depth+1, &inner)
		}
		f.Cognitive += inner.Cognitive
		f.Returns += inner.Returns
		f.BoolOps += inner.BoolOps
		if inner.Nesting > f.Nesting {
			f.Nesting = inner.Nesting
		}
		if inner.CallbackDepth+1 > f.CallbackDepth {
			f.CallbackDepth = inner.CallbackDepth + 1
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkComplexity(node.Child(i), source, depth, f)
	}
}

func hasBoolOperator(node *sitter.Node, source []byte) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		if boolOpTokens[string(source[child.StartByte():child.EndByte()])] {
			return true
		}
	}
	return false
}

func countParams(node *sitter.Node) int {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !paramListNodes[child.Type()] {
			continue
		}
		count := 0
		for j := 0; j < int(child.ChildCount()); j++ {
			p := child.Child(j)
			if p != nil && p.IsNamed() && p.Type() != "comment" && p.Type() != "block_comment" {
				count++
			}
		}
		return count
	}
	return 0
}
