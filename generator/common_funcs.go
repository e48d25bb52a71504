package generator

import (
	"github.com/m4gshm/gollections/expr/get"
	"github.com/m4gshm/gollections/op"
	"github.com/m4gshm/gollections/op/delay/sum"
)

func MethodName(typ, fun string) string { return typ + "." + fun }

func NoLint(nolint bool) string {
	return op.IfElse(nolint, " //nolint", "")
}

// FuncBody renders a function declaration.
func FuncBody(name, args, returnType string, nolint bool, content string) string {
	return "func " + name + "(" + args + ")" + resultType(returnType) + " {" + NoLint(nolint) + "\n" + content + "\n}\n"
}

// MethodBody renders a method declaration.
func MethodBody(receiverVar, receiverType, name, args, returnType string, nolint bool, content string) string {
	return "func (" + receiverVar + " " + receiverType + ") " + name + "(" + args + ")" + resultType(returnType) +
		" {" + NoLint(nolint) + "\n" + content + "\n}\n"
}

func resultType(returnType string) string {
	return get.If(len(returnType) > 0, sum.Of(" ", returnType)).Else("")
}
