// Package use holds the errors reported to the command line user.
package use

import (
	"fmt"
	"go/ast"
)

func Err(message string) *Error {
	return &Error{message: message}
}

// FileCommentErr is an error of a configuration comment.
func FileCommentErr(message string, file *ast.File, comment *ast.Comment) *Error {
	return &Error{message: message, comment: comment, file: file}
}

type Error struct {
	message string
	file    *ast.File
	comment *ast.Comment
}

func (e *Error) Error() string {
	m := e.message
	if e.file != nil {
		m += fmt.Sprintf(", package %s", e.file.Name)
	}
	if e.comment != nil {
		m += fmt.Sprintf(", comment %q at %d", e.comment.Text, e.comment.Pos())
	}
	return m
}
