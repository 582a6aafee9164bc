package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error tag constants, one per failure class of the pipeline.
const (
	TagBadTokenError             = "BadTokenError"
	TagMismatchedBracketsError   = "MismatchedBracketsError"
	TagParsingError              = "ParsingError"
	TagIncompleteExpressionError = "IncompleteExpressionError"
	TagZeroDivisionError         = "ZeroDivisionError"
)

// CalcError is an error raised while tokenizing, converting or evaluating an
// expression.
type CalcError struct {
	Message string
	Pos     int  // byte offset in the source, -1 when not tied to one
	Char    rune // offending character, set for BadTokenError
	Tags    []string
}

// Error implements the error interface.
func (e *CalcError) Error() string {
	return fmt.Sprintf("%s - %s", e.Message, strings.Join(e.Tags, ", "))
}

// HasTag returns true if the error has the specified tag.
func (e *CalcError) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasTag reports whether err, or any error it wraps, is a CalcError carrying
// tag.
func HasTag(err error, tag string) bool {
	var ce *CalcError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.HasTag(tag)
}

// NewBadTokenError reports a character the tokenizer does not recognize.
func NewBadTokenError(ch rune, pos int) *CalcError {
	return &CalcError{
		Message: fmt.Sprintf("bad token '%c' at position %d", ch, pos),
		Pos:     pos,
		Char:    ch,
		Tags:    []string{TagBadTokenError},
	}
}

// NewMismatchedBracketsError reports unbalanced or mismatched brackets.
func NewMismatchedBracketsError(msg string, pos int) *CalcError {
	return &CalcError{Message: msg, Pos: pos, Tags: []string{TagMismatchedBracketsError}}
}

// NewParsingError reports a malformed literal, an unknown type name or an
// invalid operand.
func NewParsingError(msg string) *CalcError {
	return &CalcError{Message: msg, Pos: -1, Tags: []string{TagParsingError}}
}

// NewIncompleteExpressionError reports an operator without enough operands.
func NewIncompleteExpressionError(msg string, pos int) *CalcError {
	return &CalcError{Message: msg, Pos: pos, Tags: []string{TagIncompleteExpressionError}}
}

// NewZeroDivisionError reports an integer division or remainder by zero.
func NewZeroDivisionError() *CalcError {
	return &CalcError{Message: "division by zero", Pos: -1, Tags: []string{TagZeroDivisionError}}
}
