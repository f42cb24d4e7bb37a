package profile

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// Schema returns the CUE source of the #Profile definition.
func Schema() string {
	return schemaSource
}

// DecodeCUE evaluates a CUE profile against the closed #Profile schema.
// Top-level fields of the file are the profile fields.
func DecodeCUE(data []byte, path string) (*Profile, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("profile schema: %v", err)}
	}
	def := schema.LookupPath(cue.ParsePath("#Profile"))

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueLoadError(ErrCodeParseFailed, err, path)
	}

	iter, err := value.Fields()
	if err != nil {
		return nil, cueLoadError(ErrCodeParseFailed, err, path)
	}
	for iter.Next() {
		if !def.Allows(iter.Selector()) {
			return nil, &LoadError{
				Code:    ErrCodeParseFailed,
				Message: fmt.Sprintf("field %s not allowed in profile", iter.Selector()),
				Path:    path,
				Line:    iter.Value().Pos().Line(),
			}
		}
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeSchema, err, path)
	}

	var p Profile
	if err := unified.Decode(&p); err != nil {
		return nil, cueLoadError(ErrCodeInvalidValue, err, path)
	}

	if err := p.check(path); err != nil {
		return nil, err
	}
	return &p, nil
}

// cueLoadError converts the first CUE error to a LoadError with its position.
func cueLoadError(code string, err error, path string) *LoadError {
	le := &LoadError{Code: code, Message: err.Error(), Path: path}
	if list := cueerrors.Errors(err); len(list) > 0 {
		first := list[0]
		le.Message = first.Error()
		if pos := first.Position(); pos.IsValid() {
			le.Line = pos.Line()
		}
	}
	return le
}
